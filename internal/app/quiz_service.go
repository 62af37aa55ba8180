package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"quiz-attempt-service/internal/domain"
)

// QuizStore is the quiz record store: quiz definitions plus the append-only
// submission list. AddSubmission must reject a second write for the same
// (quiz, email) with domain.ErrAlreadySubmitted.
type QuizStore interface {
	LoadQuiz(ctx context.Context, code string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, code string) error
	AddSubmission(ctx context.Context, submission domain.Submission) error
	GetSubmission(ctx context.Context, code, email string) (domain.Submission, error)
	// ListSubmissions returns every submission when code is empty.
	ListSubmissions(ctx context.Context, code string) ([]domain.Submission, error)
}

// QuizRepository loads quiz definitions (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, code string) (domain.Quiz, error)
	Invalidate(ctx context.Context, code string)
}

// AnchorStore persists attempt start times so reconnects resume the same clock.
// An anchor must survive until Clear; it never expires on its own.
type AnchorStore interface {
	// Anchor returns the stored start time for (code, email), storing now if none exists.
	Anchor(ctx context.Context, code, email string, now time.Time) (time.Time, error)
	Clear(ctx context.Context, code, email string) error
}

// QuizService contains the admin and view use cases. It is the only place
// that branches on role.
type QuizService struct {
	store   QuizStore
	quizzes QuizRepository
	logger  *slog.Logger
	now     func() time.Time
}

func NewQuizService(store QuizStore, quizzes QuizRepository, logger *slog.Logger) *QuizService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuizService{store: store, quizzes: quizzes, logger: logger, now: time.Now}
}

// CreateQuiz validates and stores a new quiz.
func (s *QuizService) CreateQuiz(ctx context.Context, caller domain.Identity, quiz domain.Quiz) (domain.Quiz, error) {
	if !caller.IsAdmin() {
		return domain.Quiz{}, domain.ErrForbidden
	}
	quiz.Code = domain.NormalizeCode(quiz.Code)
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	quiz.Submissions = nil
	quiz.CreatedAt = s.now().UTC()
	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.logger.Info("quiz created", "code", quiz.Code, "questions", len(quiz.Questions), "by", caller.Email)
	return quiz, nil
}

// DeleteQuiz removes a quiz and its submissions.
func (s *QuizService) DeleteQuiz(ctx context.Context, caller domain.Identity, code string) error {
	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	code = domain.NormalizeCode(code)
	if err := s.store.DeleteQuiz(ctx, code); err != nil {
		return err
	}
	s.quizzes.Invalidate(ctx, code)
	s.logger.Info("quiz deleted", "code", code, "by", caller.Email)
	return nil
}

// ListQuizzes returns every quiz definition.
func (s *QuizService) ListQuizzes(ctx context.Context, caller domain.Identity) ([]domain.Quiz, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.store.ListQuizzes(ctx)
}

// Submissions lists the submissions of one quiz, or of all quizzes when code is empty.
func (s *QuizService) Submissions(ctx context.Context, caller domain.Identity, code string) ([]domain.Submission, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	code = domain.NormalizeCode(code)
	if code != "" {
		if _, err := s.quizzes.GetQuiz(ctx, code); err != nil {
			return nil, err
		}
	}
	return s.store.ListSubmissions(ctx, code)
}

// AdminView exposes the full quiz including correct options and submissions.
type AdminView struct {
	Quiz domain.Quiz `json:"quiz"`
}

// PublicQuestion is a question without its correct option.
type PublicQuestion struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// UserView is what an attempting user may see before or after submitting.
type UserView struct {
	Code            string             `json:"code"`
	Title           string             `json:"title"`
	DurationMinutes int                `json:"durationMinutes"`
	Questions       []PublicQuestion   `json:"questions,omitempty"`
	Submission      *domain.Submission `json:"submission,omitempty"`
}

// View is either an AdminView or a UserView; exactly one is set.
type View struct {
	Admin *AdminView `json:"admin,omitempty"`
	User  *UserView  `json:"user,omitempty"`
}

// View performs the role check once and builds the matching view model.
func (s *QuizService) View(ctx context.Context, caller domain.Identity, code string) (View, error) {
	code = domain.NormalizeCode(code)
	quiz, err := s.quizzes.GetQuiz(ctx, code)
	if err != nil {
		return View{}, err
	}

	if caller.IsAdmin() {
		submissions, err := s.store.ListSubmissions(ctx, code)
		if err != nil {
			return View{}, fmt.Errorf("list submissions: %w", err)
		}
		quiz.Submissions = submissions
		return View{Admin: &AdminView{Quiz: quiz}}, nil
	}

	view := &UserView{
		Code:            quiz.Code,
		Title:           quiz.Title,
		DurationMinutes: quiz.DurationMinutes,
	}
	prior, err := s.store.GetSubmission(ctx, code, caller.Email)
	switch {
	case err == nil:
		view.Submission = &prior
	case errors.Is(err, domain.ErrSubmissionNotFound):
		view.Questions = PublicQuestions(quiz.Questions)
	default:
		return View{}, fmt.Errorf("lookup prior submission: %w", err)
	}
	return View{User: view}, nil
}

// Report builds the reporting bundle for a stored submission. Users may only
// request their own; admins may pass any email.
func (s *QuizService) Report(ctx context.Context, caller domain.Identity, code, email string) (domain.Report, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		email = domain.NormalizeEmail(caller.Email)
	}
	if !caller.IsAdmin() && email != domain.NormalizeEmail(caller.Email) {
		return domain.Report{}, domain.ErrForbidden
	}

	code = domain.NormalizeCode(code)
	quiz, err := s.quizzes.GetQuiz(ctx, code)
	if err != nil {
		return domain.Report{}, err
	}
	submission, err := s.store.GetSubmission(ctx, code, email)
	if err != nil {
		return domain.Report{}, err
	}
	return BuildReport(quiz, submission), nil
}

// BuildReport packages a finalized submission for document formatters.
func BuildReport(quiz domain.Quiz, submission domain.Submission) domain.Report {
	return domain.Report{
		Score:          submission.Score,
		TotalQuestions: len(quiz.Questions),
		Details:        submission.SelectedAnswers,
		CallerName:     submission.Name,
		CallerEmail:    submission.Email,
		QuizTitle:      quiz.Title,
	}
}

// PublicQuestions strips correct options from questions.
func PublicQuestions(questions []domain.Question) []PublicQuestion {
	out := make([]PublicQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, PublicQuestion{Text: q.Text, Options: q.Options})
	}
	return out
}
