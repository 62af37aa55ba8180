package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// QuizStore is an in-memory quiz record store (useful for tests/demos).
// Submissions are keyed by (code, email) so a second write is rejected the
// same way the Postgres unique index rejects it.
type QuizStore struct {
	mu          sync.RWMutex
	quizzes     map[string]domain.Quiz
	submissions map[string]map[string]domain.Submission
}

func NewQuizStore(seed ...domain.Quiz) *QuizStore {
	s := &QuizStore{
		quizzes:     make(map[string]domain.Quiz),
		submissions: make(map[string]map[string]domain.Submission),
	}
	for _, quiz := range seed {
		_ = s.CreateQuiz(context.Background(), quiz)
	}
	return s
}

func (s *QuizStore) LoadQuiz(_ context.Context, code string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[domain.NormalizeCode(code)]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *QuizStore) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		out = append(out, quiz)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *QuizStore) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz.Code = domain.NormalizeCode(quiz.Code)
	if _, ok := s.quizzes[quiz.Code]; ok {
		return domain.ErrQuizExists
	}
	s.quizzes[quiz.Code] = quiz.Definition()
	s.submissions[quiz.Code] = make(map[string]domain.Submission)
	return nil
}

func (s *QuizStore) DeleteQuiz(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	code = domain.NormalizeCode(code)
	if _, ok := s.quizzes[code]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, code)
	delete(s.submissions, code)
	return nil
}

func (s *QuizStore) AddSubmission(_ context.Context, submission domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byEmail, ok := s.submissions[domain.NormalizeCode(submission.QuizCode)]
	if !ok {
		return domain.ErrQuizNotFound
	}
	email := domain.NormalizeEmail(submission.Email)
	if _, exists := byEmail[email]; exists {
		return domain.ErrAlreadySubmitted
	}
	submission.Email = email
	byEmail[email] = submission
	return nil
}

func (s *QuizStore) GetSubmission(_ context.Context, code, email string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byEmail, ok := s.submissions[domain.NormalizeCode(code)]
	if !ok {
		return domain.Submission{}, domain.ErrQuizNotFound
	}
	submission, ok := byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return submission, nil
}

func (s *QuizStore) ListSubmissions(_ context.Context, code string) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Submission
	if code == "" {
		for _, byEmail := range s.submissions {
			for _, submission := range byEmail {
				out = append(out, submission)
			}
		}
	} else {
		byEmail, ok := s.submissions[domain.NormalizeCode(code)]
		if !ok {
			return nil, domain.ErrQuizNotFound
		}
		for _, submission := range byEmail {
			out = append(out, submission)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}
