package domain

import (
	"fmt"
	"strings"
	"time"
)

// Unanswered is recorded for questions the user never selected an option for.
const Unanswered = "unanswered"

// Role gates admin-only actions.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the caller as decoded from the bearer credential.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Question models an MCQ question whose correct option is one of its options.
type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correctOption"`
}

// HasOption reports whether option is one of the question's options.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Quiz is a timed collection of questions plus its append-only submissions.
type Quiz struct {
	Code            string       `json:"code"`
	Title           string       `json:"title"`
	Questions       []Question   `json:"questions"`
	DurationMinutes int          `json:"durationMinutes"`
	Submissions     []Submission `json:"submissions,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// Duration is the time allowed for one attempt.
func (q Quiz) Duration() time.Duration {
	return time.Duration(q.DurationMinutes) * time.Minute
}

// Definition returns the quiz without its submissions.
func (q Quiz) Definition() Quiz {
	q.Submissions = nil
	return q
}

// Validate checks the invariants a new quiz must satisfy.
func (q Quiz) Validate() error {
	if NormalizeCode(q.Code) == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidQuiz)
	}
	if strings.TrimSpace(q.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidQuiz)
	}
	if q.DurationMinutes <= 0 {
		return fmt.Errorf("%w: durationMinutes must be positive", ErrInvalidQuiz)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrInvalidQuiz)
	}
	for i, question := range q.Questions {
		if len(question.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", ErrInvalidQuiz, i)
		}
		if !question.HasOption(question.CorrectOption) {
			return fmt.Errorf("%w: question %d correct option is not one of its options", ErrInvalidQuiz, i)
		}
	}
	return nil
}

// AnswerDetail is one row of the detail list: what was picked versus what was right.
type AnswerDetail struct {
	QuestionText   string `json:"questionText"`
	SelectedOption string `json:"selectedOption"`
	CorrectAnswer  string `json:"correctAnswer"`
}

func (d AnswerDetail) Correct() bool {
	return d.SelectedOption == d.CorrectAnswer
}

// Submission is the single scored result of a user's attempt.
type Submission struct {
	ID              string         `json:"id"`
	QuizCode        string         `json:"quizCode"`
	Email           string         `json:"email"`
	Name            string         `json:"name"`
	Score           int            `json:"score"`
	SelectedAnswers []AnswerDetail `json:"selectedAnswers"`
	Forced          bool           `json:"forced"`
	SubmittedAt     time.Time      `json:"submittedAt"`
}

// Report is the bundle handed to document formatters.
type Report struct {
	Score          int            `json:"score"`
	TotalQuestions int            `json:"totalQuestions"`
	Details        []AnswerDetail `json:"details"`
	CallerName     string         `json:"callerName"`
	CallerEmail    string         `json:"callerEmail"`
	QuizTitle      string         `json:"quizTitle"`
}

// NormalizeCode trims and lower-cases a human-entered quiz code.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// NormalizeEmail trims and lower-cases an email so lookups match across token issuers.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
