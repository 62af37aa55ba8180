package http

import (
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

type createQuizRequest struct {
	Code            string            `json:"code"`
	Title           string            `json:"title"`
	DurationMinutes int               `json:"durationMinutes"`
	Questions       []domain.Question `json:"questions"`
}

type submitRequest struct {
	// Answers maps question index to the selected option.
	Answers map[int]string `json:"answers"`
}

// attemptResponse is returned when an attempt is started or resumed. When the
// caller already submitted, only Submission is set.
type attemptResponse struct {
	Code            string               `json:"code"`
	Title           string               `json:"title,omitempty"`
	State           string               `json:"state"`
	StartedAt       *time.Time           `json:"startedAt,omitempty"`
	Deadline        *time.Time           `json:"deadline,omitempty"`
	RemainingMillis int64                `json:"remainingMs"`
	Questions       []app.PublicQuestion `json:"questions,omitempty"`
	Submission      *domain.Submission   `json:"submission,omitempty"`
}

func toAttemptResponse(code string, entry app.Entry) attemptResponse {
	if entry.Prior != nil {
		return attemptResponse{
			Code:       code,
			State:      app.StateSubmitted.String(),
			Submission: entry.Prior,
		}
	}
	attempt := entry.Attempt
	quiz := attempt.Quiz()
	startedAt := attempt.StartedAt()
	deadline := attempt.Deadline()
	return attemptResponse{
		Code:            quiz.Code,
		Title:           quiz.Title,
		State:           attempt.State().String(),
		StartedAt:       &startedAt,
		Deadline:        &deadline,
		RemainingMillis: attempt.Remaining().Milliseconds(),
		Questions:       app.PublicQuestions(quiz.Questions),
	}
}
