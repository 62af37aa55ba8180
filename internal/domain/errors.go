package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizExists is returned when an admin reuses an existing quiz code.
	ErrQuizExists = errors.New("quiz code already in use")
	// ErrInvalidQuiz wraps validation failures on quiz creation.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrQuestionNotFound indicates a question index outside the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a selected option that the question does not offer.
	ErrOptionNotFound = errors.New("option not found")
	// ErrAlreadySubmitted is returned when a (quiz, email) pair already has a submission.
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	// ErrSubmissionNotFound is returned when no submission exists for a (quiz, email) pair.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrSubmitInFlight is returned when another trigger is already submitting the attempt.
	ErrSubmitInFlight = errors.New("submission already in progress")
	// ErrAttemptNotStarted is returned when acting on an attempt that was never started.
	ErrAttemptNotStarted = errors.New("attempt not started")
	// ErrAttemptClosed is returned when answering after the attempt expired or was submitted.
	ErrAttemptClosed = errors.New("attempt is closed")
	// ErrUnauthorized indicates a missing or invalid bearer credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the caller lacks the role for an action.
	ErrForbidden = errors.New("forbidden")
)
