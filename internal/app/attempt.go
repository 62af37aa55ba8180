package app

import (
	"sync"
	"sync/atomic"
	"time"

	"quiz-attempt-service/internal/domain"
)

// AttemptState is the lifecycle of a single timed attempt.
type AttemptState int32

const (
	StateNotStarted AttemptState = iota
	StateInProgress
	StateExpired
	StateSubmitting
	StateSubmitted
)

func (s AttemptState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateExpired:
		return "expired"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Attempt is one user's pass through a quiz. The start time is supplied by the
// caller (loaded from an AnchorStore) and never changes afterwards, so every
// Attempt built from the same anchor computes the same deadline.
type Attempt struct {
	quiz      domain.Quiz
	identity  domain.Identity
	startedAt time.Time
	deadline  time.Time
	now       func() time.Time

	state atomic.Int32

	mu      sync.Mutex
	current int
	answers map[int]string
}

// NewAttempt builds an attempt in the NotStarted state.
func NewAttempt(quiz domain.Quiz, identity domain.Identity, startedAt time.Time, now func() time.Time) *Attempt {
	if now == nil {
		now = time.Now
	}
	return &Attempt{
		quiz:      quiz.Definition(),
		identity:  identity,
		startedAt: startedAt,
		deadline:  startedAt.Add(quiz.Duration()),
		now:       now,
		answers:   make(map[int]string),
	}
}

// Begin moves NotStarted to InProgress, or straight to Expired when the anchor
// is already past its deadline (a resume after the time ran out).
func (a *Attempt) Begin() {
	if !a.state.CompareAndSwap(int32(StateNotStarted), int32(StateInProgress)) {
		return
	}
	if a.Remaining() <= 0 {
		a.state.CompareAndSwap(int32(StateInProgress), int32(StateExpired))
	}
}

func (a *Attempt) State() AttemptState {
	return AttemptState(a.state.Load())
}

func (a *Attempt) Quiz() domain.Quiz {
	return a.quiz
}

func (a *Attempt) Identity() domain.Identity {
	return a.identity
}

func (a *Attempt) StartedAt() time.Time {
	return a.startedAt
}

func (a *Attempt) Deadline() time.Time {
	return a.deadline
}

// Remaining is the time left before the deadline, never negative.
func (a *Attempt) Remaining() time.Duration {
	remaining := a.deadline.Sub(a.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Tick checks the deadline. It reports the remaining time and whether the
// attempt is expired and still waiting for its forced submission.
func (a *Attempt) Tick() (time.Duration, bool) {
	remaining := a.Remaining()
	if remaining <= 0 {
		a.state.CompareAndSwap(int32(StateInProgress), int32(StateExpired))
	}
	return remaining, a.State() == StateExpired
}

// Current returns the index and question the attempt is positioned on.
func (a *Attempt) Current() (int, domain.Question) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current, a.quiz.Questions[a.current]
}

// Select records option as the answer to the current question, replacing any
// previous answer to that question only.
func (a *Attempt) Select(option string) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.quiz.Questions[a.current].HasOption(option) {
		return domain.ErrOptionNotFound
	}
	a.answers[a.current] = option
	return nil
}

// Goto moves to an arbitrary question, keeping every recorded answer.
func (a *Attempt) Goto(index int) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.quiz.Questions) {
		return domain.ErrQuestionNotFound
	}
	a.current = index
	return nil
}

// Next advances one question. It returns true when the attempt was already on
// the last question, which is the caller's cue to submit.
func (a *Attempt) Next() (bool, error) {
	if err := a.checkOpen(); err != nil {
		return false, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == len(a.quiz.Questions)-1 {
		return true, nil
	}
	a.current++
	return false, nil
}

// record stores an answer for any question while the attempt is not yet being
// submitted, regardless of the deadline.
func (a *Attempt) record(index int, option string) error {
	switch a.State() {
	case StateInProgress, StateExpired:
	case StateNotStarted:
		return domain.ErrAttemptNotStarted
	default:
		return domain.ErrAttemptClosed
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.quiz.Questions) {
		return domain.ErrQuestionNotFound
	}
	if !a.quiz.Questions[index].HasOption(option) {
		return domain.ErrOptionNotFound
	}
	a.answers[index] = option
	return nil
}

// Answers returns a copy of the recorded answers.
func (a *Attempt) Answers() map[int]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[int]string, len(a.answers))
	for k, v := range a.answers {
		out[k] = v
	}
	return out
}

// beginSubmit is the one-shot latch: exactly one caller moves the attempt into
// Submitting. forced reports whether the deadline had passed. prev is the state
// to restore if the write fails.
func (a *Attempt) beginSubmit() (forced bool, prev AttemptState, err error) {
	if a.Remaining() <= 0 {
		a.state.CompareAndSwap(int32(StateInProgress), int32(StateExpired))
	}
	if a.state.CompareAndSwap(int32(StateInProgress), int32(StateSubmitting)) {
		return false, StateInProgress, nil
	}
	if a.state.CompareAndSwap(int32(StateExpired), int32(StateSubmitting)) {
		return true, StateExpired, nil
	}
	switch a.State() {
	case StateNotStarted:
		return false, 0, domain.ErrAttemptNotStarted
	case StateSubmitting:
		return false, 0, domain.ErrSubmitInFlight
	default:
		return false, 0, domain.ErrAlreadySubmitted
	}
}

func (a *Attempt) completeSubmit() {
	a.state.CompareAndSwap(int32(StateSubmitting), int32(StateSubmitted))
}

func (a *Attempt) abortSubmit(prev AttemptState) {
	a.state.CompareAndSwap(int32(StateSubmitting), int32(prev))
}

func (a *Attempt) checkOpen() error {
	switch a.State() {
	case StateNotStarted:
		return domain.ErrAttemptNotStarted
	case StateInProgress:
		if a.Remaining() > 0 {
			return nil
		}
		a.state.CompareAndSwap(int32(StateInProgress), int32(StateExpired))
		return domain.ErrAttemptClosed
	default:
		return domain.ErrAttemptClosed
	}
}
