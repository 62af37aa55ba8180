package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingStore counts submission writes and can be told to fail them.
type countingStore struct {
	*memory.QuizStore

	mu      sync.Mutex
	writes  int
	failErr error
}

func (s *countingStore) AddSubmission(ctx context.Context, submission domain.Submission) error {
	s.mu.Lock()
	s.writes++
	failErr := s.failErr
	s.mu.Unlock()
	if failErr != nil {
		return failErr
	}
	return s.QuizStore.AddSubmission(ctx, submission)
}

func (s *countingStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *countingStore) FailWith(err error) {
	s.mu.Lock()
	s.failErr = err
	s.mu.Unlock()
}

type fixture struct {
	clock   *fakeClock
	store   *countingStore
	anchors *memory.AnchorStore
	gate    *app.SubmissionGate
	service *app.QuizService
}

var t0 = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

const lateTolerance = 5 * time.Second

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newFakeClock(t0)
	store := &countingStore{QuizStore: memory.NewQuizStore(abcQuiz(), oneMinuteQuiz())}
	repo := memory.NewQuizRepository(store, time.Minute)
	anchors := memory.NewAnchorStore()
	return &fixture{
		clock:   clock,
		store:   store,
		anchors: anchors,
		gate:    app.NewSubmissionGateWithClock(store, repo, anchors, lateTolerance, nil, clock.Now),
		service: app.NewQuizService(store, repo, nil),
	}
}

// abcQuiz has correct options A, C, B.
func abcQuiz() domain.Quiz {
	return domain.Quiz{
		Code:            "abc",
		Title:           "Letters",
		DurationMinutes: 10,
		Questions: []domain.Question{
			{Text: "first", Options: []string{"A", "B", "C", "X"}, CorrectOption: "A"},
			{Text: "second", Options: []string{"A", "B", "C", "X"}, CorrectOption: "C"},
			{Text: "third", Options: []string{"A", "B", "C", "X"}, CorrectOption: "B"},
		},
	}
}

func oneMinuteQuiz() domain.Quiz {
	return domain.Quiz{
		Code:            "sprint",
		Title:           "Sprint",
		DurationMinutes: 1,
		Questions: []domain.Question{
			{Text: "q1", Options: []string{"yes", "no"}, CorrectOption: "yes"},
			{Text: "q2", Options: []string{"yes", "no"}, CorrectOption: "no"},
		},
	}
}

var (
	alice = domain.Identity{Email: "alice@example.com", Name: "Alice", Role: domain.RoleUser}
	bob   = domain.Identity{Email: "bob@example.com", Name: "Bob", Role: domain.RoleUser}
	admin = domain.Identity{Email: "root@example.com", Name: "Admin", Role: domain.RoleAdmin}
)
