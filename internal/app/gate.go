package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"quiz-attempt-service/internal/domain"
)

// Entry is the outcome of opening a quiz: either a live attempt or the
// caller's stored submission. Exactly one of Attempt and Prior is set.
// Finalized reports that Prior was forced by this Open because the attempt
// was resumed past its deadline and tolerance.
type Entry struct {
	Attempt   *Attempt
	Prior     *domain.Submission
	Finalized bool
}

// SubmissionGate guarantees at most one submission per (quiz, email).
// Answers arriving later than deadline+lateTolerance are never scored.
type SubmissionGate struct {
	store         QuizStore
	quizzes       QuizRepository
	anchors       AnchorStore
	lateTolerance time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

func NewSubmissionGate(store QuizStore, quizzes QuizRepository, anchors AnchorStore, lateTolerance time.Duration, logger *slog.Logger) *SubmissionGate {
	return NewSubmissionGateWithClock(store, quizzes, anchors, lateTolerance, logger, time.Now)
}

// NewSubmissionGateWithClock allows deterministic timestamps in tests.
func NewSubmissionGateWithClock(store QuizStore, quizzes QuizRepository, anchors AnchorStore, lateTolerance time.Duration, logger *slog.Logger, now func() time.Time) *SubmissionGate {
	if logger == nil {
		logger = slog.Default()
	}
	if lateTolerance < 0 {
		lateTolerance = 0
	}
	return &SubmissionGate{
		store:         store,
		quizzes:       quizzes,
		anchors:       anchors,
		lateTolerance: lateTolerance,
		logger:        logger,
		now:           now,
	}
}

// Open looks up the caller's prior submission and, if there is none, starts or
// resumes the attempt from the persisted start anchor. A failed lookup is an
// error rather than "no prior submission". An attempt resumed past its
// deadline and tolerance is submitted on the spot with no answers.
func (g *SubmissionGate) Open(ctx context.Context, code string, caller domain.Identity) (Entry, error) {
	code = domain.NormalizeCode(code)
	caller.Email = domain.NormalizeEmail(caller.Email)
	if caller.Email == "" {
		return Entry{}, domain.ErrUnauthorized
	}

	quiz, err := g.quizzes.GetQuiz(ctx, code)
	if err != nil {
		return Entry{}, err
	}
	if len(quiz.Questions) == 0 || quiz.DurationMinutes <= 0 {
		return Entry{}, fmt.Errorf("%w: quiz %q cannot be attempted", domain.ErrInvalidQuiz, code)
	}

	prior, err := g.store.GetSubmission(ctx, code, caller.Email)
	if err == nil {
		return Entry{Prior: &prior}, nil
	}
	if !errors.Is(err, domain.ErrSubmissionNotFound) {
		return Entry{}, fmt.Errorf("lookup prior submission: %w", err)
	}

	startedAt, err := g.anchors.Anchor(ctx, code, caller.Email, g.now())
	if err != nil {
		return Entry{}, fmt.Errorf("load start anchor: %w", err)
	}

	attempt := NewAttempt(quiz, caller, startedAt, g.now)
	attempt.Begin()
	if !g.pastTolerance(attempt) {
		return Entry{Attempt: attempt}, nil
	}

	g.logger.Info("attempt resumed after deadline", "code", code, "email", caller.Email, "deadline", attempt.Deadline())
	submission, err := g.Submit(ctx, attempt)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Prior: &submission, Finalized: true}, nil
}

// pastTolerance reports whether answers for attempt would arrive too late to count.
func (g *SubmissionGate) pastTolerance(attempt *Attempt) bool {
	return g.now().After(attempt.Deadline().Add(g.lateTolerance))
}

// Submit scores the attempt and writes it once. Concurrent triggers (the
// deadline tick and a user action) race on the attempt latch; losers get
// ErrSubmitInFlight or ErrAlreadySubmitted. A duplicate rejected by the store
// is answered with the stored submission.
func (g *SubmissionGate) Submit(ctx context.Context, attempt *Attempt) (domain.Submission, error) {
	forced, prev, err := attempt.beginSubmit()
	if err != nil {
		return domain.Submission{}, err
	}

	quiz := attempt.Quiz()
	caller := attempt.Identity()
	score, details := Score(quiz.Questions, attempt.Answers())
	submission := domain.Submission{
		ID:              uuid.NewString(),
		QuizCode:        quiz.Code,
		Email:           caller.Email,
		Name:            caller.Name,
		Score:           score,
		SelectedAnswers: details,
		Forced:          forced,
		SubmittedAt:     g.now().UTC(),
	}

	err = g.store.AddSubmission(ctx, submission)
	if errors.Is(err, domain.ErrAlreadySubmitted) {
		stored, lookupErr := g.store.GetSubmission(ctx, quiz.Code, caller.Email)
		if lookupErr != nil {
			attempt.abortSubmit(prev)
			return domain.Submission{}, fmt.Errorf("load stored submission: %w", lookupErr)
		}
		g.logger.Warn("duplicate submission ignored", "code", quiz.Code, "email", caller.Email)
		submission, err = stored, nil
	}
	if err != nil {
		attempt.abortSubmit(prev)
		g.logger.Error("submission write failed", "code", quiz.Code, "email", caller.Email, "forced", forced, "err", err)
		return domain.Submission{}, fmt.Errorf("store submission: %w", err)
	}

	attempt.completeSubmit()
	if err := g.anchors.Clear(ctx, quiz.Code, caller.Email); err != nil {
		g.logger.Warn("clear start anchor", "code", quiz.Code, "email", caller.Email, "err", err)
	}
	g.logger.Info("quiz submitted", "code", quiz.Code, "email", caller.Email, "score", submission.Score, "forced", submission.Forced)
	return submission, nil
}

// SubmitAnswers replays a full answer set into a freshly opened attempt and
// submits it. It serves clients that keep answers locally and post them once.
// Answers posted within the tolerance after the deadline are kept and the
// submission is forced; later than that they are dropped.
func (g *SubmissionGate) SubmitAnswers(ctx context.Context, code string, caller domain.Identity, answers map[int]string) (domain.Submission, error) {
	entry, err := g.Open(ctx, code, caller)
	if err != nil {
		return domain.Submission{}, err
	}
	if entry.Finalized {
		g.logger.Warn("late answers dropped", "code", entry.Prior.QuizCode, "email", entry.Prior.Email, "answers", len(answers))
		return *entry.Prior, nil
	}
	if entry.Prior != nil {
		return *entry.Prior, domain.ErrAlreadySubmitted
	}

	attempt := entry.Attempt
	if g.pastTolerance(attempt) {
		g.logger.Warn("late answers dropped", "code", attempt.Quiz().Code, "email", caller.Email, "answers", len(answers))
		return g.Submit(ctx, attempt)
	}
	for index, option := range answers {
		if err := attempt.record(index, option); err != nil {
			return domain.Submission{}, err
		}
	}
	return g.Submit(ctx, attempt)
}
