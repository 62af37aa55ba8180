package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-attempt-service/internal/domain"
)

// QuizStore is the durable quiz record store. Questions and per-question
// answer details are kept as JSONB; the unique (quiz_code, email) constraint
// on submissions is the authoritative at-most-once guarantee.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) LoadQuiz(ctx context.Context, code string) (domain.Quiz, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT code, title, duration_minutes, questions, created_at FROM quizzes WHERE code=$1`,
		domain.NormalizeCode(code))
	quiz, err := scanQuiz(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}

func (s *QuizStore) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT code, title, duration_minutes, questions, created_at FROM quizzes ORDER BY created_at, code`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var out []domain.Quiz
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		out = append(out, quiz)
	}
	return out, rows.Err()
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	createdAt := quiz.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO quizzes (code, title, duration_minutes, questions, created_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5)
		 ON CONFLICT (code) DO NOTHING`,
		domain.NormalizeCode(quiz.Code), quiz.Title, quiz.DurationMinutes, string(questions), createdAt)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizExists
	}
	return nil
}

func (s *QuizStore) DeleteQuiz(ctx context.Context, code string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE code=$1`, domain.NormalizeCode(code))
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

// AddSubmission inserts a submission unless one already exists for the
// (quiz_code, email) pair, in which case domain.ErrAlreadySubmitted is returned.
func (s *QuizStore) AddSubmission(ctx context.Context, submission domain.Submission) error {
	answers, err := json.Marshal(submission.SelectedAnswers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	code := domain.NormalizeCode(submission.QuizCode)
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quizzes WHERE code=$1)`, code).Scan(&exists); err != nil {
		return fmt.Errorf("check quiz: %w", err)
	}
	if !exists {
		return domain.ErrQuizNotFound
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO submissions (id, quiz_code, email, name, score, selected_answers, forced, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)
		 ON CONFLICT (quiz_code, email) DO NOTHING`,
		submission.ID, code, domain.NormalizeEmail(submission.Email), submission.Name,
		submission.Score, string(answers), submission.Forced, submission.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadySubmitted
	}
	return tx.Commit(ctx)
}

func (s *QuizStore) GetSubmission(ctx context.Context, code, email string) (domain.Submission, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, quiz_code, email, name, score, selected_answers, forced, submitted_at
		 FROM submissions WHERE quiz_code=$1 AND email=$2`,
		domain.NormalizeCode(code), domain.NormalizeEmail(email))
	submission, err := scanSubmission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load submission: %w", err)
	}
	return submission, nil
}

func (s *QuizStore) ListSubmissions(ctx context.Context, code string) ([]domain.Submission, error) {
	query := `SELECT id, quiz_code, email, name, score, selected_answers, forced, submitted_at
		 FROM submissions`
	var args []interface{}
	if code != "" {
		query += ` WHERE quiz_code=$1`
		args = append(args, domain.NormalizeCode(code))
	}
	query += ` ORDER BY submitted_at, email`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, submission)
	}
	return out, rows.Err()
}

func scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var (
		quiz domain.Quiz
		raw  []byte
	)
	if err := row.Scan(&quiz.Code, &quiz.Title, &quiz.DurationMinutes, &raw, &quiz.CreatedAt); err != nil {
		return domain.Quiz{}, err
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	return quiz, nil
}

func scanSubmission(row pgx.Row) (domain.Submission, error) {
	var (
		submission domain.Submission
		raw        []byte
	)
	if err := row.Scan(&submission.ID, &submission.QuizCode, &submission.Email, &submission.Name,
		&submission.Score, &raw, &submission.Forced, &submission.SubmittedAt); err != nil {
		return domain.Submission{}, err
	}
	if err := json.Unmarshal(raw, &submission.SelectedAnswers); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal answers: %w", err)
	}
	return submission, nil
}
