package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"timed-quiz-service/internal/domain"
)

const attemptColumns = `id, owner_id, questions, answers, score, created_at, finalized_at`

// AttemptStore persists attempts in Postgres with questions and answers as JSONB.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) Create(ctx context.Context, attempt domain.Attempt) error {
	questions, err := json.Marshal(attempt.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	answers, err := encodeAnswers(attempt.Answers)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO attempts (id, owner_id, questions, answers, score, created_at)
		 VALUES ($1, $2, $3::jsonb, $4::jsonb, $5, $6)`,
		attempt.ID, attempt.OwnerID, string(questions), answers, attempt.Score, attempt.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert attempt: %v", domain.ErrPersistence, err)
	}
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, id, ownerID string) (domain.Attempt, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = $1 AND owner_id = $2`, id, ownerID)
	attempt, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("%w: load attempt: %v", domain.ErrPersistence, err)
	}
	return attempt, nil
}

func (s *AttemptStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list attempts: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	attempts := make([]domain.Attempt, 0)
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan attempt: %v", domain.ErrPersistence, err)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list attempts: %v", domain.ErrPersistence, err)
	}
	return attempts, nil
}

// Finalize is a single conditional UPDATE, so answers, score and finalized_at land together
// and only the first finalize for an attempt succeeds.
func (s *AttemptStore) Finalize(ctx context.Context, id, ownerID string, answers domain.AnswerMap, score int, at time.Time) (domain.Attempt, error) {
	encoded, err := encodeAnswers(answers)
	if err != nil {
		return domain.Attempt{}, err
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE attempts SET answers = $3::jsonb, score = $4, finalized_at = $5
		 WHERE id = $1 AND owner_id = $2 AND finalized_at IS NULL
		 RETURNING `+attemptColumns,
		id, ownerID, encoded, score, at)
	attempt, err := scanAttempt(row)
	if err == nil {
		return attempt, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, fmt.Errorf("%w: finalize attempt: %v", domain.ErrPersistence, err)
	}

	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM attempts WHERE id = $1 AND owner_id = $2)`, id, ownerID).Scan(&exists)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("%w: finalize attempt: %v", domain.ErrPersistence, err)
	}
	if !exists {
		return domain.Attempt{}, domain.ErrNotFound
	}
	return domain.Attempt{}, domain.ErrAlreadyFinalized
}

func scanAttempt(row pgx.Row) (domain.Attempt, error) {
	var (
		attempt   domain.Attempt
		questions []byte
		answers   []byte
	)
	if err := row.Scan(
		&attempt.ID,
		&attempt.OwnerID,
		&questions,
		&answers,
		&attempt.Score,
		&attempt.CreatedAt,
		&attempt.FinalizedAt,
	); err != nil {
		return domain.Attempt{}, err
	}
	if err := json.Unmarshal(questions, &attempt.Questions); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	decoded, err := decodeAnswers(answers)
	if err != nil {
		return domain.Attempt{}, err
	}
	attempt.Answers = decoded
	return attempt, nil
}

// Answers are stored as a JSON object keyed by decimal question id, on write and read alike.
func encodeAnswers(answers domain.AnswerMap) (string, error) {
	if answers == nil {
		answers = domain.AnswerMap{}
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("marshal answers: %w", err)
	}
	return string(data), nil
}

func decodeAnswers(raw []byte) (domain.AnswerMap, error) {
	answers := domain.AnswerMap{}
	if len(raw) == 0 {
		return answers, nil
	}
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	return answers, nil
}
