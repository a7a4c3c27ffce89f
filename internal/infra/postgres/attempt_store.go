package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lms-assessment-service/internal/domain"
)

// AttemptStore persists attempt records as JSONB rows keyed for the
// (quiz, user) lookups the attempt manager needs. Append serializes
// concurrent submissions for one (quiz, user) with a transaction-scoped
// advisory lock, so the count check and the insert are atomic.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) Append(ctx context.Context, rec domain.AttemptRecord, limit int) (domain.AttemptRecord, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))`,
		rec.QuizID, rec.UserID); err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("lock attempts: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id=$1 AND user_id=$2`,
		rec.QuizID, rec.UserID).Scan(&count); err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("count attempts: %w", err)
	}
	if limit > 0 && count >= limit {
		return domain.AttemptRecord{}, domain.ErrAttemptLimitExceeded
	}
	rec.AttemptNumber = count + 1

	raw, err := json.Marshal(rec)
	if err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("marshal attempt: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO quiz_attempts (id, quiz_id, user_id, attempt_number, completed_at, data)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb)`,
		rec.ID, rec.QuizID, rec.UserID, rec.AttemptNumber, rec.CompletedAt, raw); err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("insert attempt: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("commit append: %w", err)
	}
	return rec, nil
}

func (s *AttemptStore) Completed(ctx context.Context, quizID, userID string) ([]domain.AttemptRecord, error) {
	return s.list(ctx,
		`SELECT data FROM quiz_attempts WHERE quiz_id=$1 AND user_id=$2 ORDER BY attempt_number`,
		quizID, userID)
}

func (s *AttemptStore) ListByQuiz(ctx context.Context, quizID string) ([]domain.AttemptRecord, error) {
	return s.list(ctx,
		`SELECT data FROM quiz_attempts WHERE quiz_id=$1 ORDER BY completed_at`,
		quizID)
}

func (s *AttemptStore) ListByUser(ctx context.Context, userID string) ([]domain.AttemptRecord, error) {
	return s.list(ctx,
		`SELECT data FROM quiz_attempts WHERE user_id=$1 ORDER BY completed_at`,
		userID)
}

func (s *AttemptStore) list(ctx context.Context, query string, args ...interface{}) ([]domain.AttemptRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []domain.AttemptRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		var rec domain.AttemptRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal attempt: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (domain.AttemptRecord, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quiz_attempts WHERE id=$1`, attemptID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AttemptRecord{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("get attempt: %w", err)
	}
	var rec domain.AttemptRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return rec, nil
}

func (s *AttemptStore) Update(ctx context.Context, rec domain.AttemptRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE quiz_attempts SET data=$2::jsonb WHERE id=$1`, rec.ID, raw)
	if err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

func (s *AttemptStore) DeleteFor(ctx context.Context, quizID, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM quiz_attempts WHERE quiz_id=$1 AND user_id=$2`, quizID, userID)
	if err != nil {
		return fmt.Errorf("delete attempts: %w", err)
	}
	return nil
}
