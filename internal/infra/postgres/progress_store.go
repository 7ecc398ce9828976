package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"codequest-service/internal/app"
	"codequest-service/internal/domain"
)

// ProgressStore persists the attempt ledger. Attempt bookkeeping is an
// upsert; the first-success transition is a separate conditional UPDATE
// guarded by "status <> 'COMPLETED'", which is what makes the point
// award at-most-once under concurrent submissions.
type ProgressStore struct {
	pool *pgxpool.Pool
}

func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

func (s *ProgressStore) RecordAttempt(ctx context.Context, attempt app.Attempt) (domain.Progress, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Progress{}, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO progress (user_id, question_id, language_id, difficulty, question_type,
		                      status, attempts, last_attempted, selected_option, code_solution, is_correct)
		VALUES ($1, $2, $3, $4, $5, 'IN_PROGRESS', 1, $6, $7, $8, $9)
		ON CONFLICT (user_id, question_id) DO UPDATE SET
			attempts        = progress.attempts + 1,
			last_attempted  = EXCLUDED.last_attempted,
			selected_option = EXCLUDED.selected_option,
			code_solution   = EXCLUDED.code_solution,
			is_correct      = EXCLUDED.is_correct`,
		attempt.UserID, attempt.QuestionID, attempt.LanguageID, attempt.Difficulty, attempt.Type,
		attempt.At, attempt.SelectedOption, attempt.Code, attempt.IsCorrect)
	if err != nil {
		return domain.Progress{}, false, fmt.Errorf("upsert attempt: %w", err)
	}

	newlyCompleted := false
	if attempt.IsCorrect {
		tag, err := tx.Exec(ctx, `
			UPDATE progress
			SET status = 'COMPLETED', completed_at = $3, points_earned = $4
			WHERE user_id = $1 AND question_id = $2 AND status <> 'COMPLETED'`,
			attempt.UserID, attempt.QuestionID, attempt.At, attempt.Points)
		if err != nil {
			return domain.Progress{}, false, fmt.Errorf("complete attempt: %w", err)
		}
		newlyCompleted = tag.RowsAffected() == 1
	}

	record, err := scanProgress(tx.QueryRow(ctx,
		progressSelect+` WHERE user_id = $1 AND question_id = $2`,
		attempt.UserID, attempt.QuestionID))
	if err != nil {
		return domain.Progress{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Progress{}, false, fmt.Errorf("commit: %w", err)
	}
	return record, newlyCompleted, nil
}

const progressSelect = `
	SELECT user_id, question_id, language_id, difficulty, question_type, status,
	       attempts, last_attempted, completed_at, selected_option, code_solution,
	       is_correct, points_earned
	FROM progress`

func scanProgress(row pgx.Row) (domain.Progress, error) {
	var p domain.Progress
	err := row.Scan(&p.UserID, &p.QuestionID, &p.LanguageID, &p.Difficulty, &p.Type, &p.Status,
		&p.Attempts, &p.LastAttempted, &p.CompletedAt, &p.SelectedOption, &p.CodeSolution,
		&p.IsCorrect, &p.PointsEarned)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Progress{}, fmt.Errorf("progress row vanished: %w", err)
	}
	if err != nil {
		return domain.Progress{}, fmt.Errorf("scan progress: %w", err)
	}
	return p, nil
}

func (s *ProgressStore) CountCompleted(ctx context.Context, userID, languageID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM progress
		WHERE user_id = $1 AND language_id = $2 AND status = 'COMPLETED' AND is_correct`,
		userID, languageID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed: %w", err)
	}
	return count, nil
}

func (s *ProgressStore) ListByUser(ctx context.Context, userID string) ([]domain.Progress, error) {
	rows, err := s.pool.Query(ctx,
		progressSelect+` WHERE user_id = $1 ORDER BY last_attempted DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var records []domain.Progress
	for rows.Next() {
		record, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
