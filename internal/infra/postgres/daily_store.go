package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// DailyStore pins one question per calendar date. The insert is
// conditional on the date's primary key, so concurrent first requests
// of the day agree on a single winner.
type DailyStore struct {
	pool *pgxpool.Pool
}

func NewDailyStore(pool *pgxpool.Pool) *DailyStore {
	return &DailyStore{pool: pool}
}

func (s *DailyStore) PinDaily(ctx context.Context, date, questionID string) (string, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO daily_questions (pick_date, question_id)
		VALUES ($1, $2)
		ON CONFLICT (pick_date) DO NOTHING`, date, questionID)
	if err != nil {
		return "", fmt.Errorf("pin daily question: %w", err)
	}

	var winner string
	err = s.pool.QueryRow(ctx,
		`SELECT question_id FROM daily_questions WHERE pick_date = $1`, date).Scan(&winner)
	if err != nil {
		return "", fmt.Errorf("load daily question: %w", err)
	}
	return winner, nil
}
