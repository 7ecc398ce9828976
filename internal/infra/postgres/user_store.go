package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"codequest-service/internal/domain"
)

// UserStore persists user achievement state. Badges and certificates
// live in their own tables with composite primary keys; appends use
// INSERT ... ON CONFLICT DO NOTHING so duplicate awards are impossible
// regardless of how many submissions race.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) GetUser(ctx context.Context, userID string) (domain.User, error) {
	var (
		u     domain.User
		roles []string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, email, first_name, last_name, roles,
		       current_streak, longest_streak, last_active_date
		FROM users WHERE id = $1`, userID).
		Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &roles,
			&u.CurrentStreak, &u.LongestStreak, &u.LastActiveDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	for _, r := range roles {
		u.Roles = append(u.Roles, domain.Role(r))
	}

	if u.Badges, err = s.badges(ctx, userID); err != nil {
		return domain.User{}, err
	}
	if u.Certificates, err = s.certificates(ctx, userID); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *UserStore) badges(ctx context.Context, userID string) ([]domain.Badge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT language_id, level, earned_at FROM badges
		WHERE user_id = $1 ORDER BY earned_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("load badges: %w", err)
	}
	defer rows.Close()

	var badges []domain.Badge
	for rows.Next() {
		var b domain.Badge
		if err := rows.Scan(&b.LanguageID, &b.Level, &b.EarnedAt); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

func (s *UserStore) certificates(ctx context.Context, userID string) ([]domain.Certificate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT language_id, url, earned_at FROM certificates
		WHERE user_id = $1 ORDER BY earned_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("load certificates: %w", err)
	}
	defer rows.Close()

	var certs []domain.Certificate
	for rows.Next() {
		var c domain.Certificate
		if err := rows.Scan(&c.LanguageID, &c.URL, &c.EarnedAt); err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}

func (s *UserStore) UpdateStreak(ctx context.Context, userID string, current, longest int, lastActive time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET current_streak = $2,
		    longest_streak = GREATEST(longest_streak, $3),
		    last_active_date = $4
		WHERE id = $1`, userID, current, longest, lastActive)
	if err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) AddBadge(ctx context.Context, userID string, badge domain.Badge) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO badges (user_id, language_id, level, earned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, language_id, level) DO NOTHING`,
		userID, badge.LanguageID, badge.Level, badge.EarnedAt)
	if err != nil {
		return false, fmt.Errorf("insert badge: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *UserStore) AddCertificate(ctx context.Context, userID string, cert domain.Certificate) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO certificates (user_id, language_id, url, earned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, language_id) DO NOTHING`,
		userID, cert.LanguageID, cert.URL, cert.EarnedAt)
	if err != nil {
		return false, fmt.Errorf("insert certificate: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
