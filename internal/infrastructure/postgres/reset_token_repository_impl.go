package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordveldt/userbase/internal/domain/entity"
	"github.com/nordveldt/userbase/internal/domain/repository"
)

// ResetTokenRepository persists password reset tokens. Rows carry only the
// creation instant; expiry is the reader's cutoff comparison.
type ResetTokenRepository struct {
	pool *pgxpool.Pool
}

func NewResetTokenRepository(pool *pgxpool.Pool) *ResetTokenRepository {
	return &ResetTokenRepository{pool: pool}
}

func (r *ResetTokenRepository) Insert(ctx context.Context, t *entity.ResetToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_reset_tokens (token, user_id, created)
		VALUES ($1, $2, $3)
	`, t.Token, t.UserID, t.Created)
	if err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

func (r *ResetTokenRepository) Exists(ctx context.Context, token string, cutoff time.Time) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_reset_tokens
			WHERE token = $1 AND created > $2
		)
	`, token, cutoff).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("look up reset token: %w", err)
	}
	return ok, nil
}

// UpdateOwnerPassword resolves the owning user inside the statement, so the
// caller never learns the user id from the token. Returns the number of
// users updated: zero means the token matched nobody.
func (r *ResetTokenRepository) UpdateOwnerPassword(ctx context.Context, token, passwordHash string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password = $1, updated = now()
		WHERE id = (SELECT user_id FROM user_reset_tokens WHERE token = $2)
	`, passwordHash, token)
	if err != nil {
		return 0, fmt.Errorf("set owner password: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ResetTokenRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.pool.Exec(ctx, `
		DELETE FROM user_reset_tokens WHERE token = $1
	`, token); err != nil {
		return fmt.Errorf("delete reset token: %w", err)
	}
	return nil
}

func (r *ResetTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM user_reset_tokens WHERE created <= $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired reset tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ repository.ResetTokenRepository = (*ResetTokenRepository)(nil)
