package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// GetTier returns the stored subscription tier of a user. Unrecognized plan
// values read as free.
func (r *UserRepositoryPG) GetTier(ctx context.Context, userID string) (domain.Tier, error) {
	var plan string
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectUserTier, userID).Scan(&plan); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("select user tier: %w", err)
	}
	return domain.ParseTier(plan), nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
