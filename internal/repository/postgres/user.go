package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pixelplay/notify-api/internal/model"
	"github.com/pixelplay/notify-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, email, name, role, status, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// ListAdminIDs is an id-only projection over active admins, enough for
// fan-out addressing without dragging full user rows across the wire.
func (r *userRepository) ListAdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM users
		WHERE role = $1 AND status = $2
	`

	ids := []uuid.UUID{}
	if err := r.db.SelectContext(ctx, &ids, query, model.RoleAdmin, model.UserStatusActive); err != nil {
		return nil, fmt.Errorf("failed to list admin IDs: %w", err)
	}

	return ids, nil
}
