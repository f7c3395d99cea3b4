package store

import (
	"context"

	"kosfinder/internal/user/models"
)

// Store persists user accounts. Implementations return
// sentinel.ErrNotFound for missing rows and sentinel.ErrConflict when the
// email uniqueness constraint rejects an insert.
type Store interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	ListAll(ctx context.Context) ([]*models.User, error)
}
