package repositories

import (
	"context"

	"mafiamadness/internal/models"
)

// UserRepository defines the interface for user data access.
// Lookups that miss return an error wrapping models.ErrRecordNotFound.
type UserRepository interface {
	GetAll(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByGame returns every user whose back-reference sequence for rel contains gameID.
	FindByGame(ctx context.Context, gameID string, rel models.GameRelation) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}
