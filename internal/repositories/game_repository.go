package repositories

import (
	"context"

	"mafiamadness/internal/models"
)

// GameRepository defines the interface for game data access.
type GameRepository interface {
	GetAll(ctx context.Context) ([]models.Game, error)
	GetByID(ctx context.Context, id string) (*models.Game, error)
	Create(ctx context.Context, game *models.Game) error
	Save(ctx context.Context, game *models.Game) error
	Delete(ctx context.Context, id string) error
}
