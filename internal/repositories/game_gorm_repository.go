package repositories

import (
	"context"
	"errors"
	"fmt"

	"mafiamadness/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMGameRepository is a GORM implementation of GameRepository.
type GORMGameRepository struct {
	db *gorm.DB
}

// NewGORMGameRepository creates a new instance of GORMGameRepository.
func NewGORMGameRepository(db *gorm.DB) *GORMGameRepository {
	return &GORMGameRepository{
		db: db,
	}
}

// GetAll retrieves all games from the database.
func (r *GORMGameRepository) GetAll(ctx context.Context) ([]models.Game, error) {
	var records []gameRecord
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get all games: %w", err)
	}
	games := make([]models.Game, 0, len(records))
	for _, rec := range records {
		games = append(games, rec.toDomain())
	}
	return games, nil
}

// GetByID retrieves a single game by its ID from the database.
func (r *GORMGameRepository) GetByID(ctx context.Context, id string) (*models.Game, error) {
	var rec gameRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("game with ID %s: %w", id, models.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get game by ID %s: %w", id, err)
	}
	game := rec.toDomain()
	return &game, nil
}

// Create creates a new game in the database.
func (r *GORMGameRepository) Create(ctx context.Context, game *models.Game) error {
	if game.ID == "" {
		game.ID = uuid.New().String()
	}
	rec := newGameRecord(game)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create game: %w", translateGormError(err))
	}
	*game = rec.toDomain()
	return nil
}

// Save updates an existing game in the database.
func (r *GORMGameRepository) Save(ctx context.Context, game *models.Game) error {
	rec := newGameRecord(game)
	res := r.db.WithContext(ctx).Model(&rec).Select("*").Updates(&rec)
	if res.Error != nil {
		return fmt.Errorf("failed to update game: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("game with ID %s not found for update: %w", game.ID, models.ErrRecordNotFound)
	}
	game.UpdatedAt = rec.UpdatedAt
	return nil
}

// Delete deletes a game by its ID from the database.
func (r *GORMGameRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&gameRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete game: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("game with ID %s not found for deletion: %w", id, models.ErrRecordNotFound)
	}
	return nil
}
