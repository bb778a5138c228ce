package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mafiamadness/internal/models"

	"github.com/google/uuid"
)

// MockGameRepository is an in-memory implementation of GameRepository.
type MockGameRepository struct {
	games map[string]models.Game
	order []string
	mu    sync.RWMutex
}

// NewMockGameRepository creates a new instance of MockGameRepository.
func NewMockGameRepository() *MockGameRepository {
	return &MockGameRepository{
		games: make(map[string]models.Game),
	}
}

// GetAll returns all games in insertion order.
func (r *MockGameRepository) GetAll(_ context.Context) ([]models.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gameList := make([]models.Game, 0, len(r.order))
	for _, id := range r.order {
		gameList = append(gameList, r.games[id].Clone())
	}
	return gameList, nil
}

// GetByID returns a game by its ID.
func (r *MockGameRepository) GetByID(_ context.Context, id string) (*models.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	game, ok := r.games[id]
	if !ok {
		return nil, fmt.Errorf("game with ID %s: %w", id, models.ErrRecordNotFound)
	}
	game = game.Clone()
	return &game, nil
}

// Create adds a new game.
func (r *MockGameRepository) Create(_ context.Context, game *models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if game.ID == "" {
		game.ID = uuid.New().String()
	}
	now := time.Now()
	if game.CreatedAt.IsZero() {
		game.CreatedAt = now
	}
	game.UpdatedAt = now
	*game = game.Clone()
	r.games[game.ID] = game.Clone()
	r.order = append(r.order, game.ID)
	return nil
}

// Save replaces an existing game.
func (r *MockGameRepository) Save(_ context.Context, game *models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.games[game.ID]; !ok {
		return fmt.Errorf("game with ID %s not saved: %w", game.ID, models.ErrRecordNotFound)
	}
	game.UpdatedAt = time.Now()
	r.games[game.ID] = game.Clone()
	return nil
}

// Delete removes a game by its ID.
func (r *MockGameRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.games[id]; !ok {
		return fmt.Errorf("game with ID %s not deleted: %w", id, models.ErrRecordNotFound)
	}
	delete(r.games, id)
	r.order = removeID(r.order, id)
	return nil
}
