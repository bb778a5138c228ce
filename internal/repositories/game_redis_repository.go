package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"mafiamadness/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisGameRepository stores games as JSON strings keyed by ID.
type RedisGameRepository struct {
	client *redis.Client
}

// NewRedisGameRepository creates a Redis-backed GameRepository.
func NewRedisGameRepository(client *redis.Client) *RedisGameRepository {
	return &RedisGameRepository{client: client}
}

func (r *RedisGameRepository) GetAll(ctx context.Context) ([]models.Game, error) {
	ids, err := r.client.SMembers(ctx, gameIDsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list game ids: %w", err)
	}
	if len(ids) == 0 {
		return []models.Game{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = gameKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}

	games := make([]models.Game, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var game models.Game
		if err := json.Unmarshal([]byte(s), &game); err != nil {
			return nil, fmt.Errorf("failed to decode game: %w", err)
		}
		game.Players = nonNil(game.Players)
		games = append(games, game)
	}
	sort.Slice(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].ID < games[j].ID
		}
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})
	return games, nil
}

func (r *RedisGameRepository) GetByID(ctx context.Context, id string) (*models.Game, error) {
	data, err := r.client.Get(ctx, gameKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("game with ID %s: %w", id, models.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get game by ID %s: %w", id, err)
	}

	var game models.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, fmt.Errorf("failed to decode game %s: %w", id, err)
	}
	game.Players = nonNil(game.Players)
	return &game, nil
}

func (r *RedisGameRepository) Create(ctx context.Context, game *models.Game) error {
	if game.ID == "" {
		game.ID = uuid.New().String()
	}
	now := time.Now()
	if game.CreatedAt.IsZero() {
		game.CreatedAt = now
	}
	game.UpdatedAt = now
	game.Players = nonNil(game.Players)

	data, err := json.Marshal(game)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, gameKey(game.ID), data, 0)
	pipe.SAdd(ctx, gameIDsKey(), game.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

func (r *RedisGameRepository) Save(ctx context.Context, game *models.Game) error {
	n, err := r.client.Exists(ctx, gameKey(game.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check game %s: %w", game.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("game with ID %s not found for update: %w", game.ID, models.ErrRecordNotFound)
	}

	game.UpdatedAt = time.Now()
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, gameKey(game.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	return nil
}

func (r *RedisGameRepository) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, gameKey(id))
	pipe.SRem(ctx, gameIDsKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("game with ID %s not found for deletion: %w", id, models.ErrRecordNotFound)
	}
	return nil
}
