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

// redisUser is the JSON document stored for a user. Unlike models.User it keeps the password hash.
type redisUser struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	Password         string    `json:"password"`
	Role             string    `json:"role"`
	GamesParticipate []string  `json:"games_participate"`
	GamesCreated     []string  `json:"games_created"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newRedisUser(u *models.User) redisUser {
	return redisUser{
		ID:               u.ID,
		Name:             u.Name,
		Username:         u.Username,
		Email:            u.Email,
		Password:         u.Password,
		Role:             u.Role,
		GamesParticipate: nonNil(u.GamesParticipate),
		GamesCreated:     nonNil(u.GamesCreated),
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (d redisUser) toDomain() models.User {
	return models.User{
		ID:               d.ID,
		Name:             d.Name,
		Username:         d.Username,
		Email:            d.Email,
		Password:         d.Password,
		Role:             d.Role,
		GamesParticipate: nonNil(d.GamesParticipate),
		GamesCreated:     nonNil(d.GamesCreated),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// RedisUserRepository stores users as JSON strings with username and email index keys.
type RedisUserRepository struct {
	client *redis.Client
}

// NewRedisUserRepository creates a Redis-backed UserRepository.
func NewRedisUserRepository(client *redis.Client) *RedisUserRepository {
	return &RedisUserRepository{client: client}
}

func (r *RedisUserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	ids, err := r.client.SMembers(ctx, userIDsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	users := make([]models.User, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			// Deleted between SMEMBERS and MGET
			continue
		}
		var doc redisUser
		if err := json.Unmarshal([]byte(s), &doc); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, doc.toDomain())
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *RedisUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	data, err := r.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("user with ID %s: %w", id, models.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}

	var doc redisUser
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", id, err)
	}
	user := doc.toDomain()
	return &user, nil
}

func (r *RedisUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getByIndex(ctx, usernameIndexKey(username), "username", username)
}

func (r *RedisUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getByIndex(ctx, emailIndexKey(email), "email", email)
}

func (r *RedisUserRepository) getByIndex(ctx context.Context, key, field, value string) (*models.User, error) {
	id, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("user with %s %s: %w", field, value, models.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to look up user by %s: %w", field, err)
	}
	return r.GetByID(ctx, id)
}

// FindByGame scans every user document; Redis has no secondary index on the back-references.
func (r *RedisUserRepository) FindByGame(ctx context.Context, gameID string, rel models.GameRelation) ([]models.User, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var found []models.User
	for i := range all {
		if all[i].HasGame(rel, gameID) {
			found = append(found, all[i])
		}
	}
	return found, nil
}

// Create claims the username and email index keys with SETNX before writing the document.
func (r *RedisUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	ok, err := r.client.SetNX(ctx, usernameIndexKey(user.Username), user.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve username: %w", err)
	}
	if !ok {
		return fmt.Errorf("username %s: %w", user.Username, models.ErrDuplicateRecord)
	}
	ok, err = r.client.SetNX(ctx, emailIndexKey(user.Email), user.ID, 0).Result()
	if err != nil || !ok {
		r.client.Del(ctx, usernameIndexKey(user.Username))
		if err != nil {
			return fmt.Errorf("failed to reserve email: %w", err)
		}
		return fmt.Errorf("email %s: %w", user.Email, models.ErrDuplicateRecord)
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	doc := newRedisUser(user)
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, userKey(user.ID), data, 0)
	pipe.SAdd(ctx, userIDsKey(), user.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	*user = doc.toDomain()
	return nil
}

// Save overwrites an existing user document. Username and email are not re-indexed.
func (r *RedisUserRepository) Save(ctx context.Context, user *models.User) error {
	n, err := r.client.Exists(ctx, userKey(user.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check user %s: %w", user.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("user with ID %s not found for update: %w", user.ID, models.ErrRecordNotFound)
	}

	user.UpdatedAt = time.Now()
	data, err := json.Marshal(newRedisUser(user))
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, userKey(user.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *RedisUserRepository) Delete(ctx context.Context, id string) error {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, userKey(id), usernameIndexKey(user.Username), emailIndexKey(user.Email))
	pipe.SRem(ctx, userIDsKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
