package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mafiamadness/internal/models"

	"github.com/google/uuid"
)

// MockUserRepository is an in-memory implementation of UserRepository.
// Records are copied on the way in and out so callers never share slices with the store.
type MockUserRepository struct {
	users map[string]models.User
	order []string
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]models.User),
	}
}

// GetAll returns all users in insertion order.
func (r *MockUserRepository) GetAll(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userList := make([]models.User, 0, len(r.order))
	for _, id := range r.order {
		userList = append(userList, r.users[id].Clone())
	}
	return userList, nil
}

// GetByID returns a user by its ID.
func (r *MockUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s: %w", id, models.ErrRecordNotFound)
	}
	user = user.Clone()
	return &user, nil
}

// GetByUsername returns the user with the given username.
func (r *MockUserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if u := r.users[id]; u.Username == username {
			u = u.Clone()
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with username %s: %w", username, models.ErrRecordNotFound)
}

// GetByEmail returns the user with the given email.
func (r *MockUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if u := r.users[id]; u.Email == email {
			u = u.Clone()
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, models.ErrRecordNotFound)
}

// FindByGame scans every user for gameID in the selected back-reference sequence.
func (r *MockUserRepository) FindByGame(_ context.Context, gameID string, rel models.GameRelation) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found []models.User
	for _, id := range r.order {
		u := r.users[id]
		if u.HasGame(rel, gameID) {
			found = append(found, u.Clone())
		}
	}
	return found, nil
}

// Create adds a new user, assigning an ID when none is set.
func (r *MockUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Username, models.ErrDuplicateRecord)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	*user = user.Clone()
	r.users[user.ID] = user.Clone()
	r.order = append(r.order, user.ID)
	return nil
}

// Save replaces an existing user.
func (r *MockUserRepository) Save(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return fmt.Errorf("user with ID %s not saved: %w", user.ID, models.ErrRecordNotFound)
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user.Clone()
	return nil
}

// Delete removes a user by its ID.
func (r *MockUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user with ID %s not deleted: %w", id, models.ErrRecordNotFound)
	}
	delete(r.users, id)
	r.order = removeID(r.order, id)
	return nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
