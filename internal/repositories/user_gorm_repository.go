package repositories

import (
	"context"
	"errors"
	"fmt"

	"mafiamadness/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// GetAll retrieves all users ordered by creation time.
func (r *GORMUserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	var records []userRecord
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	users := make([]models.User, 0, len(records))
	for _, rec := range records {
		users = append(users, rec.toDomain())
	}
	return users, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *GORMUserRepository) first(ctx context.Context, query string, arg string) (*models.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).First(&rec, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user where %s %s: %w", query, arg, models.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get user where %s %s: %w", query, arg, err)
	}
	user := rec.toDomain()
	return &user, nil
}

// FindByGame loads every user and keeps those referencing gameID.
// JSON containment is not portable across sqlite and postgres, so the filter runs here.
func (r *GORMUserRepository) FindByGame(ctx context.Context, gameID string, rel models.GameRelation) ([]models.User, error) {
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

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	rec := newUserRecord(user)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translateGormError(err))
	}
	*user = rec.toDomain()
	return nil
}

// Save updates every column of an existing user.
func (r *GORMUserRepository) Save(ctx context.Context, user *models.User) error {
	rec := newUserRecord(user)
	res := r.db.WithContext(ctx).Model(&rec).Select("*").Updates(&rec)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", translateGormError(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s not found for update: %w", user.ID, models.ErrRecordNotFound)
	}
	user.UpdatedAt = rec.UpdatedAt
	return nil
}

// Delete deletes a user by their ID.
func (r *GORMUserRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&userRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s not found for deletion: %w", id, models.ErrRecordNotFound)
	}
	return nil
}
