package services

import (
	"context"
	"errors"
	"log/slog"

	"mafiamadness/internal/apperr"
	"mafiamadness/internal/models"
	"mafiamadness/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes plain-text passwords.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// UserService handles account management outside of authentication.
type UserService struct {
	userRepo repositories.UserRepository
	hasher   PasswordHasher
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository, hasher PasswordHasher) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

// GetAllUsers returns every registered user.
func (s *UserService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Error occurred during fetching all users")
	}
	return users, nil
}

// GetUserByID returns one user.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, models.ErrRecordNotFound) {
		slog.Warn("profile requested for missing user", slog.String("user_id", id))
		return nil, apperr.NotFound("No such user with given id of %s", id)
	}
	if err != nil {
		return nil, apperr.Internal(err, "Error occurred during fetching user %s", id)
	}
	return user, nil
}

// UpdatePassword replaces the user's password. Reusing the current password is rejected.
func (s *UserService) UpdatePassword(ctx context.Context, id, newPassword string) (*models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(newPassword)) == nil {
		slog.Warn("user used the same password as before", slog.String("user_id", id))
		return nil, apperr.BadRequest("You cannot use the same password as before.")
	}

	hashed, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return nil, apperr.Internal(err, "Error occurred during updating user %s", id)
	}
	user.Password = hashed
	if err := s.userRepo.Save(ctx, user); err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, apperr.NotFound("No such user with given id of %s", id)
		}
		return nil, apperr.Internal(err, "Error occurred during updating user %s", id)
	}
	slog.Info("user updated their password", slog.String("user_id", id))
	return user, nil
}

// DeleteUser removes a user record. Games that reference the user are left untouched.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return apperr.NotFound("No such user with given id of %s", id)
		}
		return apperr.Internal(err, "Error occurred during deleting user %s", id)
	}
	slog.Info("user deleted", slog.String("user_id", id))
	return nil
}
