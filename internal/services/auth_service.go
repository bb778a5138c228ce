package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mafiamadness/internal/apperr"
	"mafiamadness/internal/models"
	"mafiamadness/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// refreshTokenType marks refresh tokens so they cannot be used as access tokens.
const refreshTokenType = "refresh"

// AuthConfig holds token and hashing settings.
type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
}

// NewAuthService creates a new AuthService. Zero durations and cost fall back to 3h, 24h and 12.
func NewAuthService(userRepo repositories.UserRepository, cfg AuthConfig) *AuthService {
	s := &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		bcryptCost: cfg.BcryptCost,
	}
	if s.accessTTL <= 0 {
		s.accessTTL = 3 * time.Hour
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = 24 * time.Hour
	}
	if s.bcryptCost == 0 {
		s.bcryptCost = 12
	}
	return s
}

// RegisterUser creates a user with a hashed password and the default role.
func (s *AuthService) RegisterUser(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	// Check if username or email already exists
	if err := s.ensureUnused(ctx, s.userRepo.GetByEmail, req.Email); err != nil {
		return nil, err
	}
	if err := s.ensureUnused(ctx, s.userRepo.GetByUsername, req.Username); err != nil {
		return nil, err
	}

	hashed, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err, "Error occurred during creation of user")
	}

	user := &models.User{
		Name:             req.Name,
		Username:         req.Username,
		Email:            req.Email,
		Password:         hashed,
		Role:             models.DefaultRole,
		GamesParticipate: []string{},
		GamesCreated:     []string{},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicateRecord) {
			return nil, apperr.Conflict("User with such username or email already exists")
		}
		return nil, apperr.Internal(err, "Error occurred during creation of user")
	}
	slog.Info("user created", slog.String("user_id", user.ID), slog.String("email", user.Email))
	return user, nil
}

func (s *AuthService) ensureUnused(ctx context.Context, lookup func(context.Context, string) (*models.User, error), value string) error {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		slog.Warn("signup with existing credentials")
		return apperr.Conflict("User with such username or email already exists")
	case errors.Is(err, models.ErrRecordNotFound):
		return nil
	default:
		return apperr.Internal(err, "Error occurred during creation of user")
	}
}

// LoginUser authenticates by email and password and issues an access/refresh token pair.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*models.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, models.ErrRecordNotFound) {
		return nil, apperr.Internal(err, "Error occurred during login")
	}
	// Unknown email and wrong password are indistinguishable to the caller.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		slog.Warn("attempt of using wrong credentials")
		return nil, apperr.Unauthorized("Wrong credentials or user does not exist")
	}

	access, err := s.signToken(user, s.accessTTL, "")
	if err != nil {
		return nil, apperr.Internal(err, "Error occurred during login")
	}
	refresh, err := s.signToken(user, s.refreshTTL, refreshTokenType)
	if err != nil {
		return nil, apperr.Internal(err, "Error occurred during login")
	}
	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) signToken(user *models.User, ttl time.Duration, typ string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	if typ != "" {
		claims["typ"] = typ
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates an access token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		slog.Debug("token validation failed", slog.String("error", err.Error()))
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}
	if typ, _ := claims["typ"].(string); typ == refreshTokenType {
		return nil, apperr.Unauthorized("Refresh token cannot be used for authorization")
	}
	return claims, nil
}

// HashPassword hashes a plain-text password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
