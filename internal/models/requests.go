package models

import "time"

// CreateGameRequest is the body of POST /api/games.
type CreateGameRequest struct {
	Players   []string   `json:"players" validate:"required,min=1,max=3,unique,dive,required"`
	Type      string     `json:"type" validate:"required"`
	CreatorID string     `json:"creator_id" validate:"required"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// GamePlayersRequest is the body of PATCH and DELETE /api/games/players.
type GamePlayersRequest struct {
	GameID  string   `json:"gid" validate:"required"`
	Players []string `json:"players" validate:"required,min=1,unique,dive,required"`
}

// SignupRequest is the body of POST /api/users/signup.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,personname"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=2,max=32"`
	Password string `json:"password" validate:"required,password"`
}

// LoginRequest is the body of POST /api/users/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdatePasswordRequest is the body of PATCH /api/users.
type UpdatePasswordRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,password"`
}

// TokenPair is returned on successful login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ReconcileReport summarizes a back-reference repair pass.
type ReconcileReport struct {
	GamesScanned  int `json:"games_scanned"`
	UsersScanned  int `json:"users_scanned"`
	UsersRepaired int `json:"users_repaired"`
}
