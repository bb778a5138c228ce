package models

import "time"

// DefaultRole is assigned to every user at signup.
const DefaultRole = "user"

// AdminRole may manage other users' records and run reconciliation.
const AdminRole = "admin"

// User represents a registered player.
// GamesParticipate and GamesCreated are back-references maintained by the game service;
// Game.Players and Game.CreatorID are the source of truth.
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	Password         string    `json:"-"` // bcrypt hash, never serialized
	Role             string    `json:"role"`
	GamesParticipate []string  `json:"games_participate"`
	GamesCreated     []string  `json:"games_created"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Clone returns a copy of the user that shares no slices with u.
func (u User) Clone() User {
	u.GamesParticipate = cloneIDs(u.GamesParticipate)
	u.GamesCreated = cloneIDs(u.GamesCreated)
	return u
}

// GameRelation selects which back-reference sequence of a user is inspected.
type GameRelation string

const (
	RelationParticipate GameRelation = "participate"
	RelationCreated     GameRelation = "created"
)

// GameIDs returns the back-reference sequence for the given relation.
func (u *User) GameIDs(rel GameRelation) []string {
	if rel == RelationCreated {
		return u.GamesCreated
	}
	return u.GamesParticipate
}

// HasGame reports whether gameID appears in the relation's sequence.
func (u *User) HasGame(rel GameRelation, gameID string) bool {
	return containsString(u.GameIDs(rel), gameID)
}

func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
