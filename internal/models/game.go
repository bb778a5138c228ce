package models

import "time"

// Game is a game session. Players holds usernames, not user IDs.
type Game struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatorID string    `json:"creator_id"`
	Players   []string  `json:"players"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy of the game that shares no slices with g.
func (g Game) Clone() Game {
	g.Players = cloneIDs(g.Players)
	return g
}

// HasPlayer reports whether username is listed in the game.
func (g *Game) HasPlayer(username string) bool {
	return containsString(g.Players, username)
}
