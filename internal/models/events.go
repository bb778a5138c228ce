package models

import "time"

// Routing keys for game lifecycle events.
const (
	EventGameCreated        = "game.created"
	EventGamePlayersAdded   = "game.players_added"
	EventGamePlayersRemoved = "game.players_removed"
	EventGameDeleted        = "game.deleted"
)

// GameEvent is the message body published after a successful game mutation.
// Players holds the usernames affected by the mutation.
type GameEvent struct {
	Event      string    `json:"event"`
	GameID     string    `json:"game_id"`
	Players    []string  `json:"players"`
	OccurredAt time.Time `json:"occurred_at"`
}
