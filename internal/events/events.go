// Package events connects the game service to the message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"mafiamadness/internal/models"

	amqp "github.com/streadway/amqp"
)

// ConsumerQueue is the queue the server binds for its own game event log.
const ConsumerQueue = "mafia_game_events"

// ConsumerPattern matches every game routing key.
const ConsumerPattern = "game.#"

// JSONPublisher is satisfied by *rabbitmq.Client.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, payload interface{}) error
}

// Publisher publishes game events with the event name as routing key.
type Publisher struct {
	broker JSONPublisher
}

// NewPublisher wraps a broker client.
func NewPublisher(broker JSONPublisher) *Publisher {
	return &Publisher{broker: broker}
}

// PublishGameEvent implements services.EventPublisher.
func (p *Publisher) PublishGameEvent(ctx context.Context, event models.GameEvent) error {
	return p.broker.PublishJSON(ctx, event.Event, event)
}

// HandleDelivery decodes a game event and logs it.
func HandleDelivery(msg amqp.Delivery) error {
	var event models.GameEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("invalid game event: %w", err)
	}
	slog.Info("game event received",
		slog.String("event", event.Event),
		slog.String("routing_key", msg.RoutingKey),
		slog.String("game_id", event.GameID),
		slog.Any("players", event.Players),
		slog.Time("occurred_at", event.OccurredAt))
	return nil
}
