package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/chat"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeGameStarted   EventType = "game.started"
	EventTypeTurnCompleted EventType = "turn.completed"
	EventTypeEventForced   EventType = "event.forced"
	EventTypeGameEnded     EventType = "game.ended"
)

// Event is the payload published on a game's channel.
type Event struct {
	Type   EventType      `json:"type"`
	GameID string         `json:"game_id,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// Channel returns the pub/sub channel for a game.
func Channel(gameID uuid.UUID) string {
	return fmt.Sprintf("game-events:%s", gameID.String())
}

// Broadcaster publishes game events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishTurn publishes the outcome of a turn. A response that ends the game
// is followed by a game.ended event.
func (b *Broadcaster) PublishTurn(ctx context.Context, eventType EventType, gs *state.GameState, resp *chat.TurnResponse) error {
	event := Event{
		Type:   eventType,
		GameID: gs.ID.String(),
		Data: map[string]any{
			"turn":      gs.TurnCountGlobal,
			"location":  gs.Location,
			"narrative": resp.Narrative,
			"fired":     resp.Fired,
		},
	}
	if err := b.publishToGame(ctx, gs.ID, event); err != nil {
		return err
	}

	if resp.Ended == nil {
		return nil
	}
	ended := Event{
		Type:   EventTypeGameEnded,
		GameID: gs.ID.String(),
		Data: map[string]any{
			"success": resp.Ended.Success,
		},
	}
	if resp.Ended.Message != nil {
		ended.Data["message"] = *resp.Ended.Message
	}
	return b.publishToGame(ctx, gs.ID, ended)
}

// Subscribe opens a subscription to a game's channel and waits for Redis to
// confirm it. The caller closes the returned PubSub.
func (b *Broadcaster) Subscribe(ctx context.Context, gameID uuid.UUID) (*redis.PubSub, error) {
	pubsub := b.redisClient.Subscribe(ctx, Channel(gameID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return pubsub, nil
}

// publishToGame publishes an event to the game-specific channel
func (b *Broadcaster) publishToGame(ctx context.Context, gameID uuid.UUID, event Event) error {
	channel := Channel(gameID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)

	return nil
}
