package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/jwebster45206/narrative-engine/pkg/story"
)

// ErrStoryNotFound is returned when no story exists for an id.
var ErrStoryNotFound = errors.New("story not found")

// Storage defines a unified interface for all storage operations
// This interface combines gamestate persistence (Redis) with story loading (filesystem)
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// GameState operations (Redis-backed)
	// LoadGameState returns nil, nil when no state exists for id.
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteGameState(ctx context.Context, id uuid.UUID) error

	// Story operations (filesystem-backed)
	ListStories(ctx context.Context) ([]story.Info, error)
	GetStory(ctx context.Context, storyID string) (*story.Story, error)
}
