package services

import (
	"context"

	"github.com/jwebster45206/narrative-engine/pkg/chat"
)

// LLMService defines the interface for the narrative generation backend.
type LLMService interface {
	// InitModel makes sure the model is available on startup
	InitModel(ctx context.Context, modelName string) error

	// Chat generates a single non-streaming response
	Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)
}
