package chat

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/conditionals"
	"github.com/jwebster45206/narrative-engine/pkg/effects"
	"github.com/jwebster45206/narrative-engine/pkg/state"
)

// TurnRequest is one player turn sent to the narrative-engine api.
// Either Message (free text) or ActionID (a chosen option) must be present.
type TurnRequest struct {
	GameStateID uuid.UUID `json:"gamestate_id"` // Unique ID for the game state
	Message     string    `json:"message,omitempty"`
	Intent      string    `json:"intent,omitempty"`
	ActionID    string    `json:"action_id,omitempty"`
}

// TurnResponse is the result of a processed turn.
type TurnResponse struct {
	GameStateID uuid.UUID        `json:"gamestate_id"`
	Narrative   string           `json:"narrative"`
	Choices     []effects.Choice `json:"choices,omitempty"`
	Ended       *state.Ending    `json:"ended,omitempty"`
	Fired       []string         `json:"fired,omitempty"`       // Event ids fired this turn, in order
	Diagnostics []string         `json:"diagnostics,omitempty"` // Story content problems found this turn
}

// ChatResponse is a reply from the narrative generation service.
type ChatResponse struct {
	Message string `json:"message,omitempty"`
}

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Storyteller
	ChatRoleSystem = "system"    // Instructions
)

// ChatMessage represents a single chat message in the conversation.
// This shape is defined by Ollama's API and is used to structure messages
// sent to the LLM.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

func (tr *TurnRequest) Validate() error {
	if tr.GameStateID == uuid.Nil {
		return errors.New("gamestate_id is required")
	}
	if strings.TrimSpace(tr.Message) == "" && strings.TrimSpace(tr.ActionID) == "" {
		return errors.New("message or action_id is required")
	}
	return nil
}

// PlayerInput converts the request into the input seen by trigger conditions.
func (tr *TurnRequest) PlayerInput() conditionals.PlayerInput {
	return conditionals.PlayerInput{
		RawText:  tr.Message,
		Intent:   tr.Intent,
		ActionID: tr.ActionID,
	}
}

// Text returns what the player did, for the storyteller prompt.
// A chosen option with no free text falls back to the action id.
func (tr *TurnRequest) Text() string {
	if s := strings.TrimSpace(tr.Message); s != "" {
		return s
	}
	return strings.TrimSpace(tr.ActionID)
}
