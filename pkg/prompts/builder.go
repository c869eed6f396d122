package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/narrative-engine/pkg/chat"
	"github.com/jwebster45206/narrative-engine/pkg/effects"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/jwebster45206/narrative-engine/pkg/story"
)

// Builder constructs chat messages for LLM interaction using a fluent interface.
// It separates prompt building logic from the trigger engine.
type Builder struct {
	gs           *state.GameState
	story        *story.Story
	effects      *effects.TurnEffects
	situation    string
	playerChoice string
	messages     []chat.ChatMessage
}

// New creates a new prompt builder.
func New() *Builder {
	return &Builder{
		messages: make([]chat.ChatMessage, 0),
	}
}

// WithGameState sets the gamestate after the engine has run.
func (b *Builder) WithGameState(gs *state.GameState) *Builder {
	b.gs = gs
	return b
}

// WithStory sets the story (loaded by the processor on each turn).
func (b *Builder) WithStory(s *story.Story) *Builder {
	b.story = s
	return b
}

// WithEffects sets the aggregated turn effects. Their prompt instructions
// become the "Important context" list.
func (b *Builder) WithEffects(fx *effects.TurnEffects) *Builder {
	b.effects = fx
	return b
}

// WithSituation sets the narrative the player is responding to.
func (b *Builder) WithSituation(narrative string) *Builder {
	b.situation = narrative
	return b
}

// WithPlayerChoice sets what the player did this turn.
func (b *Builder) WithPlayerChoice(choice string) *Builder {
	b.playerChoice = choice
	return b
}

// Build constructs the message array for a story continuation.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.gs == nil {
		return nil, fmt.Errorf("gamestate is required")
	}
	if b.story == nil {
		return nil, fmt.Errorf("story is required")
	}

	b.messages = make([]chat.ChatMessage, 0, 4)

	// 1. System prompt
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: BuildSystemPrompt(b.story),
	})

	// 2. State context
	statePrompt, err := GetStatePrompt(b.gs, b.story)
	if err != nil {
		return nil, fmt.Errorf("error generating state prompt: %w", err)
	}
	b.messages = append(b.messages, statePrompt)

	// 3. Player turn with event instructions
	var instructions []string
	if b.effects != nil {
		instructions = b.effects.PromptInstructions
	}
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleUser,
		Content: BuildContinuationPrompt(b.situation, b.playerChoice, instructions),
	})

	// 4. Ending
	if b.gs.IsEnded() {
		b.addGameEndPrompt()
	}

	return b.messages, nil
}

// BuildOptions constructs the message array asking for the next choices.
func (b *Builder) BuildOptions() ([]chat.ChatMessage, error) {
	if strings.TrimSpace(b.situation) == "" {
		return nil, fmt.Errorf("situation is required")
	}
	return []chat.ChatMessage{{
		Role:    chat.ChatRoleUser,
		Content: fmt.Sprintf(OptionsPrompt, strings.TrimSpace(b.situation)),
	}}, nil
}

func (b *Builder) addGameEndPrompt() {
	prompt := GameEndSystemPrompt
	if e := b.gs.Ended; e != nil && e.Message != nil && *e.Message != "" {
		prompt += "\n\nThe ending: " + *e.Message
	}
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: prompt,
	})
}

// BuildMessages is a convenience function for the common case.
// It creates a builder, sets all parameters, and builds the continuation in one call.
func BuildMessages(
	gs *state.GameState,
	s *story.Story,
	fx *effects.TurnEffects,
	situation string,
	playerChoice string,
) ([]chat.ChatMessage, error) {
	return New().
		WithGameState(gs).
		WithStory(s).
		WithEffects(fx).
		WithSituation(situation).
		WithPlayerChoice(playerChoice).
		Build()
}
