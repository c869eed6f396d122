package prompts

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/jwebster45206/narrative-engine/pkg/chat"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/jwebster45206/narrative-engine/pkg/story"
)

// BaseSystemPrompt is the system prompt for story continuation. The story
// title and description are injected.
const BaseSystemPrompt = `You are a storyteller for a text adventure game called "%s". You describe the story to the player as it unfolds. You never discuss things outside of the game. You narrate in the second person and you don't speak for the player.

%s

### Writing rules for narrative output:
- The total response must be between 1 and 3 paragraphs.
- Each paragraph may contain at most 3 sentences.
- Do not offer the player a list of choices. Choices are provided separately.

### Narrator responses
- Do not break the fourth wall. Do not acknowledge that you are an AI or a computer program.
- Do not answer questions about the game mechanics or how to play.
- Move the story forward gradually, allowing the player to explore and discover things on their own.
- Items and locations are tracked by the game engine. Do not grant the player items or move them somewhere the game state does not show.
`

// ContinuationTemplate carries the current situation, the player's choice and the
// bullet list of instructions from fired events.
const ContinuationTemplate = "Current situation: '%s'\nThe player chose to: '%s'.\n%sContinue the story concisely (1-3 paragraphs)."

// OptionsPrompt asks for the next set of player choices.
const OptionsPrompt = `You are an assistant for a text adventure game.
Current situation: '%s'
Provide 4 distinct, actionable choices for the player, starting with a verb.
Format as a numbered list (e.g., 1. Choice).`

// GameEndSystemPrompt wraps up a finished session. The ending message, if any, is appended.
const GameEndSystemPrompt = `The player's session has ended. Regardless of the player's input, the game will not continue. Respond in a way that wraps up the story in a narrative manner. End with a fancy "*.*.*.*.*.*. THE END .*.*.*.*.*.*" line.`

// StatePromptTemplate provides the current game state as JSON.
const StatePromptTemplate = "The following JSON describes the player's current state.\n\nGame State:\n```json\n%s\n```"

// FallbackNarrative is shown when the storyteller cannot be reached.
const FallbackNarrative = "The story path is unclear..."

var fallbackChoices = []string{"Look around.", "Check inventory.", "Wait.", "Leave."}

// FallbackChoices returns the choices offered when none could be generated.
func FallbackChoices() []string {
	return slices.Clone(fallbackChoices)
}

var optionLine = regexp.MustCompile(`(?m)^[ \t]*\d+[ \t]*[.)][ \t]*(.*)$`)

// ParseOptions extracts choices from a numbered list such as "1. Look" or "2) Wait".
// Lines that are not numbered are ignored, as are numbered lines with no text.
func ParseOptions(raw string) []string {
	var options []string
	for _, m := range optionLine.FindAllStringSubmatch(raw, -1) {
		if opt := strings.TrimSpace(m[1]); opt != "" {
			options = append(options, opt)
		}
	}
	return options
}

// BuildSystemPrompt constructs the storyteller system prompt for a story.
func BuildSystemPrompt(s *story.Story) string {
	title := "Untitled Story"
	description := ""
	if s != nil {
		if s.Title != "" {
			title = s.Title
		}
		description = strings.TrimSpace(s.Description)
	}
	return fmt.Sprintf(BaseSystemPrompt, title, description)
}

// BuildContinuationPrompt formats the player-facing continuation request.
func BuildContinuationPrompt(situation, playerChoice string, instructions []string) string {
	var context string
	var kept []string
	for _, in := range instructions {
		if in = strings.TrimSpace(in); in != "" {
			kept = append(kept, in)
		}
	}
	if len(kept) > 0 {
		context = "Important context:\n- " + strings.Join(kept, "\n- ") + "\n"
	}
	return fmt.Sprintf(ContinuationTemplate, strings.TrimSpace(situation), strings.TrimSpace(playerChoice), context)
}

// GetStatePrompt renders the game state for the storyteller.
func GetStatePrompt(gs *state.GameState, s *story.Story) (chat.ChatMessage, error) {
	if gs == nil {
		return chat.ChatMessage{}, fmt.Errorf("game state is nil")
	}
	ps := ToPromptState(gs, s)
	data, err := json.Marshal(ps)
	if err != nil {
		return chat.ChatMessage{}, err
	}
	return chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: fmt.Sprintf(StatePromptTemplate, data),
	}, nil
}
