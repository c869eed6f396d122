package prompts

import (
	"maps"
	"slices"

	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/jwebster45206/narrative-engine/pkg/story"
)

// PromptState is a reduced game state for LLM prompts.
// Flags and fired-event bookkeeping are engine concerns and are left out.
type PromptState struct {
	Location    string         `json:"user_location,omitempty"`  // Player's current location
	Inventory   []string       `json:"user_inventory,omitempty"` // Item names, sorted
	Stats       map[string]int `json:"stats,omitempty"`
	TurnCounter int            `json:"turn_counter,omitempty"`
	IsEnded     bool           `json:"is_ended"`
	Intro       string         `json:"intro,omitempty"` // Only sent before the first turn
}

func ToPromptState(gs *state.GameState, s *story.Story) *PromptState {
	ps := &PromptState{
		Location:    gs.Location,
		Inventory:   inventoryNames(gs),
		TurnCounter: gs.TurnCountGlobal,
		IsEnded:     gs.IsEnded(),
	}
	if len(gs.Stats) > 0 {
		ps.Stats = maps.Clone(gs.Stats)
	}
	if s != nil && gs.TurnCountGlobal <= 1 {
		ps.Intro = s.Intro
	}
	return ps
}

func inventoryNames(gs *state.GameState) []string {
	if len(gs.Inventory) == 0 {
		return nil
	}
	names := make([]string, 0, len(gs.Inventory))
	for id, item := range gs.Inventory {
		if item.Name != "" {
			names = append(names, item.Name)
		} else {
			names = append(names, id)
		}
	}
	slices.Sort(names)
	return names
}
