// Package actions executes the authored action vocabulary against game state.
package actions

import (
	"fmt"

	"github.com/jwebster45206/narrative-engine/pkg/effects"
	"github.com/jwebster45206/narrative-engine/pkg/state"
)

// Apply executes a against gs and returns the effect fragment it produced.
// Malformed or unknown actions leave gs untouched and return a diagnostic.
// Any action on a finished session returns state.ErrGameEnded.
func Apply(a Action, gs *state.GameState) (effects.Fragment, error) {
	var frag effects.Fragment
	if a == nil {
		return frag, fmt.Errorf("%w: nil action", ErrUnknownAction)
	}
	if gs.IsEnded() {
		return frag, fmt.Errorf("%s: %w", a.Type(), state.ErrGameEnded)
	}

	switch a := a.(type) {
	case SetFlag:
		gs.SetFlag(a.Flag)

	case ClearFlag:
		gs.ClearFlag(a.Flag)

	case AddItem:
		name := a.Name
		if name == "" {
			name = a.Item
		}
		gs.AddItem(a.Item, state.Item{Name: name, Description: a.Description})

	case RemoveItem:
		if !gs.RemoveItem(a.Item) {
			return frag, fmt.Errorf("%w: %q", ErrItemNotHeld, a.Item)
		}

	case ChangeLocation:
		gs.ChangeLocation(a.Location)

	case UpdateStat:
		gs.UpdateStat(a.Stat, a.ChangeBy)

	case OverrideNarrative:
		text := a.Text
		frag.NarrativeOverride = &text

	case InjectNarrative:
		if a.Position == effects.PositionPre {
			frag.InjectedPre = []string{a.Text}
		} else {
			frag.InjectedPost = []string{a.Text}
		}

	case ModifyPrompt:
		frag.PromptInstruction = a.Instruction

	case AddChoice:
		frag.Choices = []effects.Choice{a.Choice}

	case PresentChoices:
		frag.Choices = append([]effects.Choice(nil), a.Choices...)
		frag.ChoicePrompt = a.Prompt

	case EndGame:
		if err := gs.End(a.Success, a.Message); err != nil {
			return frag, err
		}
		frag.Ended = gs.Ended

	case Invalid:
		return frag, fmt.Errorf("%w: %s: %s", ErrMalformedAction, a.RawType, a.Reason)

	case Unknown:
		return frag, fmt.Errorf("%w: %q", ErrUnknownAction, a.RawType)

	default:
		return frag, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}

	return frag, nil
}

// IsEndGame reports whether a terminates the session.
func IsEndGame(a Action) bool {
	_, ok := a.(EndGame)
	return ok
}
