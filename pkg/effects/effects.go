// Package effects aggregates the narrative, prompt and choice output of the
// events fired during one turn.
package effects

import (
	"slices"
	"strings"

	"github.com/jwebster45206/narrative-engine/pkg/conditionals"
	"github.com/jwebster45206/narrative-engine/pkg/state"
)

// Position of injected narrative relative to the main text.
const (
	PositionPre  = "pre"
	PositionPost = "post"
)

// TriggerPrefix marks a choice action that force-runs the named event.
const TriggerPrefix = "trigger:"

// Choice is an option offered to the player for the next turn.
type Choice struct {
	Label  string `json:"label"`
	Action string `json:"action"`
	// Condition, when set, must hold at the end of the turn for the choice to be shown.
	Condition conditionals.Condition `json:"-"`
}

// TriggeredEvent returns the event id named by a trigger:<id> action.
func (c Choice) TriggeredEvent() (string, bool) {
	return TriggeredEvent(c.Action)
}

// TriggeredEvent parses a trigger:<id> action id.
func TriggeredEvent(action string) (string, bool) {
	id, ok := strings.CutPrefix(strings.TrimSpace(action), TriggerPrefix)
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Fragment is the output of applying a single action.
type Fragment struct {
	NarrativeOverride *string
	InjectedPre       []string
	InjectedPost      []string
	PromptInstruction string
	Choices           []Choice
	ChoicePrompt      string
	Ended             *state.Ending
}

// TurnEffects is the aggregated output of one turn.
type TurnEffects struct {
	NarrativeOverride  *string       `json:"narrative_override,omitempty"`
	InjectedPre        []string      `json:"injected_pre,omitempty"`
	InjectedPost       []string      `json:"injected_post,omitempty"`
	PromptInstructions []string      `json:"prompt_instructions,omitempty"`
	Choices            []Choice      `json:"choices,omitempty"`
	ChoicePrompt       string        `json:"choice_prompt,omitempty"`
	Ended              *state.Ending `json:"ended,omitempty"`
}

// Merge folds f into the running total. Overrides are last-wins; everything
// else concatenates in the order fragments are merged.
func (te *TurnEffects) Merge(f Fragment) {
	if f.NarrativeOverride != nil {
		text := *f.NarrativeOverride
		te.NarrativeOverride = &text
	}
	te.InjectedPre = append(te.InjectedPre, f.InjectedPre...)
	te.InjectedPost = append(te.InjectedPost, f.InjectedPost...)
	if f.PromptInstruction != "" {
		te.PromptInstructions = append(te.PromptInstructions, f.PromptInstruction)
	}
	te.Choices = append(te.Choices, f.Choices...)
	if f.ChoicePrompt != "" {
		te.ChoicePrompt = f.ChoicePrompt
	}
	if f.Ended != nil {
		te.Ended = f.Ended
	}
}

// AddInstruction appends a prompt instruction that does not come from an action.
func (te *TurnEffects) AddInstruction(instruction string) {
	if strings.TrimSpace(instruction) == "" {
		return
	}
	te.PromptInstructions = append(te.PromptInstructions, instruction)
}

// HasOverride reports whether a fired event replaced the narrative.
func (te *TurnEffects) HasOverride() bool {
	return te.NarrativeOverride != nil
}

// HasChoices reports whether fired events supplied explicit choices.
func (te *TurnEffects) HasChoices() bool {
	return len(te.Choices) > 0
}

// HasNarrative reports whether the engine produced any narrative text of its own.
func (te *TurnEffects) HasNarrative() bool {
	return te.HasOverride() || len(te.InjectedPre) > 0 || len(te.InjectedPost) > 0
}

// Narrative assembles the final text: pre injections, the override or the
// baseline, then post injections, separated by blank lines.
func (te *TurnEffects) Narrative(baseline string) string {
	main := baseline
	if te.NarrativeOverride != nil {
		main = *te.NarrativeOverride
	}

	parts := make([]string, 0, len(te.InjectedPre)+len(te.InjectedPost)+1)
	for _, p := range slices.Concat(te.InjectedPre, []string{main}, te.InjectedPost) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}

// FilterChoices drops choices whose condition does not hold for view.
// Choices with an unevaluable condition are dropped and reported.
func (te *TurnEffects) FilterChoices(view conditionals.GameStateView) []error {
	var diags []error
	kept := te.Choices[:0]
	for _, c := range te.Choices {
		if c.Condition == nil {
			kept = append(kept, c)
			continue
		}
		ok, err := conditionals.Evaluate(c.Condition, view, conditionals.PlayerInput{})
		if err != nil {
			diags = append(diags, err)
		}
		if ok {
			kept = append(kept, c)
		}
	}
	te.Choices = kept
	return diags
}

// ChoiceLabels returns the labels of all choices, in order.
func (te *TurnEffects) ChoiceLabels() []string {
	labels := make([]string, len(te.Choices))
	for i, c := range te.Choices {
		labels[i] = c.Label
	}
	return labels
}
