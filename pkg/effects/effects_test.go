package effects

import (
	"testing"

	"github.com/jwebster45206/narrative-engine/pkg/conditionals"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestTurnEffects_Merge(t *testing.T) {
	var te TurnEffects
	te.Merge(Fragment{NarrativeOverride: strPtr("first")})
	te.Merge(Fragment{InjectedPre: []string{"pre one"}})
	te.Merge(Fragment{PromptInstruction: "be ominous"})
	te.Merge(Fragment{NarrativeOverride: strPtr("second")})
	te.Merge(Fragment{InjectedPre: []string{"pre two"}, InjectedPost: []string{"post"}})
	te.Merge(Fragment{PromptInstruction: "mention the tide"})
	te.Merge(Fragment{Choices: []Choice{{Label: "Wait", Action: "wait"}}, ChoicePrompt: "What now?"})
	te.Merge(Fragment{Choices: []Choice{{Label: "Leave", Action: "leave"}}})

	require.True(t, te.HasOverride())
	assert.Equal(t, "second", *te.NarrativeOverride, "last override wins")
	assert.Equal(t, []string{"pre one", "pre two"}, te.InjectedPre)
	assert.Equal(t, []string{"post"}, te.InjectedPost)
	assert.Equal(t, []string{"be ominous", "mention the tide"}, te.PromptInstructions)
	assert.Equal(t, []string{"Wait", "Leave"}, te.ChoiceLabels())
	assert.Equal(t, "What now?", te.ChoicePrompt)
	assert.Nil(t, te.Ended)
}

func TestTurnEffects_MergeCopiesOverride(t *testing.T) {
	text := "original"
	var te TurnEffects
	te.Merge(Fragment{NarrativeOverride: &text})
	text = "mutated"
	assert.Equal(t, "original", *te.NarrativeOverride)
}

func TestTurnEffects_Narrative(t *testing.T) {
	tests := []struct {
		name     string
		effects  TurnEffects
		baseline string
		want     string
	}{
		{name: "baseline only", baseline: "The square is quiet.", want: "The square is quiet."},
		{
			name:     "override replaces baseline",
			effects:  TurnEffects{NarrativeOverride: strPtr("Welcome to Eldoria.")},
			baseline: "The square is quiet.",
			want:     "Welcome to Eldoria.",
		},
		{
			name: "injections wrap the override",
			effects: TurnEffects{
				NarrativeOverride: strPtr("Main."),
				InjectedPre:       []string{"Before A.", "Before B."},
				InjectedPost:      []string{"After."},
			},
			want: "Before A.\n\nBefore B.\n\nMain.\n\nAfter.",
		},
		{
			name:    "empty baseline is skipped",
			effects: TurnEffects{InjectedPost: []string{"You feel weak."}},
			want:    "You feel weak.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.effects.Narrative(tt.baseline))
		})
	}
}

type view struct{ flags map[string]bool }

func (v view) GetLocation() string         { return "town_square" }
func (v view) HasFlag(f string) bool       { return v.flags[f] }
func (v view) HasItem(string) bool         { return false }
func (v view) Stat(string) int             { return 0 }
func (v view) GetTurnCountGlobal() int     { return 1 }
func (v view) GetTurnCountInLocation() int { return 1 }

func TestTurnEffects_FilterChoices(t *testing.T) {
	te := TurnEffects{Choices: []Choice{
		{Label: "Always", Action: "a"},
		{Label: "Gated", Action: "b", Condition: conditionals.FlagSet{Flag: "has_map"}},
		{Label: "Open", Action: "c", Condition: conditionals.FlagNotSet{Flag: "has_map"}},
		{Label: "Broken", Action: "d", Condition: conditionals.Unknown{RawType: "weather"}},
	}}

	diags := te.FilterChoices(view{flags: map[string]bool{}})
	assert.Equal(t, []string{"Always", "Open"}, te.ChoiceLabels())
	require.Len(t, diags, 1)
	assert.ErrorIs(t, diags[0], conditionals.ErrUnknownCondition)
}

func TestTriggeredEvent(t *testing.T) {
	id, ok := TriggeredEvent("trigger:tide_recedes")
	assert.True(t, ok)
	assert.Equal(t, "tide_recedes", id)

	_, ok = TriggeredEvent("trigger:")
	assert.False(t, ok)
	_, ok = Choice{Action: "look_around"}.TriggeredEvent()
	assert.False(t, ok)
}

func TestTurnEffects_Ended(t *testing.T) {
	var te TurnEffects
	te.Merge(Fragment{Ended: &state.Ending{Success: true}})
	require.NotNil(t, te.Ended)
	assert.True(t, te.Ended.Success)
}

func TestTurnEffects_HasNarrative(t *testing.T) {
	var te TurnEffects
	assert.False(t, te.HasNarrative())
	te.Merge(Fragment{PromptInstruction: "be ominous"})
	assert.False(t, te.HasNarrative(), "prompt instructions are not narrative")
	te.Merge(Fragment{InjectedPost: []string{"The bell tolls."}})
	assert.True(t, te.HasNarrative())

	var override TurnEffects
	override.Merge(Fragment{NarrativeOverride: strPtr("Silence.")})
	assert.True(t, override.HasNarrative())
}
