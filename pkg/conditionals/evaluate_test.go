package conditionals

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeView struct {
	location     string
	flags        map[string]bool
	items        map[string]bool
	stats        map[string]int
	turns        int
	turnsInPlace int
}

func (f fakeView) GetLocation() string         { return f.location }
func (f fakeView) HasFlag(flag string) bool    { return f.flags[flag] }
func (f fakeView) HasItem(itemID string) bool  { return f.items[itemID] }
func (f fakeView) Stat(name string) int        { return f.stats[name] }
func (f fakeView) GetTurnCountGlobal() int     { return f.turns }
func (f fakeView) GetTurnCountInLocation() int { return f.turnsInPlace }

func testView() fakeView {
	return fakeView{
		location:     "town_square",
		flags:        map[string]bool{"welcomed_to_eldoria": true},
		items:        map[string]bool{"rusty_key": true},
		stats:        map[string]int{"health": 25},
		turns:        7,
		turnsInPlace: 3,
	}
}

func TestEvaluate(t *testing.T) {
	view := testView()

	tests := []struct {
		name  string
		cond  Condition
		input PlayerInput
		want  bool
	}{
		{name: "location matches", cond: Location{Value: "town_square"}, want: true},
		{name: "location differs", cond: Location{Value: "saltstone_bluffs"}, want: false},
		{name: "flag set", cond: FlagSet{Flag: "welcomed_to_eldoria"}, want: true},
		{name: "flag set absent", cond: FlagSet{Flag: "tide_receded"}, want: false},
		{name: "flag not set absent", cond: FlagNotSet{Flag: "tide_receded"}, want: true},
		{name: "flag not set present", cond: FlagNotSet{Flag: "welcomed_to_eldoria"}, want: false},
		{name: "inventory has", cond: InventoryHas{Item: "rusty_key"}, want: true},
		{name: "inventory has missing", cond: InventoryHas{Item: "lantern"}, want: false},
		{name: "inventory not has", cond: InventoryNotHas{Item: "lantern"}, want: true},
		{name: "turns in location default equality", cond: TurnCountInLocation{Op: ParseOperator(""), Value: 3}, want: true},
		{name: "turns in location >=", cond: TurnCountInLocation{Op: OpGreaterEqual, Value: 3}, want: true},
		{name: "turns in location >", cond: TurnCountInLocation{Op: OpGreater, Value: 3}, want: false},
		{name: "global turns <", cond: TurnCountGlobal{Op: OpLess, Value: 8}, want: true},
		{name: "global turns <=", cond: TurnCountGlobal{Op: OpLessEqual, Value: 6}, want: false},
		{name: "stat check <=", cond: StatCheck{Stat: "health", Op: OpLessEqual, Value: 25}, want: true},
		{name: "absent stat reads zero", cond: StatCheck{Stat: "gold", Op: OpEqual, Value: 0}, want: true},
		{
			name:  "keyword case-insensitive substring",
			cond:  PlayerActionKeyword{Keywords: []string{"lantern", "Desk"}},
			input: PlayerInput{RawText: "I want to SEARCH the desk"},
			want:  true,
		},
		{
			name:  "keyword no match",
			cond:  PlayerActionKeyword{Keywords: []string{"lantern"}},
			input: PlayerInput{RawText: "search the desk"},
			want:  false,
		},
		{
			name: "keyword with empty input",
			cond: PlayerActionKeyword{Keywords: []string{"desk"}},
			want: false,
		},
		{
			name:  "intent matches",
			cond:  PlayerIntent{Value: "explore"},
			input: PlayerInput{Intent: "explore"},
			want:  true,
		},
		{
			name:  "intent is matched verbatim",
			cond:  PlayerIntent{Value: "Attack"},
			input: PlayerInput{Intent: "attack"},
			want:  false,
		},
		{
			name:  "intent ignores surrounding whitespace",
			cond:  PlayerIntent{Value: "attack"},
			input: PlayerInput{Intent: " attack\n"},
			want:  true,
		},
		{
			name:  "intent absent",
			cond:  PlayerIntent{Value: "explore"},
			input: PlayerInput{RawText: "explore"},
			want:  false,
		},
		{
			name:  "action id matches",
			cond:  PlayerAction{Value: "open_gate"},
			input: PlayerInput{RawText: "1", ActionID: "open_gate"},
			want:  true,
		},
		{
			name:  "action falls back to raw text",
			cond:  PlayerAction{Value: "search desk"},
			input: PlayerInput{RawText: "  search desk "},
			want:  true,
		},
		{
			name:  "action id is case sensitive",
			cond:  PlayerAction{Value: "Open_Door"},
			input: PlayerInput{ActionID: "open_door"},
			want:  false,
		},
		{
			name:  "raw text fallback is case sensitive",
			cond:  PlayerAction{Value: "search desk"},
			input: PlayerInput{RawText: "Search Desk"},
			want:  false,
		},
		{name: "game start outside init pass", cond: GameStart{}, want: false},
		{name: "game start during init pass", cond: GameStart{}, input: PlayerInput{GameStart: true}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.cond, view, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_Diagnostics(t *testing.T) {
	view := testView()

	tests := []struct {
		name    string
		cond    Condition
		wantErr error
	}{
		{name: "unknown tag", cond: Unknown{RawType: "flag_is"}, wantErr: ErrUnknownCondition},
		{name: "malformed", cond: Invalid{RawType: TypeLocation, Reason: "missing value"}, wantErr: ErrMalformedCondition},
		{name: "bad operator", cond: StatCheck{Stat: "health", Op: Operator("!="), Value: 1}, wantErr: ErrInvalidOperator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.cond, view, PlayerInput{})
			assert.False(t, got)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestEvaluateAll(t *testing.T) {
	view := testView()

	ok, diags := EvaluateAll(nil, view, PlayerInput{})
	assert.True(t, ok, "empty AND list is vacuously true")
	assert.Empty(t, diags)

	ok, _ = EvaluateAll([]Condition{
		Location{Value: "town_square"},
		FlagSet{Flag: "welcomed_to_eldoria"},
	}, view, PlayerInput{})
	assert.True(t, ok)

	ok, _ = EvaluateAll([]Condition{
		Location{Value: "town_square"},
		FlagSet{Flag: "tide_receded"},
	}, view, PlayerInput{})
	assert.False(t, ok)

	ok, diags = EvaluateAll([]Condition{
		Location{Value: "town_square"},
		Unknown{RawType: "weather_is"},
	}, view, PlayerInput{})
	assert.False(t, ok)
	require.Len(t, diags, 1)
	assert.ErrorIs(t, diags[0], ErrUnknownCondition)
}

func TestEvaluateAny(t *testing.T) {
	view := testView()

	ok, diags := EvaluateAny(nil, view, PlayerInput{})
	assert.False(t, ok, "empty OR list never fires")
	assert.Empty(t, diags)

	ok, _ = EvaluateAny([]Condition{
		Location{Value: "saltstone_bluffs"},
		FlagSet{Flag: "welcomed_to_eldoria"},
	}, view, PlayerInput{})
	assert.True(t, ok)

	ok, diags = EvaluateAny([]Condition{
		Unknown{RawType: "weather_is"},
		Location{Value: "saltstone_bluffs"},
	}, view, PlayerInput{})
	assert.False(t, ok)
	assert.Len(t, diags, 1)
}

func TestContainsAnyKeyword(t *testing.T) {
	assert.True(t, ContainsAnyKeyword("Look Around the square", []string{"look around"}))
	assert.True(t, ContainsAnyKeyword("ENTER THE ÉGLISE", []string{"église"}), "unicode case folding")
	assert.False(t, ContainsAnyKeyword("look", []string{"", "  "}))
	assert.False(t, ContainsAnyKeyword("", []string{"look"}))
}
