package conditionals

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Condition
	}{
		{
			name: "location",
			raw:  map[string]any{"type": "location", "value": "town_square"},
			want: Location{Value: "town_square"},
		},
		{
			name: "flag_is_set is read as flag_set",
			raw:  map[string]any{"type": "flag_is_set", "value": "met_keeper"},
			want: FlagSet{Flag: "met_keeper"},
		},
		{
			name: "turn count without operator defaults to equality",
			raw:  map[string]any{"type": "turn_count_in_location", "value": 3},
			want: TurnCountInLocation{Op: OpEqual, Value: 3},
		},
		{
			name: "json numbers arrive as float64",
			raw:  map[string]any{"type": "turn_count_global", "value": float64(10), "operator": ">="},
			want: TurnCountGlobal{Op: OpGreaterEqual, Value: 10},
		},
		{
			name: "stat check",
			raw:  map[string]any{"type": "stat_check", "stat": "health", "operator": "<=", "value": 25},
			want: StatCheck{Stat: "health", Op: OpLessEqual, Value: 25},
		},
		{
			name: "fractional stat value is invalid",
			raw:  map[string]any{"type": "stat_check", "stat": "health", "operator": ">=", "value": 25.5},
			want: Invalid{RawType: "stat_check", Reason: "stat_check needs stat and an integer value"},
		},
		{
			name: "fractional turn count is invalid",
			raw:  map[string]any{"type": "turn_count_global", "value": "2.5"},
			want: Invalid{RawType: "turn_count_global", Reason: "value must be an integer"},
		},
		{
			name: "keywords from a decoded list",
			raw:  map[string]any{"type": "player_action_keyword", "keywords": []any{"search", "desk"}},
			want: PlayerActionKeyword{Keywords: []string{"search", "desk"}},
		},
		{
			name: "intent read from intent key",
			raw:  map[string]any{"type": "player_intent", "intent": "explore"},
			want: PlayerIntent{Value: "explore"},
		},
		{
			name: "game start",
			raw:  map[string]any{"type": "game_start"},
			want: GameStart{},
		},
		{
			name: "missing value is invalid",
			raw:  map[string]any{"type": "location"},
			want: Invalid{RawType: "location", Reason: "missing value"},
		},
		{
			name: "other misspellings are not guessed",
			raw:  map[string]any{"type": "flag_is", "value": "x"},
			want: Unknown{RawType: "flag_is", Params: map[string]any{"type": "flag_is", "value": "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw))
		})
	}
}

func TestList_UnmarshalYAML(t *testing.T) {
	src := `
- type: location
  value: saltstone_bluffs
- type: turn_count_in_location
  value: 3
  operator: ">="
- type: flag_not_set
  value: tide_receded
- type: bogus_type
`
	var l List
	require.NoError(t, yaml.Unmarshal([]byte(src), &l))
	require.Len(t, l, 4)
	assert.Equal(t, Location{Value: "saltstone_bluffs"}, l[0])
	assert.Equal(t, TurnCountInLocation{Op: OpGreaterEqual, Value: 3}, l[1])
	assert.Equal(t, FlagNotSet{Flag: "tide_receded"}, l[2])
	assert.Equal(t, "bogus_type", l[3].Type())
}

func TestList_UnmarshalJSON(t *testing.T) {
	var l List
	err := json.Unmarshal([]byte(`[{"type":"inventory_has","value":"lantern"},{"type":"player_action","value":"open_gate"}]`), &l)
	require.NoError(t, err)
	assert.Equal(t, List{InventoryHas{Item: "lantern"}, PlayerAction{Value: "open_gate"}}, l)

	assert.Error(t, json.Unmarshal([]byte(`{"type":"location"}`), &l))
}

func TestFractionalStatCheckNeverPasses(t *testing.T) {
	var l List
	require.NoError(t, yaml.Unmarshal([]byte("- type: stat_check\n  stat: health\n  operator: \">=\"\n  value: 25.5\n"), &l))
	require.Len(t, l, 1)

	ok, err := Evaluate(l[0], testView(), PlayerInput{})
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrMalformedCondition)
}
