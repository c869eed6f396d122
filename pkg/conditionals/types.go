package conditionals

import "errors"

var (
	// ErrUnknownCondition is reported for a condition tag the engine does not recognize.
	ErrUnknownCondition = errors.New("unknown condition type")
	// ErrInvalidOperator is reported for a numeric comparison with an unsupported operator.
	ErrInvalidOperator = errors.New("invalid comparison operator")
	// ErrMalformedCondition is reported when a recognized condition is missing required fields.
	ErrMalformedCondition = errors.New("malformed condition")
)

// Condition tags as they appear in authored event files.
const (
	TypeLocation            = "location"
	TypeFlagSet             = "flag_set"
	TypeFlagIsSet           = "flag_is_set" // accepted spelling of flag_set
	TypeFlagNotSet          = "flag_not_set"
	TypeInventoryHas        = "inventory_has"
	TypeInventoryNotHas     = "inventory_not_has"
	TypeTurnCountInLocation = "turn_count_in_location"
	TypeTurnCountGlobal     = "turn_count_global"
	TypeStatCheck           = "stat_check"
	TypePlayerActionKeyword = "player_action_keyword"
	TypePlayerIntent        = "player_intent"
	TypePlayerAction        = "player_action"
	TypeGameStart           = "game_start"
)

// Condition is a single predicate over game state and player input.
// The set of implementations is closed; see Parse.
type Condition interface {
	Type() string
	isCondition()
}

// Location is true when the player is at Value.
type Location struct{ Value string }

// FlagSet is true when Flag is present in the flag set.
type FlagSet struct{ Flag string }

// FlagNotSet is true when Flag is absent from the flag set.
type FlagNotSet struct{ Flag string }

// InventoryHas is true when the player holds Item.
type InventoryHas struct{ Item string }

// InventoryNotHas is true when the player does not hold Item.
type InventoryNotHas struct{ Item string }

// TurnCountInLocation compares the turns spent at the current location.
type TurnCountInLocation struct {
	Op    Operator
	Value int
}

// TurnCountGlobal compares the total number of processed turns.
type TurnCountGlobal struct {
	Op    Operator
	Value int
}

// StatCheck compares a player stat. Absent stats read as 0.
type StatCheck struct {
	Stat  string
	Op    Operator
	Value int
}

// PlayerActionKeyword is true when the player's text contains any keyword.
type PlayerActionKeyword struct{ Keywords []string }

// PlayerIntent is true when the classified intent equals Value.
type PlayerIntent struct{ Value string }

// PlayerAction is true when the chosen canonical action id equals Value.
type PlayerAction struct{ Value string }

// GameStart is true only during the session initialization pass.
type GameStart struct{}

// Unknown holds a condition whose tag was not recognized. It always evaluates false.
type Unknown struct {
	RawType string
	Params  map[string]any
}

func (Location) Type() string            { return TypeLocation }
func (FlagSet) Type() string             { return TypeFlagSet }
func (FlagNotSet) Type() string          { return TypeFlagNotSet }
func (InventoryHas) Type() string        { return TypeInventoryHas }
func (InventoryNotHas) Type() string     { return TypeInventoryNotHas }
func (TurnCountInLocation) Type() string { return TypeTurnCountInLocation }
func (TurnCountGlobal) Type() string     { return TypeTurnCountGlobal }
func (StatCheck) Type() string           { return TypeStatCheck }
func (PlayerActionKeyword) Type() string { return TypePlayerActionKeyword }
func (PlayerIntent) Type() string        { return TypePlayerIntent }
func (PlayerAction) Type() string        { return TypePlayerAction }
func (GameStart) Type() string           { return TypeGameStart }
func (u Unknown) Type() string           { return u.RawType }

func (Location) isCondition()            {}
func (FlagSet) isCondition()             {}
func (FlagNotSet) isCondition()          {}
func (InventoryHas) isCondition()        {}
func (InventoryNotHas) isCondition()     {}
func (TurnCountInLocation) isCondition() {}
func (TurnCountGlobal) isCondition()     {}
func (StatCheck) isCondition()           {}
func (PlayerActionKeyword) isCondition() {}
func (PlayerIntent) isCondition()        {}
func (PlayerAction) isCondition()        {}
func (GameStart) isCondition()           {}
func (Unknown) isCondition()             {}

// PlayerInput is everything the player contributed to a turn.
type PlayerInput struct {
	RawText  string `json:"raw_text"`
	Intent   string `json:"intent,omitempty"`    // externally classified intent label
	ActionID string `json:"action_id,omitempty"` // canonical id of a presented choice

	// GameStart is set only for the synthetic pass run at session start.
	GameStart bool `json:"-"`
}

// GameStateView provides the minimal interface needed to evaluate conditions.
// This avoids an import cycle with the state package.
type GameStateView interface {
	GetLocation() string
	HasFlag(flag string) bool
	HasItem(itemID string) bool
	Stat(name string) int
	GetTurnCountGlobal() int
	GetTurnCountInLocation() int
}
