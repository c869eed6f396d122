package state

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/conditionals"
)

// ErrGameEnded is returned when something tries to advance or mutate a finished session.
var ErrGameEnded = errors.New("game has ended")

// Item is an inventory record.
type Item struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Ending marks a finished session.
type Ending struct {
	Success bool    `json:"success"`
	Message *string `json:"message,omitempty"`
}

// GameState is the mutable state of one story session.
// It is owned by a single session and mutated only by the action executor.
type GameState struct {
	ID                  uuid.UUID       `json:"id"`       // Unique ID per session
	StoryID             string          `json:"story_id"` // Identity of the loaded story
	Location            string          `json:"location"`
	Flags               map[string]bool `json:"flags"` // Set membership; values are always true
	Inventory           map[string]Item `json:"inventory"`
	Stats               map[string]int  `json:"stats"`
	TurnCountGlobal     int             `json:"turn_count_global"`
	TurnCountInLocation int             `json:"turn_count_in_location"`
	VisitHistory        []string        `json:"visit_history,omitempty"` // Locations left, oldest first
	FiredOnceEvents     map[string]bool `json:"fired_once_events"`
	CheckpointsFired    map[int]bool    `json:"checkpoints_fired"`
	Ended               *Ending         `json:"ended,omitempty"`
	Narrative           string          `json:"narrative,omitempty"` // Most recent narrative shown to the player
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

var _ conditionals.GameStateView = (*GameState)(nil)

// NewGameState creates an empty session state at the starting location.
func NewGameState(storyID, startingLocation string) *GameState {
	now := time.Now()
	return &GameState{
		ID:               uuid.New(),
		StoryID:          storyID,
		Location:         startingLocation,
		Flags:            make(map[string]bool),
		Inventory:        make(map[string]Item),
		Stats:            make(map[string]int),
		FiredOnceEvents:  make(map[string]bool),
		CheckpointsFired: make(map[int]bool),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate checks the structural invariants of the state.
func (gs *GameState) Validate() error {
	if gs.Location == "" {
		return fmt.Errorf("location must not be empty")
	}
	if gs.StoryID == "" {
		return fmt.Errorf("story id must not be empty")
	}
	if gs.TurnCountGlobal < 0 || gs.TurnCountInLocation < 0 {
		return fmt.Errorf("turn counters must not be negative")
	}
	return nil
}

// Normalize replaces nil collections, e.g. after decoding an older save.
func (gs *GameState) Normalize() {
	if gs.Flags == nil {
		gs.Flags = make(map[string]bool)
	}
	if gs.Inventory == nil {
		gs.Inventory = make(map[string]Item)
	}
	if gs.Stats == nil {
		gs.Stats = make(map[string]int)
	}
	if gs.FiredOnceEvents == nil {
		gs.FiredOnceEvents = make(map[string]bool)
	}
	if gs.CheckpointsFired == nil {
		gs.CheckpointsFired = make(map[int]bool)
	}
}

// Clone returns a deep copy that shares no mutable data with gs.
func (gs *GameState) Clone() *GameState {
	c := *gs
	c.Flags = maps.Clone(gs.Flags)
	c.Inventory = maps.Clone(gs.Inventory)
	c.Stats = maps.Clone(gs.Stats)
	c.FiredOnceEvents = maps.Clone(gs.FiredOnceEvents)
	c.CheckpointsFired = maps.Clone(gs.CheckpointsFired)
	c.VisitHistory = slices.Clone(gs.VisitHistory)
	if gs.Ended != nil {
		e := *gs.Ended
		if gs.Ended.Message != nil {
			msg := *gs.Ended.Message
			e.Message = &msg
		}
		c.Ended = &e
	}
	c.Normalize()
	return &c
}

// GameStateView

func (gs *GameState) GetLocation() string         { return gs.Location }
func (gs *GameState) GetTurnCountGlobal() int     { return gs.TurnCountGlobal }
func (gs *GameState) GetTurnCountInLocation() int { return gs.TurnCountInLocation }

// HasFlag reports flag membership.
func (gs *GameState) HasFlag(flag string) bool {
	return gs.Flags[flag]
}

// HasItem reports whether the player holds itemID.
func (gs *GameState) HasItem(itemID string) bool {
	_, ok := gs.Inventory[itemID]
	return ok
}

// Stat returns a stat value. Absent stats read as 0.
func (gs *GameState) Stat(name string) int {
	return gs.Stats[name]
}

// Mutations

// SetFlag adds flag to the set. Setting a present flag is a no-op.
func (gs *GameState) SetFlag(flag string) {
	if gs.Flags == nil {
		gs.Flags = make(map[string]bool)
	}
	gs.Flags[flag] = true
}

// ClearFlag removes flag from the set. Clearing an absent flag is a no-op.
func (gs *GameState) ClearFlag(flag string) {
	delete(gs.Flags, flag)
}

// AddItem creates or overwrites the record for itemID.
func (gs *GameState) AddItem(itemID string, item Item) {
	if gs.Inventory == nil {
		gs.Inventory = make(map[string]Item)
	}
	gs.Inventory[itemID] = item
}

// RemoveItem removes itemID and reports whether it was held.
func (gs *GameState) RemoveItem(itemID string) bool {
	if _, ok := gs.Inventory[itemID]; !ok {
		return false
	}
	delete(gs.Inventory, itemID)
	return true
}

// UpdateStat adds delta to a stat, treating a missing stat as 0, and returns the new value.
func (gs *GameState) UpdateStat(name string, delta int) int {
	if gs.Stats == nil {
		gs.Stats = make(map[string]int)
	}
	gs.Stats[name] += delta
	return gs.Stats[name]
}

// ChangeLocation moves the player and resets the per-location turn counter.
// The counter resets even when the destination equals the current location.
func (gs *GameState) ChangeLocation(location string) {
	if gs.Location != "" {
		gs.VisitHistory = append(gs.VisitHistory, gs.Location)
	}
	gs.Location = location
	gs.TurnCountInLocation = 0
}

// AdvanceTurn increments both turn counters.
func (gs *GameState) AdvanceTurn() error {
	if gs.IsEnded() {
		return ErrGameEnded
	}
	gs.TurnCountGlobal++
	gs.TurnCountInLocation++
	return nil
}

// MarkFired records a once-only event as fired for the rest of the session.
func (gs *GameState) MarkFired(eventID string) {
	if gs.FiredOnceEvents == nil {
		gs.FiredOnceEvents = make(map[string]bool)
	}
	gs.FiredOnceEvents[eventID] = true
}

// HasFired reports whether a once-only event has already fired.
func (gs *GameState) HasFired(eventID string) bool {
	return gs.FiredOnceEvents[eventID]
}

// MarkCheckpoint records that the checkpoint at turn has executed.
func (gs *GameState) MarkCheckpoint(turn int) {
	if gs.CheckpointsFired == nil {
		gs.CheckpointsFired = make(map[int]bool)
	}
	gs.CheckpointsFired[turn] = true
}

// CheckpointFired reports whether the checkpoint at turn has executed.
func (gs *GameState) CheckpointFired(turn int) bool {
	return gs.CheckpointsFired[turn]
}

// End marks the session as finished. A session can only end once.
func (gs *GameState) End(success bool, message *string) error {
	if gs.IsEnded() {
		return ErrGameEnded
	}
	gs.Ended = &Ending{Success: success, Message: message}
	return nil
}

// IsEnded reports whether the session is over.
func (gs *GameState) IsEnded() bool {
	return gs.Ended != nil
}
