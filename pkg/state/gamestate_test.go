package state

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewGameState(t *testing.T) {
	gs := NewGameState("eldoria", "town_square")
	if gs.Location != "town_square" {
		t.Errorf("expected location town_square, got %q", gs.Location)
	}
	if gs.StoryID != "eldoria" {
		t.Errorf("expected story id eldoria, got %q", gs.StoryID)
	}
	if gs.Flags == nil || gs.Inventory == nil || gs.Stats == nil || gs.FiredOnceEvents == nil || gs.CheckpointsFired == nil {
		t.Fatal("expected all collections to be initialized")
	}
	if err := gs.Validate(); err != nil {
		t.Errorf("expected new state to validate, got %v", err)
	}
}

func TestGameState_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(gs *GameState)
		wantErr bool
	}{
		{name: "valid", mutate: func(gs *GameState) {}},
		{name: "empty location", mutate: func(gs *GameState) { gs.Location = "" }, wantErr: true},
		{name: "empty story", mutate: func(gs *GameState) { gs.StoryID = "" }, wantErr: true},
		{name: "negative counter", mutate: func(gs *GameState) { gs.TurnCountInLocation = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := NewGameState("eldoria", "town_square")
			tt.mutate(gs)
			err := gs.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGameState_Flags(t *testing.T) {
	gs := NewGameState("eldoria", "town_square")

	gs.SetFlag("met_keeper")
	gs.SetFlag("met_keeper")
	if !gs.HasFlag("met_keeper") || len(gs.Flags) != 1 {
		t.Errorf("expected a single met_keeper flag, got %v", gs.Flags)
	}

	gs.ClearFlag("met_keeper")
	gs.ClearFlag("met_keeper")
	if gs.HasFlag("met_keeper") {
		t.Error("expected flag to be cleared")
	}
	gs.ClearFlag("never_set")
}

func TestGameState_Inventory(t *testing.T) {
	gs := NewGameState("eldoria", "town_square")

	gs.AddItem("lantern", Item{Name: "Lantern"})
	gs.AddItem("lantern", Item{Name: "Brass Lantern", Description: "Polished."})
	if got := gs.Inventory["lantern"].Name; got != "Brass Lantern" {
		t.Errorf("expected add_item to overwrite the record, got %q", got)
	}
	if !gs.HasItem("lantern") {
		t.Error("expected lantern in inventory")
	}
	if !gs.RemoveItem("lantern") {
		t.Error("expected RemoveItem to report the item was held")
	}
	if gs.RemoveItem("lantern") {
		t.Error("expected RemoveItem on an absent item to report false")
	}
}

func TestGameState_Stats(t *testing.T) {
	gs := NewGameState("eldoria", "town_square")
	if gs.Stat("health") != 0 {
		t.Error("expected absent stat to read 0")
	}
	if got := gs.UpdateStat("health", -5); got != -5 {
		t.Errorf("expected -5 with no clamping, got %d", got)
	}
	gs.UpdateStat("health", 30)
	if gs.Stat("health") != 25 {
		t.Errorf("expected 25, got %d", gs.Stat("health"))
	}
}

func TestGameState_ChangeLocation(t *testing.T) {
	gs := NewGameState("eldoria", "town_square")
	_ = gs.AdvanceTurn()
	_ = gs.AdvanceTurn()

	gs.ChangeLocation("saltstone_bluffs")
	if gs.TurnCountInLocation != 0 {
		t.Errorf("expected location counter reset, got %d", gs.TurnCountInLocation)
	}
	if gs.TurnCountGlobal != 2 {
		t.Errorf("expected global counter untouched, got %d", gs.TurnCountGlobal)
	}
	if len(gs.VisitHistory) != 1 || gs.VisitHistory[0] != "town_square" {
		t.Error("expected town_square in visit history")
	}

	_ = gs.AdvanceTurn()
	gs.ChangeLocation("saltstone_bluffs")
	if gs.TurnCountInLocation != 0 {
		t.Error("expected reset even when moving to the same location")
	}
}

func TestGameState_End(t *testing.T) {
	gs := NewGameState("eldoria", "town_square")
	msg := "The tide claims you."
	if err := gs.End(false, &msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gs.IsEnded() || gs.Ended.Success {
		t.Errorf("expected failed ending, got %+v", gs.Ended)
	}
	if err := gs.End(true, nil); !errors.Is(err, ErrGameEnded) {
		t.Errorf("expected ErrGameEnded on second end, got %v", err)
	}
	if err := gs.AdvanceTurn(); !errors.Is(err, ErrGameEnded) {
		t.Errorf("expected ErrGameEnded on advance, got %v", err)
	}
}

func TestGameState_Clone(t *testing.T) {
	gs := NewGameState("eldoria", "town_square")
	gs.SetFlag("a")
	gs.AddItem("key", Item{Name: "Key"})
	gs.UpdateStat("health", 10)
	gs.MarkFired("welcome_to_eldoria")
	gs.MarkCheckpoint(5)
	gs.ChangeLocation("market")
	msg := "done"
	_ = gs.End(true, &msg)

	c := gs.Clone()
	c.SetFlag("b")
	c.RemoveItem("key")
	c.UpdateStat("health", 1)
	c.MarkFired("other")
	c.MarkCheckpoint(10)
	c.VisitHistory[0] = "nowhere"
	*c.Ended.Message = "changed"

	if gs.HasFlag("b") || !gs.HasItem("key") || gs.Stat("health") != 10 {
		t.Error("clone shares flags, inventory or stats with the original")
	}
	if gs.HasFired("other") || gs.CheckpointFired(10) {
		t.Error("clone shares fired sets with the original")
	}
	if gs.VisitHistory[0] != "town_square" {
		t.Error("clone shares visit history with the original")
	}
	if *gs.Ended.Message != "done" {
		t.Error("clone shares the ending message with the original")
	}
}

func TestGameState_JSONRoundTripKeepsSessionProgress(t *testing.T) {
	gs := NewGameState("eldoria", "town_square")
	gs.MarkFired("welcome_to_eldoria")
	gs.MarkCheckpoint(3)
	_ = gs.AdvanceTurn()

	data, err := json.Marshal(gs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var loaded GameState
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if loaded.ID != gs.ID || loaded.StoryID != "eldoria" {
		t.Errorf("expected identity to survive, got %s/%s", loaded.ID, loaded.StoryID)
	}
	if !loaded.HasFired("welcome_to_eldoria") || !loaded.CheckpointFired(3) {
		t.Error("expected fired sets to survive a save")
	}
	if loaded.TurnCountGlobal != 1 || loaded.TurnCountInLocation != 1 {
		t.Errorf("expected counters to survive, got %d/%d", loaded.TurnCountGlobal, loaded.TurnCountInLocation)
	}
}

func TestGameState_Normalize(t *testing.T) {
	var gs GameState
	gs.Normalize()
	gs.MarkFired("x")
	gs.MarkCheckpoint(1)
	if !gs.HasFired("x") || !gs.CheckpointFired(1) {
		t.Error("expected normalized state to accept writes")
	}
}
