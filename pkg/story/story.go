package story

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwebster45206/narrative-engine/pkg/actions"
	"github.com/jwebster45206/narrative-engine/pkg/conditionals"
	"gopkg.in/yaml.v3"
)

// Story is the immutable content of one adventure.
type Story struct {
	ID                 string          `yaml:"id" json:"id"`
	Title              string          `yaml:"title" json:"title"`
	Description        string          `yaml:"description,omitempty" json:"description,omitempty"`
	Author             string          `yaml:"author,omitempty" json:"author,omitempty"`
	Version            string          `yaml:"version,omitempty" json:"version,omitempty"`
	Difficulty         string          `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
	Tags               []string        `yaml:"tags,omitempty" json:"tags,omitempty"`
	ContentWarnings    []string        `yaml:"content_warnings,omitempty" json:"content_warnings,omitempty"`
	TotalTurnsEstimate int             `yaml:"total_turns_estimate,omitempty" json:"total_turns_estimate,omitempty"`
	StartingLocation   string          `yaml:"starting_location" json:"starting_location"`
	Intro              string          `yaml:"intro,omitempty" json:"intro,omitempty"` // Opening narrative shown before the first turn
	InitialInventory   []InventoryItem `yaml:"initial_inventory,omitempty" json:"initial_inventory,omitempty"`
	InitialStats       map[string]int  `yaml:"initial_player_stats,omitempty" json:"initial_player_stats,omitempty"`
	Checkpoints        []Checkpoint    `yaml:"checkpoints,omitempty" json:"checkpoints,omitempty"`
	Events             []Event         `yaml:"events,omitempty" json:"events,omitempty"`
}

// Info is the listing metadata of a story.
type Info struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	Author             string   `json:"author,omitempty"`
	Version            string   `json:"version,omitempty"`
	Difficulty         string   `json:"difficulty,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	ContentWarnings    []string `json:"content_warnings,omitempty"`
	TotalTurnsEstimate int      `json:"total_turns_estimate,omitempty"`
}

// Info returns the listing metadata with defaults for unset fields.
func (s *Story) Info() Info {
	info := Info{
		ID:                 s.ID,
		Title:              s.Title,
		Description:        s.Description,
		Author:             s.Author,
		Version:            s.Version,
		Difficulty:         s.Difficulty,
		Tags:               s.Tags,
		ContentWarnings:    s.ContentWarnings,
		TotalTurnsEstimate: s.TotalTurnsEstimate,
	}
	if info.Title == "" {
		info.Title = "Untitled Story"
	}
	if info.Author == "" {
		info.Author = "Unknown"
	}
	if info.Difficulty == "" {
		info.Difficulty = "medium"
	}
	if info.Version == "" {
		info.Version = "1.0"
	}
	return info
}

// InventoryItem is a starting inventory entry. Authored as a bare item id
// or as a mapping with id, name and description.
type InventoryItem struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

type inventoryItemFields InventoryItem

func (i *InventoryItem) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*i = InventoryItem{ID: strings.TrimSpace(value.Value)}
		return nil
	}
	var f inventoryItemFields
	if err := value.Decode(&f); err != nil {
		return fmt.Errorf("decode inventory item: %w", err)
	}
	*i = InventoryItem(f)
	return nil
}

func (i *InventoryItem) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*i = InventoryItem{ID: strings.TrimSpace(id)}
		return nil
	}
	var f inventoryItemFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode inventory item: %w", err)
	}
	*i = InventoryItem(f)
	return nil
}

// Event is one authored trigger/action rule.
type Event struct {
	ID      string       `yaml:"id" json:"id"`
	Name    string       `yaml:"name,omitempty" json:"name,omitempty"`
	Options Options      `yaml:"options,omitempty" json:"options,omitempty"`
	Trigger Trigger      `yaml:"trigger" json:"trigger"`
	Actions actions.List `yaml:"actions" json:"actions"`
}

// Options control how often and in what order an event fires.
type Options struct {
	Once     bool `yaml:"once,omitempty" json:"once,omitempty"`
	Priority int  `yaml:"priority,omitempty" json:"priority,omitempty"` // lower runs first
}

// Trigger gates whether an event fires.
type Trigger struct {
	Mode       Mode              `yaml:"mode,omitempty" json:"mode,omitempty"`
	Conditions conditionals.List `yaml:"conditions,omitempty" json:"conditions,omitempty"`
}

// Mode combines trigger conditions.
type Mode string

const (
	ModeAnd    Mode = "AND"
	ModeOr     Mode = "OR"
	ModeManual Mode = "MANUAL"
)

// ParseMode normalizes an authored mode. Modes are case-insensitive and default to AND.
func ParseMode(s string) Mode {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ModeAnd
	}
	return Mode(s)
}

// Valid reports whether m is a recognized mode.
func (m Mode) Valid() bool {
	switch ParseMode(string(m)) {
	case ModeAnd, ModeOr, ModeManual:
		return true
	}
	return false
}

// Scanned reports whether events with this mode take part in the per-turn scan.
func (m Mode) Scanned() bool {
	p := ParseMode(string(m))
	return p == ModeAnd || p == ModeOr
}

func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	*m = ParseMode(value.Value)
	return nil
}

func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode trigger mode: %w", err)
	}
	*m = ParseMode(s)
	return nil
}

// Checkpoint is a turn-indexed story directive, independent of events.
type Checkpoint struct {
	Turn            int           `yaml:"turn" json:"turn"`
	PromptInjection string        `yaml:"prompt_injection,omitempty" json:"prompt_injection,omitempty"`
	ForceEndGame    bool          `yaml:"force_end_game,omitempty" json:"force_end_game,omitempty"`
	FlagMessages    []FlagMessage `yaml:"flag_messages,omitempty" json:"flag_messages,omitempty"`
}

// FlagMessage picks an ending message based on a flag.
type FlagMessage struct {
	Flag            string `yaml:"flag" json:"flag"`
	MessageIfSet    string `yaml:"message_if_set,omitempty" json:"message_if_set,omitempty"`
	MessageIfNotSet string `yaml:"message_if_not_set,omitempty" json:"message_if_not_set,omitempty"`
}

// EventByID returns the event with the given id.
func (s *Story) EventByID(id string) (*Event, int, bool) {
	for i := range s.Events {
		if s.Events[i].ID == id {
			return &s.Events[i], i, true
		}
	}
	return nil, -1, false
}
