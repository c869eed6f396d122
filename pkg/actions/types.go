package actions

import (
	"errors"

	"github.com/jwebster45206/narrative-engine/pkg/effects"
)

var (
	// ErrUnknownAction is reported for an action tag the engine does not recognize.
	ErrUnknownAction = errors.New("unknown action type")
	// ErrMalformedAction is reported when a recognized action is missing required fields.
	ErrMalformedAction = errors.New("malformed action")
	// ErrItemNotHeld is reported by remove_item for an item the player does not have.
	ErrItemNotHeld = errors.New("item not in inventory")
)

// Action tags as they appear in authored event files.
const (
	TypeSetFlag           = "set_flag"
	TypeClearFlag         = "clear_flag"
	TypeAddItem           = "add_item"
	TypeRemoveItem        = "remove_item"
	TypeChangeLocation    = "change_location"
	TypeUpdateStat        = "update_stat"
	TypeOverrideNarrative = "override_narrative"
	TypeInjectNarrative   = "inject_narrative"
	TypeModifyPrompt      = "modify_prompt"
	TypeAddChoice         = "add_choice"
	TypePresentChoices    = "present_choices"
	TypeEndGame           = "end_game"
)

// Action is a single state mutation or output directive of an event.
type Action interface {
	Type() string
	isAction()
}

type SetFlag struct{ Flag string }

type ClearFlag struct{ Flag string }

// AddItem creates or overwrites an inventory record.
type AddItem struct {
	Item        string
	Name        string
	Description string
}

type RemoveItem struct{ Item string }

// ChangeLocation moves the player and resets the per-location turn counter.
type ChangeLocation struct{ Location string }

// UpdateStat adds ChangeBy to Stat. There is no clamping.
type UpdateStat struct {
	Stat     string
	ChangeBy int
}

// OverrideNarrative replaces the turn's narrative text.
type OverrideNarrative struct{ Text string }

// InjectNarrative adds text before or after the narrative.
type InjectNarrative struct {
	Text     string
	Position string
}

// ModifyPrompt forwards an instruction to the narrative generator.
type ModifyPrompt struct{ Instruction string }

type AddChoice struct{ Choice effects.Choice }

// PresentChoices offers a batch of choices with an optional prompt.
type PresentChoices struct {
	Prompt  string
	Choices []effects.Choice
}

// EndGame finishes the session.
type EndGame struct {
	Success bool
	Message *string
}

// Invalid is a recognized action that is missing required fields. It is a no-op.
type Invalid struct {
	RawType string
	Reason  string
}

// Unknown is an unrecognized action. It is a no-op.
type Unknown struct {
	RawType string
	Params  map[string]any
}

func (SetFlag) Type() string           { return TypeSetFlag }
func (ClearFlag) Type() string         { return TypeClearFlag }
func (AddItem) Type() string           { return TypeAddItem }
func (RemoveItem) Type() string        { return TypeRemoveItem }
func (ChangeLocation) Type() string    { return TypeChangeLocation }
func (UpdateStat) Type() string        { return TypeUpdateStat }
func (OverrideNarrative) Type() string { return TypeOverrideNarrative }
func (InjectNarrative) Type() string   { return TypeInjectNarrative }
func (ModifyPrompt) Type() string      { return TypeModifyPrompt }
func (AddChoice) Type() string         { return TypeAddChoice }
func (PresentChoices) Type() string    { return TypePresentChoices }
func (EndGame) Type() string           { return TypeEndGame }
func (i Invalid) Type() string         { return i.RawType }
func (u Unknown) Type() string         { return u.RawType }

func (SetFlag) isAction()           {}
func (ClearFlag) isAction()         {}
func (AddItem) isAction()           {}
func (RemoveItem) isAction()        {}
func (ChangeLocation) isAction()    {}
func (UpdateStat) isAction()        {}
func (OverrideNarrative) isAction() {}
func (InjectNarrative) isAction()   {}
func (ModifyPrompt) isAction()      {}
func (AddChoice) isAction()         {}
func (PresentChoices) isAction()    {}
func (EndGame) isAction()           {}
func (Invalid) isAction()           {}
func (Unknown) isAction()           {}
