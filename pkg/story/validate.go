package story

import (
	"fmt"

	"github.com/jwebster45206/narrative-engine/pkg/actions"
	"github.com/jwebster45206/narrative-engine/pkg/conditionals"
	"github.com/jwebster45206/narrative-engine/pkg/effects"
)

// ValidationResult collects authoring problems. Errors make a story unusable;
// warnings point at content that loads but probably does not do what the author meant.
type ValidationResult struct {
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Valid reports whether no errors were found.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate lints a loaded story.
func Validate(s *Story) ValidationResult {
	var r ValidationResult

	if s.Title == "" {
		r.errorf("missing required field: title")
	}
	if s.StartingLocation == "" {
		r.errorf("missing required field: starting_location")
	}
	for i, item := range s.InitialInventory {
		if item.ID == "" {
			r.errorf("initial_inventory[%d]: missing id", i)
		}
	}

	ids := make(map[string]bool, len(s.Events))
	for i, ev := range s.Events {
		if ev.ID == "" {
			r.errorf("event %d: missing required 'id' field", i)
			continue
		}
		if ids[ev.ID] {
			r.errorf("event %q: duplicate id", ev.ID)
		}
		ids[ev.ID] = true
	}

	for i, ev := range s.Events {
		name := ev.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		validateEvent(&r, name, ev, ids)
	}

	prev := 0
	turns := make(map[int]bool, len(s.Checkpoints))
	for i, cp := range s.Checkpoints {
		switch {
		case cp.Turn <= 0:
			r.errorf("checkpoint %d: turn must be positive, got %d", i, cp.Turn)
		case turns[cp.Turn]:
			r.errorf("checkpoint %d: duplicate turn %d", i, cp.Turn)
		case cp.Turn < prev:
			r.warnf("checkpoint %d: turn %d is out of order", i, cp.Turn)
		}
		turns[cp.Turn] = true
		if cp.Turn > prev {
			prev = cp.Turn
		}
		if cp.PromptInjection == "" && !cp.ForceEndGame {
			r.warnf("checkpoint %d: does nothing", i)
		}
		for j, fm := range cp.FlagMessages {
			if fm.Flag == "" {
				r.errorf("checkpoint %d flag_messages[%d]: missing flag", i, j)
			}
		}
	}

	return r
}

func validateEvent(r *ValidationResult, name string, ev Event, ids map[string]bool) {
	mode := ParseMode(string(ev.Trigger.Mode))
	if !mode.Valid() {
		r.errorf("event %q: unknown trigger mode %q", name, ev.Trigger.Mode)
	}
	switch {
	case mode == ModeAnd && len(ev.Trigger.Conditions) == 0:
		r.warnf("event %q: AND trigger without conditions fires every turn", name)
	case mode == ModeOr && len(ev.Trigger.Conditions) == 0:
		r.warnf("event %q: OR trigger without conditions never fires", name)
	}
	if len(ev.Actions) == 0 {
		r.warnf("event %q: no actions", name)
	}

	for i, c := range ev.Trigger.Conditions {
		validateCondition(r, fmt.Sprintf("event %q condition %d", name, i), c)
	}

	for i, a := range ev.Actions {
		if actions.IsEndGame(a) && i < len(ev.Actions)-1 {
			r.warnf("event %q: %d action(s) after end_game never run", name, len(ev.Actions)-1-i)
		}
		where := fmt.Sprintf("event %q action %d", name, i)
		switch a := a.(type) {
		case actions.Unknown:
			r.errorf("%s: unknown action type %q", where, a.RawType)
		case actions.Invalid:
			r.errorf("%s: malformed %s: %s", where, a.RawType, a.Reason)
		case actions.AddChoice:
			validateChoice(r, where, a.Choice, ids)
		case actions.PresentChoices:
			for _, c := range a.Choices {
				validateChoice(r, where, c, ids)
			}
		}
	}
}

func validateChoice(r *ValidationResult, where string, c effects.Choice, ids map[string]bool) {
	if id, ok := c.TriggeredEvent(); ok && !ids[id] {
		r.errorf("%s: choice %q triggers unknown event %q", where, c.Label, id)
	}
	if c.Condition != nil {
		validateCondition(r, fmt.Sprintf("%s choice %q", where, c.Label), c.Condition)
	}
}

func validateCondition(r *ValidationResult, where string, c conditionals.Condition) {
	switch c := c.(type) {
	case conditionals.Unknown:
		r.errorf("%s: unknown condition type %q", where, c.RawType)
	case conditionals.Invalid:
		r.errorf("%s: malformed %s: %s", where, c.RawType, c.Reason)
	case conditionals.TurnCountInLocation:
		checkOperator(r, where, c.Op)
	case conditionals.TurnCountGlobal:
		checkOperator(r, where, c.Op)
	case conditionals.StatCheck:
		checkOperator(r, where, c.Op)
	}
}

func checkOperator(r *ValidationResult, where string, op conditionals.Operator) {
	if !op.Valid() {
		r.errorf("%s: invalid operator %q", where, op)
	}
}
