// Package engine runs authored story events against a session's game state.
//
// Each turn the engine advances the turn counters, scans AND/OR events in
// (priority, declaration order) and fires those whose trigger holds against
// the state as it stands at that moment, so an event sees the mutations of
// every event fired before it in the same turn. A story's checkpoints run
// as a separate pass afterwards. All work happens on a copy of the caller's
// state; the caller only sees the result once the turn is complete.
package engine

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jwebster45206/narrative-engine/pkg/actions"
	"github.com/jwebster45206/narrative-engine/pkg/conditionals"
	"github.com/jwebster45206/narrative-engine/pkg/effects"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/jwebster45206/narrative-engine/pkg/story"
)

var (
	// ErrEventNotFound is returned when a forced event id is not in the story.
	ErrEventNotFound = errors.New("event not found")
	// ErrEventAlreadyFired is returned when forcing a once-only event that has already fired.
	ErrEventAlreadyFired = errors.New("event already fired")
	// ErrNilState is returned when no game state is supplied.
	ErrNilState = errors.New("game state is nil")
)

// Diagnostic is a non-fatal problem found while processing a turn.
type Diagnostic struct {
	EventID    string `json:"event_id,omitempty"`
	Checkpoint int    `json:"checkpoint,omitempty"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (d Diagnostic) Error() string {
	if d.EventID != "" {
		return fmt.Sprintf("event %q: %s", d.EventID, d.Message)
	}
	return d.Message
}

func (d Diagnostic) Unwrap() error { return d.Err }

// TurnResult is the outcome of one engine call.
type TurnResult struct {
	State       *state.GameState    `json:"state"`
	Effects     effects.TurnEffects `json:"effects"`
	Fired       []string            `json:"fired,omitempty"` // event ids in firing order
	Diagnostics []Diagnostic        `json:"diagnostics,omitempty"`
}

// Engine evaluates one story's events. It holds no session state and is
// safe to share between sessions.
type Engine struct {
	story  *story.Story
	order  []int // indexes into story.Events sorted by (priority, declaration order)
	logger *slog.Logger
}

// New creates an engine for s.
func New(s *story.Story, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	order := make([]int, len(s.Events))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(s.Events[a].Options.Priority, s.Events[b].Options.Priority)
	})
	return &Engine{story: s, order: order, logger: logger}
}

// Story returns the story the engine was built for.
func (e *Engine) Story() *story.Story {
	return e.story
}

// NewSession builds a fresh state from the story defaults and runs the
// game_start pass: every MANUAL event with conditions that all hold when
// game_start is true fires once, in (priority, declaration order).
// Turn counters are not advanced and checkpoints do not run.
func (e *Engine) NewSession() (*TurnResult, error) {
	gs := state.NewGameState(e.story.ID, e.story.StartingLocation)
	for _, item := range e.story.InitialInventory {
		if item.ID == "" {
			continue
		}
		name := item.Name
		if name == "" {
			name = item.ID
		}
		gs.AddItem(item.ID, state.Item{Name: name, Description: item.Description})
	}
	for stat, v := range e.story.InitialStats {
		gs.Stats[stat] = v
	}
	if err := gs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid story defaults: %w", err)
	}

	t := e.newTurn(gs)
	in := conditionals.PlayerInput{GameStart: true}
	for _, idx := range e.order {
		ev := &e.story.Events[idx]
		if story.ParseMode(string(ev.Trigger.Mode)) != story.ModeManual || len(ev.Trigger.Conditions) == 0 {
			continue
		}
		if ev.Options.Once && gs.HasFired(ev.ID) {
			continue
		}
		ok, diags := conditionals.EvaluateAll(ev.Trigger.Conditions, gs, in)
		t.conditionDiagnostics(ev.ID, diags)
		if !ok {
			continue
		}
		if t.fire(ev) {
			break
		}
	}
	return t.finish(), nil
}

// ProcessTurn runs one player turn against a copy of gs.
// It returns state.ErrGameEnded if the session is already over.
func (e *Engine) ProcessTurn(gs *state.GameState, in conditionals.PlayerInput) (*TurnResult, error) {
	if gs == nil {
		return nil, ErrNilState
	}
	if gs.IsEnded() {
		return nil, state.ErrGameEnded
	}

	next := gs.Clone()
	if err := next.AdvanceTurn(); err != nil {
		return nil, err
	}
	t := e.newTurn(next)

	if id, ok := effects.TriggeredEvent(in.ActionID); ok {
		t.forceFromChoice(id)
	}

	if !next.IsEnded() {
		e.scan(t, in)
	}
	if !next.IsEnded() {
		e.runCheckpoints(t)
	}

	return t.finish(), nil
}

// ForceEvent runs the actions of one event by id, bypassing its trigger.
// Counters are not advanced and checkpoints do not run. Once-only events
// that already fired are rejected.
func (e *Engine) ForceEvent(gs *state.GameState, eventID string) (*TurnResult, error) {
	if gs == nil {
		return nil, ErrNilState
	}
	if gs.IsEnded() {
		return nil, state.ErrGameEnded
	}
	ev, _, ok := e.story.EventByID(eventID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEventNotFound, eventID)
	}
	if ev.Options.Once && gs.HasFired(ev.ID) {
		return nil, fmt.Errorf("%w: %q", ErrEventAlreadyFired, eventID)
	}

	t := e.newTurn(gs.Clone())
	t.fire(ev)
	return t.finish(), nil
}

// scan evaluates AND/OR candidates in order, each against the current state.
func (e *Engine) scan(t *turn, in conditionals.PlayerInput) {
	for _, idx := range e.order {
		ev := &e.story.Events[idx]
		mode := story.ParseMode(string(ev.Trigger.Mode))
		if !mode.Scanned() {
			if !mode.Valid() {
				t.diagnose(Diagnostic{EventID: ev.ID, Message: fmt.Sprintf("unknown trigger mode %q", ev.Trigger.Mode)})
			}
			continue
		}
		if ev.Options.Once && t.gs.HasFired(ev.ID) {
			continue
		}

		var ok bool
		var diags []error
		if mode == story.ModeOr {
			ok, diags = conditionals.EvaluateAny(ev.Trigger.Conditions, t.gs, in)
		} else {
			ok, diags = conditionals.EvaluateAll(ev.Trigger.Conditions, t.gs, in)
		}
		t.conditionDiagnostics(ev.ID, diags)
		if !ok {
			continue
		}
		if t.fire(ev) {
			return
		}
	}
}

// runCheckpoints fires every checkpoint for the current global turn that has not fired yet.
func (e *Engine) runCheckpoints(t *turn) {
	gs := t.gs
	for _, cp := range e.story.Checkpoints {
		if gs.IsEnded() {
			return
		}
		if cp.Turn != gs.TurnCountGlobal || gs.CheckpointFired(cp.Turn) {
			continue
		}

		t.effects.AddInstruction(cp.PromptInjection)
		if cp.ForceEndGame {
			success, msg := resolveEnding(cp, gs)
			if err := gs.End(success, msg); err != nil {
				t.diagnose(Diagnostic{Checkpoint: cp.Turn, Message: "force end failed", Err: err})
			}
		}
		gs.MarkCheckpoint(cp.Turn)
		e.logger.Debug("Checkpoint reached", "game_id", gs.ID, "turn", cp.Turn, "force_end", cp.ForceEndGame)
	}
}

// resolveEnding uses the first flag message with a message for the flag's
// current value. The ending counts as a success only when that message is
// the "if set" branch.
func resolveEnding(cp story.Checkpoint, gs *state.GameState) (bool, *string) {
	for _, fm := range cp.FlagMessages {
		if gs.HasFlag(fm.Flag) {
			if fm.MessageIfSet != "" {
				msg := fm.MessageIfSet
				return true, &msg
			}
			continue
		}
		if fm.MessageIfNotSet != "" {
			msg := fm.MessageIfNotSet
			return false, &msg
		}
	}
	return false, nil
}

// turn accumulates the results of one engine call.
type turn struct {
	e       *Engine
	gs      *state.GameState
	effects effects.TurnEffects
	fired   []string
	diags   []Diagnostic
}

func (e *Engine) newTurn(gs *state.GameState) *turn {
	return &turn{e: e, gs: gs}
}

// forceFromChoice runs the event named by a trigger:<id> choice.
func (t *turn) forceFromChoice(eventID string) {
	ev, _, ok := t.e.story.EventByID(eventID)
	if !ok {
		t.diagnose(Diagnostic{EventID: eventID, Message: "chosen trigger names an unknown event", Err: ErrEventNotFound})
		return
	}
	if ev.Options.Once && t.gs.HasFired(ev.ID) {
		t.diagnose(Diagnostic{EventID: eventID, Message: "chosen trigger names an event that already fired", Err: ErrEventAlreadyFired})
		return
	}
	t.fire(ev)
}

// fire applies an event's actions in order and reports whether the session ended.
func (t *turn) fire(ev *story.Event) bool {
	t.fired = append(t.fired, ev.ID)
	if ev.Options.Once {
		t.gs.MarkFired(ev.ID)
	}
	t.e.logger.Debug("Event fired", "game_id", t.gs.ID, "event_id", ev.ID, "priority", ev.Options.Priority)

	for i, a := range ev.Actions {
		frag, err := actions.Apply(a, t.gs)
		if err != nil {
			t.diagnose(Diagnostic{EventID: ev.ID, Message: fmt.Sprintf("action %d (%s): %v", i, a.Type(), err), Err: err})
			if errors.Is(err, state.ErrGameEnded) {
				return true
			}
			continue
		}
		t.effects.Merge(frag)
		if t.gs.IsEnded() {
			t.e.logger.Info("Game ended by event", "game_id", t.gs.ID, "event_id", ev.ID, "success", t.gs.Ended.Success)
			return true
		}
	}
	return false
}

func (t *turn) conditionDiagnostics(eventID string, errs []error) {
	for _, err := range errs {
		t.diagnose(Diagnostic{EventID: eventID, Message: err.Error(), Err: err})
	}
}

func (t *turn) diagnose(d Diagnostic) {
	t.diags = append(t.diags, d)
	t.e.logger.Warn("Story content diagnostic",
		"game_id", t.gs.ID,
		"event_id", d.EventID,
		"checkpoint", d.Checkpoint,
		"message", d.Message)
}

func (t *turn) finish() *TurnResult {
	for _, err := range t.effects.FilterChoices(t.gs) {
		t.diagnose(Diagnostic{Message: "choice condition: " + err.Error(), Err: err})
	}
	t.effects.Ended = t.gs.Ended
	t.gs.UpdatedAt = time.Now()
	return &TurnResult{
		State:       t.gs,
		Effects:     t.effects,
		Fired:       t.fired,
		Diagnostics: t.diags,
	}
}
