package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/internal/logger"
	"github.com/jwebster45206/narrative-engine/internal/services"
	"github.com/jwebster45206/narrative-engine/internal/services/events"
	"github.com/jwebster45206/narrative-engine/pkg/chat"
	"github.com/jwebster45206/narrative-engine/pkg/effects"
	"github.com/jwebster45206/narrative-engine/pkg/engine"
	"github.com/jwebster45206/narrative-engine/pkg/prompts"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/jwebster45206/narrative-engine/pkg/storage"
	"github.com/jwebster45206/narrative-engine/pkg/story"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jwebster45206/narrative-engine/internal/processor"

// ErrGameNotFound is returned when no saved state exists for a game id.
var ErrGameNotFound = errors.New("game state not found")

// DefaultGenerationTimeout bounds each call to the narrative service.
const DefaultGenerationTimeout = 60 * time.Second

// beginChoice stands in for the player's choice when a story has no intro.
const beginChoice = "Begin the adventure."

// Publisher receives turn outcomes once they are saved.
type Publisher interface {
	PublishTurn(ctx context.Context, eventType events.EventType, gs *state.GameState, resp *chat.TurnResponse) error
}

// TurnProcessor handles the core turn logic used by the HTTP handlers.
// The engine decides what happens; the LLM only supplies prose and choices
// the engine did not provide.
type TurnProcessor struct {
	storage storage.Storage
	llm     services.LLMService
	timeout time.Duration
	events  Publisher
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewTurnProcessor creates a new turn processor. A zero timeout uses DefaultGenerationTimeout.
func NewTurnProcessor(
	storage storage.Storage,
	llm services.LLMService,
	timeout time.Duration,
	logger *slog.Logger,
) *TurnProcessor {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	return &TurnProcessor{
		storage: storage,
		llm:     llm,
		timeout: timeout,
		tracer:  otel.Tracer(tracerName),
		logger:  logger,
	}
}

// WithTracer replaces the tracer taken from the global provider.
func (p *TurnProcessor) WithTracer(tp trace.TracerProvider) *TurnProcessor {
	p.tracer = tp.Tracer(tracerName)
	return p
}

// WithPublisher sets where turn outcomes are broadcast. Nil disables broadcasting.
func (p *TurnProcessor) WithPublisher(pub Publisher) *TurnProcessor {
	p.events = pub
	return p
}

// NewGame starts a session of storyID, runs its game start events and saves it.
func (p *TurnProcessor) NewGame(ctx context.Context, storyID string) (resp *chat.TurnResponse, err error) {
	ctx, span := p.tracer.Start(ctx, "processor.NewGame", trace.WithAttributes(attribute.String("story_id", storyID)))
	defer func() { endSpan(span, resp, err) }()

	s, err := p.storage.GetStory(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load story: %w", err)
	}

	result, err := engine.New(s, p.logger).NewSession()
	if err != nil {
		return nil, err
	}
	gs := result.State
	log := logger.WithGameID(p.logger, gs.ID).With("story_id", s.ID)

	baseline := strings.TrimSpace(s.Intro)
	if baseline == "" && !result.Effects.HasOverride() {
		baseline = p.continueStory(ctx, log, gs, s, &result.Effects, s.Description, beginChoice)
	}
	narrative := result.Effects.Narrative(baseline)
	gs.Narrative = narrative

	choices := p.nextChoices(ctx, log, gs, &result.Effects, narrative)

	if err := p.storage.SaveGameState(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save game state: %w", err)
	}
	log.Info("Game started", "fired", result.Fired)

	resp = response(result, narrative, choices)
	p.publish(ctx, events.EventTypeGameStarted, gs, resp)
	return resp, nil
}

// ProcessTurn runs one player turn. The engine's state is saved before the
// LLM is called, so a failed or slow generation never loses the turn.
func (p *TurnProcessor) ProcessTurn(ctx context.Context, req chat.TurnRequest) (resp *chat.TurnResponse, err error) {
	ctx, span := p.tracer.Start(ctx, "processor.ProcessTurn", trace.WithAttributes(attribute.String("game_id", req.GameStateID.String())))
	defer func() { endSpan(span, resp, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	gs, s, err := p.load(ctx, req.GameStateID)
	if err != nil {
		return nil, err
	}
	log := logger.WithGameID(p.logger, gs.ID).With("story_id", s.ID)

	result, err := engine.New(s, p.logger).ProcessTurn(gs, req.PlayerInput())
	if err != nil {
		return nil, err
	}
	next := result.State

	if err := p.storage.SaveGameState(ctx, next.ID, next); err != nil {
		return nil, fmt.Errorf("failed to save game state: %w", err)
	}

	var baseline string
	if !result.Effects.HasOverride() {
		baseline = p.continueStory(ctx, log, next, s, &result.Effects, gs.Narrative, req.Text())
	}
	narrative := result.Effects.Narrative(baseline)

	var choices []effects.Choice
	if !next.IsEnded() {
		choices = p.nextChoices(ctx, log, next, &result.Effects, narrative)
	}

	next.Narrative = narrative
	if err := p.storage.SaveGameState(ctx, next.ID, next); err != nil {
		logger.WithError(log, err).Error("Failed to save narrative")
	}

	log.Debug("Turn processed",
		"turn", next.TurnCountGlobal,
		"location", next.Location,
		"fired", result.Fired,
		"authored_choices", result.Effects.ChoiceLabels(),
		"ended", next.IsEnded())

	resp = response(result, narrative, choices)
	p.publish(ctx, events.EventTypeTurnCompleted, next, resp)
	return resp, nil
}

// ForceEvent runs one event by id outside the normal trigger scan.
// No narrative is generated; the response carries only what the event produced.
func (p *TurnProcessor) ForceEvent(ctx context.Context, gameID uuid.UUID, eventID string) (resp *chat.TurnResponse, err error) {
	ctx, span := p.tracer.Start(ctx, "processor.ForceEvent", trace.WithAttributes(
		attribute.String("game_id", gameID.String()),
		attribute.String("event_id", eventID),
	))
	defer func() { endSpan(span, resp, err) }()

	gs, s, err := p.load(ctx, gameID)
	if err != nil {
		return nil, err
	}

	result, err := engine.New(s, p.logger).ForceEvent(gs, eventID)
	if err != nil {
		return nil, err
	}
	next := result.State
	var narrative string
	if result.Effects.HasNarrative() {
		narrative = result.Effects.Narrative("")
		next.Narrative = narrative
	}

	if err := p.storage.SaveGameState(ctx, next.ID, next); err != nil {
		return nil, fmt.Errorf("failed to save game state: %w", err)
	}
	p.logger.Info("Event forced", "game_id", next.ID.String(), "event_id", eventID)

	resp = response(result, narrative, result.Effects.Choices)
	p.publish(ctx, events.EventTypeEventForced, next, resp)
	return resp, nil
}

// LoadGame returns the saved state for gameID.
func (p *TurnProcessor) LoadGame(ctx context.Context, gameID uuid.UUID) (*state.GameState, error) {
	gs, err := p.storage.LoadGameState(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game state: %w", err)
	}
	if gs == nil {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return gs, nil
}

// DeleteGame removes the saved state for gameID.
func (p *TurnProcessor) DeleteGame(ctx context.Context, gameID uuid.UUID) error {
	if _, err := p.LoadGame(ctx, gameID); err != nil {
		return err
	}
	if err := p.storage.DeleteGameState(ctx, gameID); err != nil {
		return fmt.Errorf("failed to delete game state: %w", err)
	}
	return nil
}

func (p *TurnProcessor) load(ctx context.Context, gameID uuid.UUID) (*state.GameState, *story.Story, error) {
	gs, err := p.LoadGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	s, err := p.storage.GetStory(ctx, gs.StoryID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load story: %w", err)
	}
	return gs, s, nil
}

// continueStory asks the LLM for the next passage, falling back to fixed
// text when generation fails.
func (p *TurnProcessor) continueStory(
	ctx context.Context,
	log *slog.Logger,
	gs *state.GameState,
	s *story.Story,
	fx *effects.TurnEffects,
	situation string,
	playerChoice string,
) string {
	messages, err := prompts.BuildMessages(gs, s, fx, situation, playerChoice)
	if err != nil {
		log.Error("Failed to build chat messages", "error", err)
		return prompts.FallbackNarrative
	}
	text, err := p.generate(ctx, messages)
	if err != nil || text == "" {
		log.Warn("Story continuation unavailable, using fallback", "error", err)
		return prompts.FallbackNarrative
	}
	return text
}

// nextChoices prefers authored choices, then LLM options, then fixed fallbacks.
func (p *TurnProcessor) nextChoices(
	ctx context.Context,
	log *slog.Logger,
	gs *state.GameState,
	fx *effects.TurnEffects,
	narrative string,
) []effects.Choice {
	if fx.HasChoices() || gs.IsEnded() {
		return fx.Choices
	}

	var labels []string
	messages, err := prompts.New().WithSituation(narrative).BuildOptions()
	if err == nil {
		var raw string
		raw, err = p.generate(ctx, messages)
		labels = prompts.ParseOptions(raw)
	}
	if len(labels) == 0 {
		log.Warn("Choice generation unavailable, using fallback", "error", err)
		labels = prompts.FallbackChoices()
	}

	choices := make([]effects.Choice, len(labels))
	for i, l := range labels {
		choices[i] = effects.Choice{Label: l, Action: l}
	}
	return choices
}

func (p *TurnProcessor) generate(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	if p.llm == nil {
		return "", errors.New("no narrative service configured")
	}
	genCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	genCtx, span := p.tracer.Start(genCtx, "llm.Chat", trace.WithAttributes(attribute.Int("messages", len(messages))))
	defer span.End()

	resp, err := p.llm.Chat(genCtx, messages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return "", err
	}
	return strings.TrimSpace(resp.Message), nil
}

// publish broadcasts a saved turn. Failures are logged and never fail the turn.
func (p *TurnProcessor) publish(ctx context.Context, eventType events.EventType, gs *state.GameState, resp *chat.TurnResponse) {
	if p.events == nil {
		return
	}
	if err := p.events.PublishTurn(ctx, eventType, gs, resp); err != nil {
		logger.WithError(logger.WithGameID(p.logger, gs.ID), err).Warn("Failed to publish game event", "event_type", eventType)
	}
}

func endSpan(span trace.Span, resp *chat.TurnResponse, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if resp != nil {
		span.SetAttributes(
			attribute.String("game_id", resp.GameStateID.String()),
			attribute.StringSlice("fired", resp.Fired),
			attribute.Bool("ended", resp.Ended != nil),
		)
	}
	span.End()
}

func response(result *engine.TurnResult, narrative string, choices []effects.Choice) *chat.TurnResponse {
	resp := &chat.TurnResponse{
		GameStateID: result.State.ID,
		Narrative:   narrative,
		Choices:     choices,
		Ended:       result.State.Ended,
		Fired:       result.Fired,
	}
	for _, d := range result.Diagnostics {
		resp.Diagnostics = append(resp.Diagnostics, d.Error())
	}
	return resp
}
