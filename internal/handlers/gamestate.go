package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/internal/processor"
)

type GameStateHandler struct {
	processor *processor.TurnProcessor
	logger    *slog.Logger
}

func NewGameStateHandler(processor *processor.TurnProcessor, logger *slog.Logger) *GameStateHandler {
	return &GameStateHandler{
		processor: processor,
		logger:    logger,
	}
}

// ServeHTTP handles HTTP requests for game state operations
// Routes:
// POST /v1/gamestate                         - Start a new game
// GET /v1/gamestate/{id}                     - Read game state by ID
// DELETE /v1/gamestate/{id}                  - Delete game state by ID
// POST /v1/gamestate/{id}/force/{event_id}   - Run an event by ID
func (h *GameStateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/gamestate"), "/")
	var parts []string
	if path != "" {
		parts = strings.Split(path, "/")
	}

	var gameStateID uuid.UUID
	if len(parts) > 0 {
		var err error
		gameStateID, err = uuid.Parse(parts[0])
		if err != nil {
			h.logger.Warn("Invalid game state ID", "id", parts[0], "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid game state ID format")
			return
		}
	}

	switch {
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.handleCreate(w, r)

	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleRead(w, r, gameStateID)

	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.handleDelete(w, r, gameStateID)

	case len(parts) == 3 && parts[1] == "force" && r.Method == http.MethodPost:
		h.handleForce(w, r, gameStateID, parts[2])

	case len(parts) == 0:
		h.logger.Warn("Game state ID is required", "method", r.Method)
		writeError(w, h.logger, http.StatusBadRequest, "Game state ID is required for "+r.Method+" requests")

	case len(parts) == 1 || (len(parts) == 3 && parts[1] == "force"):
		h.logger.Warn("Method not allowed for game state endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET, DELETE")

	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown game state route")
	}
}

// CreateGameStateRequest defines the request body for starting a new game
type CreateGameStateRequest struct {
	StoryID string `json:"story_id"` // Required: story directory name
}

// normalizeID converts a string to lowercase snake_case for consistent IDs.
// It handles spaces and hyphens; other punctuation is dropped.
func normalizeID(s string) string {
	if s == "" {
		return ""
	}

	var out strings.Builder
	prevUnderscore := false
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r = r + ('a' - 'A')
		}
		switch {
		case r == ' ' || r == '-' || r == '_':
			if !prevUnderscore && out.Len() > 0 {
				out.WriteRune('_')
				prevUnderscore = true
			}

		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			out.WriteRune(r)
			prevUnderscore = false

		default:
			// Ignore other characters
		}
	}
	return strings.TrimSuffix(out.String(), "_")
}

func (h *GameStateHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateGameStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	req.StoryID = normalizeID(req.StoryID)
	if req.StoryID == "" {
		h.logger.Warn("Missing required field: story_id")
		writeError(w, h.logger, http.StatusBadRequest, "story_id field is required")
		return
	}

	resp, err := h.processor.NewGame(r.Context(), req.StoryID)
	if err != nil {
		status := statusFor(err)
		h.logger.Log(r.Context(), levelFor(status), "Failed to start game", "error", err, "story_id", req.StoryID)
		writeError(w, h.logger, status, "Failed to start game: "+err.Error())
		return
	}

	h.logger.Debug("Game state created successfully", "game_id", resp.GameStateID.String())
	writeJSON(w, h.logger, http.StatusCreated, resp)
}

func (h *GameStateHandler) handleRead(w http.ResponseWriter, r *http.Request, gameStateID uuid.UUID) {
	gs, err := h.processor.LoadGame(r.Context(), gameStateID)
	if err != nil {
		status := statusFor(err)
		h.logger.Log(r.Context(), levelFor(status), "Failed to load game state", "error", err, "game_id", gameStateID.String())
		if status == http.StatusNotFound {
			writeError(w, h.logger, status, "Game state not found")
		} else {
			writeError(w, h.logger, status, "Failed to load game state")
		}
		return
	}
	writeJSON(w, h.logger, http.StatusOK, gs)
}

func (h *GameStateHandler) handleDelete(w http.ResponseWriter, r *http.Request, gameStateID uuid.UUID) {
	if err := h.processor.DeleteGame(r.Context(), gameStateID); err != nil {
		status := statusFor(err)
		h.logger.Log(r.Context(), levelFor(status), "Failed to delete game state", "error", err, "game_id", gameStateID.String())
		writeError(w, h.logger, status, "Failed to delete game state")
		return
	}
	h.logger.Debug("Game state deleted successfully", "game_id", gameStateID.String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameStateHandler) handleForce(w http.ResponseWriter, r *http.Request, gameStateID uuid.UUID, eventID string) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "event_id is required")
		return
	}

	resp, err := h.processor.ForceEvent(r.Context(), gameStateID, eventID)
	if err != nil {
		status := statusFor(err)
		h.logger.Log(r.Context(), levelFor(status), "Failed to force event", "error", err, "game_id", gameStateID.String(), "event_id", eventID)
		writeError(w, h.logger, status, err.Error())
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}
