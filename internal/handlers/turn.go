package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/narrative-engine/internal/processor"
	"github.com/jwebster45206/narrative-engine/pkg/chat"
)

// TurnHandler handles player turns
type TurnHandler struct {
	processor *processor.TurnProcessor
	logger    *slog.Logger
}

// NewTurnHandler creates a new turn handler
func NewTurnHandler(processor *processor.TurnProcessor, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{
		processor: processor,
		logger:    logger,
	}
}

// ServeHTTP handles POST /v1/turn
func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for turn endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var request chat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'gamestate_id' and 'message' or 'action_id'.")
		return
	}

	if err := request.Validate(); err != nil {
		h.logger.Warn("Invalid turn request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.processor.ProcessTurn(r.Context(), request)
	if err != nil {
		status := statusFor(err)
		h.logger.Log(r.Context(), levelFor(status), "Error processing turn",
			"error", err,
			"game_id", request.GameStateID.String())
		msg := "Failed to process turn. Please try again."
		if status != http.StatusInternalServerError {
			msg = err.Error()
		}
		writeError(w, h.logger, status, msg)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, response)
}
