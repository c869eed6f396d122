package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/narrative-engine/internal/processor"
	"github.com/jwebster45206/narrative-engine/pkg/engine"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/jwebster45206/narrative-engine/pkg/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps processor and engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, processor.ErrGameNotFound),
		errors.Is(err, storage.ErrStoryNotFound),
		errors.Is(err, engine.ErrEventNotFound):
		return http.StatusNotFound
	case errors.Is(err, state.ErrGameEnded),
		errors.Is(err, engine.ErrEventAlreadyFired):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

func levelFor(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelWarn
}
