package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/narrative-engine/pkg/storage"
)

type StoryHandler struct {
	log     *slog.Logger
	storage storage.Storage
}

func NewStoryHandler(log *slog.Logger, storage storage.Storage) *StoryHandler {
	return &StoryHandler{
		log:     log,
		storage: storage,
	}
}

// ServeHTTP handles GET /v1/stories and GET /v1/stories/{id}
func (h *StoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/stories"), "/")
	if id == "" {
		h.handleList(w, r)
		return
	}
	h.handleGet(w, r, id)
}

func (h *StoryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	stories, err := h.storage.ListStories(r.Context())
	if err != nil {
		h.log.Error("Failed to list stories", "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to list stories")
		return
	}
	writeJSON(w, h.log, http.StatusOK, stories)
}

func (h *StoryHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	if strings.Contains(id, "..") || strings.Contains(id, "/") {
		writeError(w, h.log, http.StatusBadRequest, "Invalid story ID")
		return
	}

	s, err := h.storage.GetStory(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrStoryNotFound) {
			writeError(w, h.log, http.StatusNotFound, "Story not found")
			return
		}
		h.log.Error("Failed to get story", "error", err, "story_id", id)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to retrieve story")
		return
	}
	writeJSON(w, h.log, http.StatusOK, s.Info())
}
