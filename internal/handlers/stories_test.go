package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwebster45206/narrative-engine/pkg/storage"
	"github.com/jwebster45206/narrative-engine/pkg/story"
)

func TestStoryHandler_List(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	mockStorage.AddStory(testStory())
	mockStorage.AddStory(&story.Story{ID: "abbey", Title: "Abbey of Echoes", StartingLocation: "nave"})
	handler := NewStoryHandler(testLogger(), mockStorage)

	req := httptest.NewRequest(http.MethodGet, "/v1/stories", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var infos []story.Info
	if err := json.NewDecoder(rr.Body).Decode(&infos); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Expected 2 stories, got %d", len(infos))
	}
	if infos[0].Title != "Abbey of Echoes" || infos[1].Title != "The Lighthouse" {
		t.Errorf("Expected stories sorted by title, got %+v", infos)
	}
}

func TestStoryHandler_Get(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	mockStorage.AddStory(testStory())
	handler := NewStoryHandler(testLogger(), mockStorage)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{name: "found", method: http.MethodGet, path: "/v1/stories/lighthouse", expectedStatus: http.StatusOK},
		{name: "not found", method: http.MethodGet, path: "/v1/stories/atlantis", expectedStatus: http.StatusNotFound},
		{name: "path traversal", method: http.MethodGet, path: "/v1/stories/../secrets", expectedStatus: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodPost, path: "/v1/stories", expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Response body: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}
