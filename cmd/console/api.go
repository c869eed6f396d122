package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/chat"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/jwebster45206/narrative-engine/pkg/story"
)

// ErrorResponse matches the API error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// apiClient talks to the narrative engine HTTP API.
type apiClient struct {
	client  *http.Client
	baseURL string
}

func (c *apiClient) testConnection() bool {
	resp, err := c.client.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func (c *apiClient) listStories() ([]story.Info, error) {
	var infos []story.Info
	if err := c.do(http.MethodGet, "/v1/stories", nil, http.StatusOK, &infos); err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return infos, nil
}

func (c *apiClient) createGame(storyID string) (*chat.TurnResponse, error) {
	req := map[string]string{"story_id": storyID}
	var resp chat.TurnResponse
	if err := c.do(http.MethodPost, "/v1/gamestate", req, http.StatusCreated, &resp); err != nil {
		return nil, fmt.Errorf("failed to create game state: %w", err)
	}
	return &resp, nil
}

func (c *apiClient) getGameState(gameStateID uuid.UUID) (*state.GameState, error) {
	var gs state.GameState
	if err := c.do(http.MethodGet, "/v1/gamestate/"+gameStateID.String(), nil, http.StatusOK, &gs); err != nil {
		return nil, fmt.Errorf("failed to get game state: %w", err)
	}
	return &gs, nil
}

func (c *apiClient) turn(req chat.TurnRequest) (*chat.TurnResponse, error) {
	var resp chat.TurnResponse
	if err := c.do(http.MethodPost, "/v1/turn", req, http.StatusOK, &resp); err != nil {
		return nil, fmt.Errorf("failed to send turn: %w", err)
	}
	return &resp, nil
}

func (c *apiClient) forceEvent(gameStateID uuid.UUID, eventID string) (*chat.TurnResponse, error) {
	path := fmt.Sprintf("/v1/gamestate/%s/force/%s", gameStateID, eventID)
	var resp chat.TurnResponse
	if err := c.do(http.MethodPost, path, nil, http.StatusOK, &resp); err != nil {
		return nil, fmt.Errorf("failed to force event: %w", err)
	}
	return &resp, nil
}

// do sends a JSON request and decodes the response into out when the
// status matches want.
func (c *apiClient) do(method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		var errorResp ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
