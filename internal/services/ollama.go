package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/jwebster45206/narrative-engine/pkg/chat"
)

var _ LLMService = (*OllamaService)(nil)

// StatusError is a non-200 reply from the Ollama API.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ollama %s returned status %d: %s", e.Path, e.Status, e.Body)
}

// GenerationOptions tune sampling for story turns. Zero values leave the
// model's defaults in place.
type GenerationOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"` // token cap per reply
}

// DefaultGenerationOptions keep passages short enough for a 1-3 paragraph turn.
var DefaultGenerationOptions = GenerationOptions{Temperature: 0.8, NumPredict: 512}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model     string             `json:"model"`
	Messages  []ollamaMessage    `json:"messages"`
	Stream    bool               `json:"stream"`
	Options   *GenerationOptions `json:"options,omitempty"`
	KeepAlive string             `json:"keep_alive,omitempty"`
}

type ollamaChatResponse struct {
	Message    ollamaMessage `json:"message"`
	Done       bool          `json:"done"`
	DoneReason string        `json:"done_reason"`
}

// OllamaService narrates turns with a local Ollama server over /api/chat.
type OllamaService struct {
	baseURL    string
	modelName  string
	options    GenerationOptions
	keepAlive  string
	httpClient *http.Client
	attempts   int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewOllamaService creates a client for the server at baseURL.
// Deadlines come from the caller's context, not the HTTP client.
func NewOllamaService(baseURL string, modelName string, logger *slog.Logger) *OllamaService {
	return &OllamaService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		modelName:  modelName,
		options:    DefaultGenerationOptions,
		keepAlive:  "30m",
		httpClient: &http.Client{},
		attempts:   5,
		retryDelay: 2 * time.Second,
		logger:     logger,
	}
}

// WithOptions replaces the sampling options sent with every chat.
func (s *OllamaService) WithOptions(opts GenerationOptions) *OllamaService {
	s.options = opts
	return s
}

// InitModel waits for the server to answer, then pulls modelName if the
// server does not have it yet.
func (s *OllamaService) InitModel(ctx context.Context, modelName string) error {
	s.logger.Info("Initializing LLM model", "model", modelName, "provider", "ollama")

	models, err := s.waitForModels(ctx)
	if err != nil {
		return fmt.Errorf("ollama service is not ready: %w", err)
	}

	if hasModel(models, modelName) {
		s.logger.Info("Model already available", "model", modelName)
	} else {
		s.logger.Info("Model not found, pulling it", "model", modelName)
		pull := map[string]any{"model": modelName, "stream": false}
		if err := s.call(ctx, http.MethodPost, "/api/pull", pull, nil); err != nil {
			return fmt.Errorf("failed to pull model: %w", err)
		}
		s.logger.Info("Model pulled successfully", "model", modelName)
	}

	s.modelName = modelName
	return nil
}

// Chat sends the conversation and returns the trimmed reply.
func (s *OllamaService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	req := ollamaChatRequest{
		Model:     s.modelName,
		Messages:  make([]ollamaMessage, 0, len(messages)),
		KeepAlive: s.keepAlive,
	}
	if s.options != (GenerationOptions{}) {
		opts := s.options
		req.Options = &opts
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, ollamaMessage{Role: m.Role, Content: m.Content})
	}

	s.logger.Debug("Making Ollama chat request", "model", s.modelName, "message_count", len(messages))

	var resp ollamaChatResponse
	if err := s.call(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return nil, err
	}
	if resp.DoneReason == "length" {
		s.logger.Warn("Ollama reply hit the token limit", "num_predict", s.options.NumPredict)
	}

	return &chat.ChatResponse{Message: strings.TrimSpace(resp.Message.Content)}, nil
}

// waitForModels lists the installed models, retrying while the server starts.
func (s *OllamaService) waitForModels(ctx context.Context) ([]string, error) {
	var lastErr error
	for i := range s.attempts {
		var tags struct {
			Models []struct {
				Name string `json:"name"`
			} `json:"models"`
		}
		err := s.call(ctx, http.MethodGet, "/api/tags", nil, &tags)
		if err == nil {
			names := make([]string, len(tags.Models))
			for j, m := range tags.Models {
				names[j] = m.Name
			}
			return names, nil
		}
		lastErr = err
		s.logger.Debug("Ollama not ready yet", "error", err, "attempt", i+1)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}
	return nil, fmt.Errorf("no answer after %d attempts: %w", s.attempts, lastErr)
}

// hasModel matches a bare name against tagged names such as "llama3:latest".
func hasModel(models []string, name string) bool {
	if strings.Contains(name, ":") {
		return slices.Contains(models, name)
	}
	return slices.Contains(models, name) || slices.Contains(models, name+":latest")
}

// call sends in as JSON and decodes the reply into out when out is non-nil.
func (s *OllamaService) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		s.logger.Error("Ollama API returned error", "path", path, "status_code", resp.StatusCode, "response_body", string(data))
		return &StatusError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Error("Failed to decode Ollama response", "path", path, "error", err)
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
