package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/jwebster45206/narrative-engine/pkg/chat"
	"google.golang.org/api/option"
)

var _ LLMService = (*GeminiService)(nil)

// GeminiService implements the LLMService interface for the Gemini API.
type GeminiService struct {
	client    *genai.Client
	logger    *slog.Logger
	mu        sync.RWMutex
	modelName string
}

// NewGeminiService creates a Gemini client for the given API key.
func NewGeminiService(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiService{
		client:    client,
		logger:    logger,
		modelName: modelName,
	}, nil
}

// InitModel selects the model and checks that the API knows it.
func (s *GeminiService) InitModel(ctx context.Context, modelName string) error {
	s.logger.Info("Initializing LLM model", "model", modelName, "provider", "gemini")

	info, err := s.client.GenerativeModel(modelName).Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to look up model %s: %w", modelName, err)
	}

	s.mu.Lock()
	s.modelName = modelName
	s.mu.Unlock()

	s.logger.Info("Model available", "model", modelName, "input_token_limit", info.InputTokenLimit)
	return nil
}

// Chat sends the conversation as a chat session and returns the reply text.
// System messages become the model's system instruction.
func (s *GeminiService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	system, history, last, err := toGeminiContents(messages)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	modelName := s.modelName
	s.mu.RUnlock()
	model := s.client.GenerativeModel(modelName)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := model.StartChat()
	cs.History = history

	s.logger.Debug("Sending request to Gemini", "model", modelName, "history", len(history))
	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}
	return &chat.ChatResponse{Message: text}, nil
}

// Close releases the underlying client.
func (s *GeminiService) Close() error {
	return s.client.Close()
}

// toGeminiContents splits chat messages into a system instruction, prior
// turns and the final user prompt. Consecutive turns of the same role are
// merged, since the API expects user and model turns to alternate.
func toGeminiContents(messages []chat.ChatMessage) (string, []*genai.Content, string, error) {
	var system []string
	var turns []*genai.Content

	for _, m := range messages {
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}

		var role string
		switch m.Role {
		case chat.ChatRoleSystem:
			system = append(system, text)
			continue
		case chat.ChatRoleAgent:
			role = "model"
		default:
			role = "user"
		}

		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Parts = append(turns[n-1].Parts, genai.Text(text))
			continue
		}
		turns = append(turns, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(text)}})
	}

	if len(turns) == 0 || turns[len(turns)-1].Role != "user" {
		return "", nil, "", errors.New("conversation must end with a user message")
	}

	lastTurn := turns[len(turns)-1]
	parts := make([]string, 0, len(lastTurn.Parts))
	for _, p := range lastTurn.Parts {
		parts = append(parts, string(p.(genai.Text)))
	}

	return strings.Join(system, "\n\n"), turns[:len(turns)-1], strings.Join(parts, "\n\n"), nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content returned from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("unexpected response type from Gemini")
	}
	return strings.TrimSpace(b.String()), nil
}
