package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/pricing"
	"github.com/google/uuid"
)

var ErrAIUnavailable = errors.New("ai provider is not configured")

const customizeSystemPrompt = "You tailor resumes to job descriptions. Rewrite the resume so its wording and emphasis match the job description without inventing experience. Respond with the rewritten resume only."

// Completer is a chat-completion backend.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// --- OpenAI types ---

type openAIChatRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// OpenAICompleter calls an OpenAI-compatible /chat/completions endpoint.
type OpenAICompleter struct {
	apiKey string
	url    string
	model  string
	client *http.Client
}

func NewOpenAICompleter(apiKey, url, model string, timeout time.Duration) *OpenAICompleter {
	return &OpenAICompleter{
		apiKey: apiKey,
		url:    url,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" {
		return "", ErrAIUnavailable
	}

	jsonData, err := json.Marshal(openAIChatRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("ai provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", err
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("ai provider returned no choices")
	}

	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("ai provider returned empty content")
	}
	return content, nil
}

// ResumeService runs the AI resume customization behind the usage gate.
type ResumeService struct {
	usage *UsageService
	ai    Completer
}

func NewResumeService(usage *UsageService, ai Completer) *ResumeService {
	return &ResumeService{usage: usage, ai: ai}
}

// Customize checks quota before calling the AI provider and counts usage only
// once the provider has returned a result.
func (s *ResumeService) Customize(ctx context.Context, userID uuid.UUID, req *dto.CustomizeResumeRequest) (*dto.CustomizeResumeResponse, error) {
	allowed, err := s.usage.CheckUsageLimit(ctx, userID, pricing.FeatureAICustomization)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrUsageLimitReached
	}

	prompt := "Resume:\n" + req.ResumeText + "\n\nJob description:\n" + req.JobDescription
	content, err := s.ai.Complete(ctx, customizeSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("ai customization: %w", err)
	}

	if err := s.usage.IncrementUsage(ctx, userID, pricing.FeatureAICustomization); err != nil {
		// Best effort: the result is returned either way.
		slog.Error("usage increment failed", "user_id", userID.String(), "feature", pricing.FeatureAICustomization, "error", err)
	}

	return &dto.CustomizeResumeResponse{Content: content}, nil
}
