package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/emailpilot/emailpilot/internal/domain"
	"github.com/emailpilot/emailpilot/internal/pkg/httpretry"
	"github.com/emailpilot/emailpilot/internal/pkg/logger"
)

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAIGenerator drafts calendar plans through the OpenAI chat
// completions API with a JSON-object response format.
type OpenAIGenerator struct {
	apiKey     string
	model      string
	httpClient httpretry.Doer
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type openAIResponse struct {
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIGenerator creates an OpenAI-backed plan generator. timeout
// bounds each API call; zero means 120 seconds.
func NewOpenAIGenerator(apiKey, model string, timeout time.Duration) *OpenAIGenerator {
	if model == "" {
		model = "gpt-4o"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAIGenerator{
		apiKey:     apiKey,
		model:      model,
		httpClient: httpretry.New(&http.Client{Timeout: timeout}, 2),
	}
}

// Generate drafts one client-month calendar plan.
func (g *OpenAIGenerator) Generate(ctx context.Context, gc Context) (*domain.CalendarPlan, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key not configured", ErrGenerationFailed)
	}

	prompt, err := BuildPrompt(gc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	request := openAIRequest{
		Model: g.model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   4000,
	}
	request.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrGenerationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, ErrGenerationTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrGenerationFailed, err)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrGenerationFailed, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}

	logger.Debug("openai draft received",
		"client_id", gc.ClientID,
		"model", g.model,
		"finish_reason", parsed.Choices[0].FinishReason)

	return parsePlanReply(parsed.Choices[0].Message.Content, gc)
}
