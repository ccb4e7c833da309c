// Package llm turns an evidence bundle into a structured actionability
// assessment by calling an OpenAI-compatible chat completion endpoint and
// coercing the model's JSON reply into the domain schema.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tumorboard/tumorboard/internal/domain"
)

// Message is a single chat message sent to the completion endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionClient is the contract the assessment service consumes for
// model calls.
type CompletionClient interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// OpenAIClient calls an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	rateLimit   *rate.Limiter
}

// NewOpenAIClient creates a completion client from configuration.
func NewOpenAIClient(config domain.LLMConfig) *OpenAIClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 5
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 2048
	}

	return &OpenAIClient{
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		apiKey:      config.APIKey,
		model:       config.Model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends one chat completion request and returns the first choice's
// content. Transport failures, non-2xx statuses, and empty completions all
// map to the retryable failure class.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return "", &CompletionError{Message: "rate limit wait aborted", Err: err}
	}

	payload, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", &CompletionError{Message: "failed to encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", &CompletionError{Message: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &CompletionError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &CompletionError{Message: "failed to read response body", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &CompletionError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("completion request returned status %d", resp.StatusCode),
		}
	}

	var response completionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", &CompletionError{Message: "failed to parse response envelope", Err: err}
	}
	if response.Error != nil {
		return "", &CompletionError{Message: response.Error.Message}
	}
	if len(response.Choices) == 0 || strings.TrimSpace(response.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("completion for model %s: %w", c.model, ErrEmptyCompletion)
	}

	return response.Choices[0].Message.Content, nil
}
