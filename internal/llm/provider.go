// Package llm is the chat-model seam. Anything that speaks the OpenAI chat
// completions API can back it.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyResponse is returned when the model answers with no content.
var ErrEmptyResponse = errors.New("model returned no content")

// Client is the subset of the OpenAI client the recommender needs.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ModelLister is optional; callers detect it with a type assertion.
type ModelLister interface {
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// OpenAIProvider adapts *openai.Client to Client and ModelLister.
type OpenAIProvider struct {
	Inner *openai.Client
}

// NewOpenAI builds a provider for an OpenAI-compatible endpoint. An empty
// baseURL keeps the library default; a nil httpClient keeps its transport.
func NewOpenAI(baseURL, apiKey string, httpClient *http.Client) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAIProvider{Inner: openai.NewClientWithConfig(cfg)}
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return p.Inner.CreateChatCompletion(ctx, request)
}

func (p *OpenAIProvider) ListModels(ctx context.Context) (openai.ModelsList, error) {
	return p.Inner.ListModels(ctx)
}

// JSONRequest is a single-turn request that expects a JSON object back.
type JSONRequest struct {
	Model       string
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// retryDelay is the pause before the single retry. Tests shorten it.
var retryDelay = 100 * time.Millisecond

// CompleteJSON sends req with the json_object response format and returns the
// trimmed message content. A failed call is retried once after a short pause.
func CompleteJSON(ctx context.Context, c Client, req JSONRequest) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})
	creq := openai.ChatCompletionRequest{
		Model:          req.Model,
		Messages:       msgs,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		N:              1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}
	resp, err := c.CreateChatCompletion(ctx, creq)
	if err != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(retryDelay):
		}
		resp, err = c.CreateChatCompletion(ctx, creq)
		if err != nil {
			return "", fmt.Errorf("chat completion (after retry): %w", err)
		}
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
