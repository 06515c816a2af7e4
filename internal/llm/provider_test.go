package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type scriptedClient struct {
	replies []string
	errs    []error
	reqs    []openai.ChatCompletionRequest
}

func (s *scriptedClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	i := len(s.reqs)
	s.reqs = append(s.reqs, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return openai.ChatCompletionResponse{}, s.errs[i]
	}
	if i >= len(s.replies) {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: s.replies[i]}}}}, nil
}

func TestCompleteJSON_RetriesOnce(t *testing.T) {
	retryDelay = 0
	c := &scriptedClient{errs: []error{errors.New("transient")}, replies: []string{"", `  {"ok":true} `}}
	out, err := CompleteJSON(context.Background(), c, JSONRequest{Model: "gpt-4.1", User: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("content = %q", out)
	}
	if len(c.reqs) != 2 {
		t.Fatalf("calls = %d, want 2", len(c.reqs))
	}
	req := c.reqs[0]
	if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Fatalf("json response format not requested")
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != openai.ChatMessageRoleUser {
		t.Fatalf("system message should be omitted when empty: %+v", req.Messages)
	}
}

func TestCompleteJSON_Errors(t *testing.T) {
	retryDelay = 0
	c := &scriptedClient{errs: []error{errors.New("a"), errors.New("b")}}
	if _, err := CompleteJSON(context.Background(), c, JSONRequest{User: "x"}); err == nil {
		t.Fatal("expected error after retry")
	}
	empty := &scriptedClient{}
	if _, err := CompleteJSON(context.Background(), empty, JSONRequest{System: "s", User: "x"}); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
	if len(empty.reqs[0].Messages) != 2 {
		t.Fatal("system message missing")
	}
}

func TestNewOpenAI_UsesBaseURL(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": []map[string]any{{"id": "gpt-4.1", "object": "model"}}})
	}))
	defer srv.Close()

	p := NewOpenAI(srv.URL+"/v1/", "key", srv.Client())
	list, err := p.ListModels(context.Background())
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if path != "/v1/models" || len(list.Models) != 1 {
		t.Fatalf("path=%q models=%d", path, len(list.Models))
	}
}
