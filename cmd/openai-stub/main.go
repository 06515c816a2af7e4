// Command openai-stub is a deterministic OpenAI-compatible endpoint for
// exercising bookmatch without a real model. It answers the selection prompt
// with books from the prompt's own catalog and the reasoning prompt with
// canned reasons.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

const (
	booksStart = "--- START AVAILABLE BOOKS ---"
	booksEnd   = "--- END AVAILABLE BOOKS ---"
)

var reasoningLineRe = regexp.MustCompile(`^- ("(?:[^"\\]|\\.)*") by (.*?) \(Key info:`)

// selectionReply picks the first ten catalog entries as likely picks and the
// last five, newest first, as different-taste picks.
func selectionReply(user string) (string, bool) {
	start := strings.Index(user, booksStart)
	end := strings.Index(user, booksEnd)
	if start < 0 || end < start {
		return "", false
	}
	var catalog []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(user[start+len(booksStart):end])), &catalog); err != nil {
		return "", false
	}
	type pick struct {
		BookString string `json:"bookString"`
	}
	likely := make([]pick, 0, 10)
	for i := 0; i < len(catalog) && i < 10; i++ {
		likely = append(likely, pick{catalog[i]})
	}
	different := make([]pick, 0, 5)
	for i := len(catalog) - 1; i >= 0 && len(different) < 5; i-- {
		different = append(different, pick{catalog[i]})
	}
	b, _ := json.Marshal(map[string]any{"likelyToEnjoy": likely, "differentTaste": different})
	return string(b), true
}

// reasoningReply gives every listed book the same short reason.
func reasoningReply(user string) string {
	framing := "Why you'll love this book:"
	if strings.Contains(user, "Why this book might surprise you:") {
		framing = "Why this book might surprise you:"
	}
	reasons := map[string]string{}
	for _, line := range strings.Split(user, "\n") {
		m := reasoningLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		title, err := strconv.Unquote(m[1])
		if err != nil {
			continue
		}
		reasons[title+" by "+m[2]] = framing + " it matches what you told us."
	}
	b, _ := json.Marshal(map[string]any{
		"overallStatement": "**Primary Genre Focus: Literary Fiction**.\nA stub selection for local testing.",
		"bookReasonings":   reasons,
	})
	return string(b)
}

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	log.Printf("openai-stub listening on %s (model=%s)", addr, model)
	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal(err)
	}
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", handleChat)
	return mux
}

func handleChat(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	user := req.Messages[len(req.Messages)-1].Content
	var content string
	switch {
	case strings.Contains(user, `"bookReasonings"`):
		content = reasoningReply(user)
	default:
		reply, ok := selectionReply(user)
		if !ok {
			http.Error(w, "unexpected prompt", http.StatusBadRequest)
			return
		}
		content = reply
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}
