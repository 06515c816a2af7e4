// Package recommend asks a chat model to pick books from the catalog for a
// survey respondent and maps the picks back onto catalog records.
package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hyperifyio/bookmatch/internal/books"
	"github.com/hyperifyio/bookmatch/internal/budget"
	"github.com/hyperifyio/bookmatch/internal/cache"
	"github.com/hyperifyio/bookmatch/internal/llm"
	"github.com/hyperifyio/bookmatch/internal/prompt"
)

var (
	// ErrNotConfigured is returned when no model client or model name is set.
	ErrNotConfigured = errors.New("recommender not configured")
	// ErrEmptyCatalog is returned when there are no books to choose from.
	ErrEmptyCatalog = errors.New("book catalog is empty")
	// ErrBadResponse wraps a model reply that is not the expected JSON.
	ErrBadResponse = errors.New("unexpected model response")
	// ErrNoAnswers is returned when the survey has no answered question.
	ErrNoAnswers = errors.New("survey has no answers")
)

const (
	defaultLikelyStatement    = "Here are some books you might enjoy!"
	defaultDifferentStatement = "Here are some books to expand your taste!"
	reasoningFailedStatement  = "We encountered an issue generating personalized insights for this section, but here are your book suggestions!"
	reasoningMissing          = "No specific reasoning provided."
)

// Pick is one recommended catalog record.
type Pick struct {
	BookString string       `json:"bookString"`
	Reasoning  string       `json:"reasoning,omitempty"`
	Book       books.Record `json:"book"`
}

// List is one of the two recommendation lists.
type List struct {
	OverallStatement string `json:"overallStatement"`
	Books            []Pick `json:"books"`
}

// Recommendations is the full result for one survey.
type Recommendations struct {
	ID             string            `json:"resultsId"`
	CreatedAt      time.Time         `json:"timestamp"`
	Questions      []prompt.Question `json:"quizQuestions"`
	Answers        prompt.Answers    `json:"quizAnswers"`
	LikelyToEnjoy  List              `json:"likelyToEnjoy"`
	DifferentTaste List              `json:"differentTaste"`
}

// Get returns the list for kind.
func (r *Recommendations) Get(kind prompt.Kind) *List {
	if kind == prompt.DifferentTaste {
		return &r.DifferentTaste
	}
	return &r.LikelyToEnjoy
}

// Recommender runs the selection prompt and, with Explain set, a second
// prompt per list asking for short reasons.
type Recommender struct {
	Client llm.Client
	Model  string
	// Cache stores raw replies keyed by model and prompt. Optional.
	Cache *cache.LLMCache
	// Explain enables the reasoning pass.
	Explain bool
	// Shuffle randomizes catalog order in the prompt and bypasses Cache.
	Shuffle     bool
	Temperature float32
	Logger      zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type selection struct {
	LikelyToEnjoy  []struct{ BookString string `json:"bookString"` } `json:"likelyToEnjoy"`
	DifferentTaste []struct{ BookString string `json:"bookString"` } `json:"differentTaste"`
}

type reasoning struct {
	OverallStatement string            `json:"overallStatement"`
	BookReasonings   map[string]string `json:"bookReasonings"`
}

// Recommend picks up to prompt.MaxPerList books per list from records.
func (r *Recommender) Recommend(ctx context.Context, questions []prompt.Question, answers prompt.Answers, records []books.Record) (Recommendations, error) {
	if r == nil || r.Client == nil || strings.TrimSpace(r.Model) == "" {
		return Recommendations{}, ErrNotConfigured
	}
	if len(records) == 0 {
		return Recommendations{}, ErrEmptyCatalog
	}
	responses := prompt.FormatResponses(questions, answers)
	if responses == "" {
		return Recommendations{}, ErrNoAnswers
	}

	ordered := make([]books.Record, len(records))
	copy(ordered, records)
	if r.Shuffle {
		rand.Shuffle(len(ordered), func(i, j int) { ordered[i], ordered[j] = ordered[j], ordered[i] })
	}
	bookList, err := prompt.BookList(ordered)
	if err != nil {
		return Recommendations{}, err
	}

	raw, err := r.complete(ctx, prompt.Selection(responses, bookList))
	if err != nil {
		return Recommendations{}, fmt.Errorf("selection: %w", err)
	}
	var sel selection
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		return Recommendations{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	idx := newCatalogIndex(records)
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	out := Recommendations{
		ID:             uuid.NewString(),
		CreatedAt:      now().UTC(),
		Questions:      questions,
		Answers:        answers,
		LikelyToEnjoy:  List{OverallStatement: defaultLikelyStatement},
		DifferentTaste: List{OverallStatement: defaultDifferentStatement},
	}
	logger := r.Logger.With().Str("results", out.ID).Str("model", r.Model).Logger()
	for _, kind := range prompt.Kinds() {
		strs := make([]string, 0)
		src := sel.LikelyToEnjoy
		if kind == prompt.DifferentTaste {
			src = sel.DifferentTaste
		}
		for _, s := range src {
			strs = append(strs, s.BookString)
		}
		picks := idx.resolve(strs, func(s string) {
			logger.Warn().Str("list", string(kind)).Str("book", s).Msg("model picked a book outside the catalog")
		})
		list := out.Get(kind)
		list.Books = picks
		if r.Explain && len(picks) > 0 {
			r.explain(ctx, logger, kind, responses, list)
		}
	}
	logger.Info().
		Int("likely", len(out.LikelyToEnjoy.Books)).
		Int("different", len(out.DifferentTaste.Books)).
		Msg("recommendations ready")
	return out, nil
}

// explain fills reasons in place. Failures are logged and replaced with
// fallback text; they never fail the recommendation.
func (r *Recommender) explain(ctx context.Context, logger zerolog.Logger, kind prompt.Kind, responses string, list *List) {
	selected := make([]books.Record, 0, len(list.Books))
	for _, p := range list.Books {
		selected = append(selected, p.Book)
	}
	raw, err := r.complete(ctx, prompt.Reasoning(responses, kind, selected))
	var rs reasoning
	if err == nil {
		err = json.Unmarshal([]byte(raw), &rs)
	}
	if err != nil || rs.BookReasonings == nil {
		logger.Warn().Err(err).Str("list", string(kind)).Msg("reasoning pass failed")
		list.OverallStatement = reasoningFailedStatement
		return
	}
	if s := strings.TrimSpace(rs.OverallStatement); s != "" {
		list.OverallStatement = s
	}
	for i := range list.Books {
		reason, ok := rs.BookReasonings[list.Books[i].BookString]
		if !ok {
			reason, ok = rs.BookReasonings[list.Books[i].Book.BookString()]
		}
		if !ok || strings.TrimSpace(reason) == "" {
			reason = reasoningMissing
		}
		list.Books[i].Reasoning = strings.TrimSpace(reason)
	}
}

func (r *Recommender) complete(ctx context.Context, user string) (string, error) {
	rc := r.Cache
	if r.Shuffle {
		rc = nil
	}
	key := cache.KeyFrom(r.Model, user)
	if rc != nil {
		if b, ok, _ := rc.Get(ctx, key); ok && json.Valid(b) {
			return string(b), nil
		}
	}
	if n := budget.EstimatePromptTokens("", user, nil); !budget.FitsInContext(r.Model, budget.DefaultReservedOutput, n) {
		r.Logger.Warn().Str("model", r.Model).Int("promptTokens", n).
			Int("contextTokens", budget.ModelContextTokens(r.Model)).
			Msg("prompt may exceed the model context window")
	}
	temp := r.Temperature
	if temp == 0 {
		temp = 0.9
	}
	out, err := llm.CompleteJSON(ctx, r.Client, llm.JSONRequest{Model: r.Model, User: user, Temperature: temp})
	if err != nil {
		return "", err
	}
	if rc != nil && json.Valid([]byte(out)) {
		if err := rc.Save(ctx, key, []byte(out)); err != nil {
			r.Logger.Debug().Err(err).Msg("llm cache save failed")
		}
	}
	return out, nil
}
