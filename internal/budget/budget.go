// Package budget estimates prompt sizes against model context windows.
package budget

import (
	"math"
	"strings"
	"unicode/utf8"
)

// DefaultReservedOutput is the output reservation used when none is given.
const DefaultReservedOutput = 2048

// EstimateTokensFromChars converts a character count into tokens at roughly
// four characters per token, rounding up.
func EstimateTokensFromChars(charCount int) int {
	if charCount <= 0 {
		return 0
	}
	return int(math.Ceil(float64(charCount) / 4.0))
}

// EstimateTokens returns the estimated token count of s, counting runes.
func EstimateTokens(s string) int {
	return EstimateTokensFromChars(utf8.RuneCountInString(s))
}

// EstimatePromptTokens sums the estimates of a system message, a user
// message and any extra parts.
func EstimatePromptTokens(system string, user string, parts []string) int {
	total := EstimateTokens(system) + EstimateTokens(user)
	for _, p := range parts {
		total += EstimateTokens(p)
	}
	return total
}

// ModelContextTokens returns the context window for a model name. Unknown
// names fall back to suffix heuristics and then to 8192.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if name == "" {
		return 8192
	}
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	// dated snapshots such as gpt-4.1-2025-04-14
	for _, family := range familyPrefixes {
		if strings.HasPrefix(name, family+"-20") {
			return knownModelMax[family]
		}
	}
	for _, s := range sizeSuffixes {
		if strings.HasSuffix(name, s.suffix) {
			return s.tokens
		}
	}
	if strings.Contains(name, "-mini") {
		return 128_000
	}
	return 8192
}

// RemainingContext is the model context minus the output reservation and
// the prompt, clamped at zero.
func RemainingContext(modelName string, reservedForOutput int, promptTokens int) int {
	if reservedForOutput < 0 {
		reservedForOutput = 0
	}
	remaining := ModelContextTokens(modelName) - reservedForOutput - promptTokens
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FitsInContext reports whether the prompt leaves room for the reservation.
func FitsInContext(modelName string, reservedForOutput int, promptTokens int) bool {
	return RemainingContext(modelName, reservedForOutput, promptTokens) > 0
}

// HeadroomTokens is the larger of 5% of the model context and 512 tokens.
func HeadroomTokens(modelName string) int {
	dyn := int(math.Ceil(float64(ModelContextTokens(modelName)) * 0.05))
	if dyn < 512 {
		return 512
	}
	return dyn
}

// RemainingContextWithHeadroom is RemainingContext with HeadroomTokens
// added to the reservation.
func RemainingContextWithHeadroom(modelName string, reservedForOutput int, promptTokens int) int {
	return RemainingContext(modelName, reservedForOutput+HeadroomTokens(modelName), promptTokens)
}

// Estimate is the sizing report for one prompt.
type Estimate struct {
	Model          string `json:"model"`
	Chars          int    `json:"chars"`
	PromptTokens   int    `json:"promptTokens"`
	ModelContext   int    `json:"modelContext"`
	ReservedOutput int    `json:"reservedOutput"`
	Headroom       int    `json:"headroom"`
	Remaining      int    `json:"remaining"`
	Fits           bool   `json:"fits"`
}

// EstimatePrompt sizes prompt for model. A non-positive reservedOutput
// means DefaultReservedOutput. Remaining accounts for headroom.
func EstimatePrompt(model, prompt string, reservedOutput int) Estimate {
	if reservedOutput <= 0 {
		reservedOutput = DefaultReservedOutput
	}
	tokens := EstimateTokens(prompt)
	remaining := RemainingContextWithHeadroom(model, reservedOutput, tokens)
	return Estimate{
		Model:          model,
		Chars:          utf8.RuneCountInString(prompt),
		PromptTokens:   tokens,
		ModelContext:   ModelContextTokens(model),
		ReservedOutput: reservedOutput,
		Headroom:       HeadroomTokens(model),
		Remaining:      remaining,
		Fits:           remaining > 0,
	}
}

var knownModelMax = map[string]int{
	"gpt-4.1":            1_047_576,
	"gpt-4.1-mini":       1_047_576,
	"gpt-4.1-nano":       1_047_576,
	"gpt-4o":             128_000,
	"gpt-4o-mini":        128_000,
	"gpt-4-turbo":        128_000,
	"gpt-4-0125-preview": 128_000,
	"gpt-3.5-turbo":      16_384,

	"claude-3-5-sonnet": 200_000,
	"claude-3-opus":     200_000,
	"claude-3-haiku":    200_000,

	"llama-3":   8_192,
	"llama-3.1": 128_000,

	"openai/gpt-oss-20b": 4_096,
	"gpt-oss-20b":        4_096,
}

// longest first so gpt-4.1-mini wins over gpt-4.1
var familyPrefixes = []string{"gpt-4.1-mini", "gpt-4.1-nano", "gpt-4o-mini", "gpt-4.1", "gpt-4o"}

var sizeSuffixes = []struct {
	suffix string
	tokens int
}{
	{"1m", 1_000_000},
	{"512k", 512_000},
	{"200k", 200_000},
	{"180k", 180_000},
	{"128k", 128_000},
}
