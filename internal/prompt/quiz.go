// Package prompt builds the recommendation prompts from survey responses and
// the book catalog.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// QuestionType is mcq (multiple choice) or frq (free response).
type QuestionType string

const (
	MCQ QuestionType = "mcq"
	FRQ QuestionType = "frq"
)

// Question is one survey question.
type Question struct {
	ID            string       `json:"id" yaml:"id"`
	Type          QuestionType `json:"type" yaml:"type"`
	Question      string       `json:"question" yaml:"question"`
	Options       []string     `json:"options,omitempty" yaml:"options,omitempty"`
	AllowMultiple bool         `json:"allowMultiple,omitempty" yaml:"allowMultiple,omitempty"`
	Placeholder   string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

// Answer holds one or more selected or typed values. In JSON and YAML it
// may be written as a single string or a list of strings.
type Answer []string

// Answers maps question IDs to answers.
type Answers map[string]Answer

func (a *Answer) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*a = Answer{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("answer must be a string or a list of strings: %w", err)
	}
	*a = many
	return nil
}

func (a *Answer) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*a = Answer{n.Value}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := n.Decode(&many); err != nil {
			return err
		}
		*a = many
		return nil
	}
	return fmt.Errorf("line %d: answer must be a string or a list of strings", n.Line)
}

// Text joins the values with ", ".
func (a Answer) Text() string {
	return strings.Join(a, ", ")
}

// Survey is a questionnaire together with one respondent's answers.
type Survey struct {
	Questions []Question `json:"questions" yaml:"questions"`
	Answers   Answers    `json:"answers" yaml:"answers"`
}

// FormatResponses renders every answered question as
// "Question (TYPE): text\nAnswer: values", separated by blank lines.
// Unanswered questions are skipped.
func FormatResponses(questions []Question, answers Answers) string {
	blocks := make([]string, 0, len(questions))
	for _, q := range questions {
		a, ok := answers[q.ID]
		if !ok {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("Question (%s): %s\nAnswer: %s",
			strings.ToUpper(string(q.Type)), q.Question, a.Text()))
	}
	return strings.Join(blocks, "\n\n")
}

// SampleQuestions is the fixed survey used for token estimation.
func SampleQuestions() []Question {
	return []Question{
		{
			ID: "social_level", Type: MCQ,
			Question: "Are you a social person?",
			Options:  []string{"Very social", "Somewhat social", "Mostly introverted", "Prefer solitude"},
		},
		{
			ID: "writing_style_importance", Type: MCQ,
			Question: "How important is the writing style to you?",
			Options:  []string{"Very important", "Somewhat important", "Not important", "Simple writing"},
		},
		{
			ID: "favorite_book", Type: FRQ,
			Question: "What is the name of your favorite book?",
		},
		{
			ID: "enjoy_themes", Type: FRQ,
			Question: "What themes or topics do you most enjoy exploring in books?",
		},
	}
}

// SampleAnswers answers SampleQuestions.
func SampleAnswers() Answers {
	return Answers{
		"social_level":             {"Somewhat social"},
		"writing_style_importance": {"Very important"},
		"favorite_book":            {"To Kill a Mockingbird"},
		"enjoy_themes":             {"Justice, empathy, and historical fiction"},
	}
}
