package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperifyio/bookmatch/internal/books"
)

// Kind names one of the two recommendation lists.
type Kind string

const (
	LikelyToEnjoy  Kind = "likelyToEnjoy"
	DifferentTaste Kind = "differentTaste"
)

// Kinds lists both kinds in output order.
func Kinds() []Kind { return []Kind{LikelyToEnjoy, DifferentTaste} }

// MaxPerList is the most books the model may return per list.
const MaxPerList = 10

// descriptionWords bounds the description excerpt in the reasoning prompt.
const descriptionWords = 35

// BookList renders records as a JSON array of "TITLE by AUTHOR" strings,
// without HTML escaping.
func BookList(records []books.Record) (string, error) {
	list := make([]string, 0, len(records))
	for _, r := range records {
		list = append(list, r.BookString())
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(list); err != nil {
		return "", fmt.Errorf("encode book list: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Selection builds the prompt asking the model to pick books for both lists.
func Selection(responses string, bookListJSON string) string {
	var sb strings.Builder
	sb.WriteString("You are a highly knowledgeable and insightful book recommendation system.\n")
	sb.WriteString("Your goal is to help a student discover books they will genuinely enjoy and also suggest some books that might broaden their literary horizons, based on their survey responses.\n")
	sb.WriteString("Your audience is US 9th graders in Honors English class.\n\n")
	sb.WriteString("Here are the student's responses to a survey about their reading preferences:\n")
	sb.WriteString("--- START STUDENT RESPONSES ---\n")
	sb.WriteString(responses)
	sb.WriteString("\n--- END STUDENT RESPONSES ---\n\n")
	sb.WriteString("Here is a list of available books you can recommend from. Each book is a string in the format \"TITLE by AUTHOR\":\n")
	sb.WriteString("--- START AVAILABLE BOOKS ---\n")
	sb.WriteString(bookListJSON)
	sb.WriteString("\n--- END AVAILABLE BOOKS ---\n\n")
	sb.WriteString(`Based on all the information, please provide book recommendations.
Recommendation tips:
- Listen closely to FRQ answers. They mean more to students than MCQ responses.
- Don't recommend a book that the student has already read.
- You don't need to follow all preferences in each suggestion.
- For variation in your recommendations, prefer fully following subsets of preferences.
- Be bold! in "differentTaste" recommendations.
- Any book from the list is fine as long as it's a good fit. Feel free to recommend niche, less popular books.

For the "differentTaste" category, first internally select a random subset of approximately 1/4 of the "AVAILABLE BOOKS". Then make your "differentTaste" recommendations only from that subset. The "likelyToEnjoy" category should still consider all "AVAILABLE BOOKS".

You MUST respond with a JSON object. The JSON object must have exactly two top-level keys: "likelyToEnjoy" and "differentTaste".
Each of these keys must correspond to an array of book recommendation objects.
Each book recommendation object in these arrays MUST have ONLY the following key:
1.  "bookString": string - The exact "TITLE by AUTHOR" string of the book selected from the provided "AVAILABLE BOOKS" list.

Do NOT include a "reasoning" key in this response.
`)
	fmt.Fprintf(&sb, "Provide up to %d books for \"likelyToEnjoy\", ranked in order of most likely enjoyment.\n", MaxPerList)
	fmt.Fprintf(&sb, "Provide up to %d books for \"differentTaste\", also ranked.\n", MaxPerList)
	sb.WriteString(`Do not include any books in your response that are not in the "AVAILABLE BOOKS" list.
Ensure the "bookString" field in your response exactly matches one of the entries in the "AVAILABLE BOOKS" list.
Do not add any extra text or explanation outside of the JSON object.
Your entire response should be a single, valid JSON object.`)
	return sb.String()
}

// Excerpt returns the first n words of s, with "..." when truncated.
func Excerpt(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "..."
}

// Reasoning builds the prompt asking for an overall statement and one short
// justification per selected book.
func Reasoning(responses string, kind Kind, selected []books.Record) string {
	heading := "Books You'll Likely Enjoy"
	framing := "Why you'll love this book:"
	instructions := "For each book, sell it to the student. Focus on specific, concrete details from the book that align with their stated preferences or positive experiences mentioned in their survey responses."
	if kind == DifferentTaste {
		heading = "Books to Expand Your Taste"
		framing = "Why this book might surprise you:"
		instructions = "For each book, highlight specific, concrete aspects that could offer a surprising new perspective, a unique learning opportunity, or an unexpected appeal that might positively challenge their current tastes."
	}

	var sb strings.Builder
	sb.WriteString("A student provided the following survey responses about their reading preferences:\n")
	sb.WriteString("--- START STUDENT RESPONSES ---\n")
	sb.WriteString(responses)
	sb.WriteString("\n--- END STUDENT RESPONSES ---\n\n")
	fmt.Fprintf(&sb, "You are recommending a set of books for this student under the category: %q.\n", heading)
	sb.WriteString("Your tone should be that of an insightful and engaging literary companion: knowledgeable, friendly and subtly enthusiastic.\n\n")
	sb.WriteString("First, identify a primary literary genre that best reflects the student's tastes.\n")
	sb.WriteString("Then write an overall statement that starts with \"**Primary Genre Focus: <genre>**.\" followed by a newline and one paragraph explaining why this collection suits the student.\n\n")
	sb.WriteString("Here are the books in this set:\n")
	for _, r := range selected {
		desc := Excerpt(r.Description, descriptionWords)
		if desc == "" {
			desc = "No description available."
		}
		fmt.Fprintf(&sb, "- %q by %s (Key info: %s)\n", r.Title, r.Author, desc)
	}
	sb.WriteString("\n")
	sb.WriteString(instructions)
	fmt.Fprintf(&sb, " Start each reasoning with %q.\n\n", framing)
	sb.WriteString(`Style guidelines for each reasoning:
- One or two tight sentences, at most 40 words.
- Unique to its book; do not repeat the title or author.
- Tie it to this student's survey responses, weighting FRQ answers above MCQ answers.

OUTPUT FORMAT:
Respond with a single JSON object with exactly two keys:
1. "overallStatement": string.
2. "bookReasonings": object mapping each exact "TITLE by AUTHOR" string to its reasoning.
Your entire response must be only this JSON object.`)
	return sb.String()
}
