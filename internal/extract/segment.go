package extract

import (
	"regexp"
	"strings"
)

// RawBlock is the markup between one record's opening and closing markers.
type RawBlock struct {
	// Index is the position of the opening marker among all record markers.
	Index int
	Text  string
}

// SegmentResult is the output of Segment.
type SegmentResult struct {
	Blocks      []RawBlock
	Diagnostics []Diagnostic
	// Found counts opening markers, including those whose block was malformed.
	Found int
}

var (
	liTokenRe   = regexp.MustCompile(`(?i)<li\b[^>]*>|</li\s*>`)
	bookClassRe = regexp.MustCompile(`(?i)\sclass\s*=\s*"[^"]*\bbook-list-item\b[^"]*"`)
	bookIndexRe = regexp.MustCompile(`(?i)\sdata-book\s*=\s*"\d+"`)
)

func isCloseLi(tok string) bool {
	return strings.HasPrefix(tok, "</")
}

// isRecordMarker reports whether an <li> start tag opens a record block.
func isRecordMarker(tok string) bool {
	return !isCloseLi(tok) && bookClassRe.MatchString(tok) && bookIndexRe.MatchString(tok)
}

// Segment splits doc into record blocks. A block runs from its opening
// marker to the </li> that balances it; nested list items are skipped over.
// A block with no balancing </li> before the next record marker (or the end
// of the document) is reported as unterminated and left out.
func Segment(doc string) SegmentResult {
	var res SegmentResult
	tokens := liTokenRe.FindAllStringIndex(doc, -1)
	index := -1
	i := 0
	for i < len(tokens) {
		open := doc[tokens[i][0]:tokens[i][1]]
		if !isRecordMarker(open) {
			i++
			continue
		}
		index++
		res.Found++
		start := tokens[i][1]
		depth := 1
		closed := false
		j := i + 1
		for ; j < len(tokens); j++ {
			tok := doc[tokens[j][0]:tokens[j][1]]
			if isCloseLi(tok) {
				depth--
				if depth == 0 {
					res.Blocks = append(res.Blocks, RawBlock{Index: index, Text: doc[start:tokens[j][0]]})
					closed = true
					break
				}
				continue
			}
			if isRecordMarker(tok) {
				break
			}
			depth++
		}
		if closed {
			i = j + 1
			continue
		}
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			BlockIndex: index,
			Field:      FieldBlock,
			Reason:     ReasonUnterminated,
			Detail:     "no closing </li> for record marker",
		})
		i = j
	}
	return res
}
