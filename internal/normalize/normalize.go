// Package normalize turns scraped markup fragments into clean single-line text.
//
// Text applies, in order: entity decoding, tag stripping, escape and
// whitespace collapsing, trimming and NFC composition. The pipeline is re-run
// until its output is stable, so Text(Text(x)) == Text(x).
package normalize

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// maxPasses bounds the fixpoint loop. Every pass either shrinks the input or
// leaves it unchanged, so real input settles in two or three passes.
const maxPasses = 8

// inlineTags are removed without leaving a space; they sit inside words.
// Two inline elements that touch, as in "</span><span>", are still separate
// words and get a space between them.
var inlineTags = map[string]struct{}{
	"a": {}, "abbr": {}, "b": {}, "cite": {}, "code": {}, "em": {}, "i": {},
	"mark": {}, "q": {}, "s": {}, "small": {}, "span": {}, "strong": {},
	"sub": {}, "sup": {}, "u": {},
}

var escapeReplacer = strings.NewReplacer(`\r\n`, " ", `\r`, " ", `\n`, " ", `\t`, " ")

// Text normalizes a markup fragment. It never fails; empty input yields "".
func Text(s string) string {
	out := s
	for i := 0; i < maxPasses; i++ {
		next := pass(out)
		if next == out {
			return next
		}
		out = next
	}
	return out
}

func pass(s string) string {
	if s == "" {
		return ""
	}
	s = DecodeEntities(s)
	s = StripTags(s)
	s = CollapseSpace(s)
	return norm.NFC.String(s)
}

// DecodeEntities replaces HTML character references with their literal
// characters, repeating until no reference is left to decode.
func DecodeEntities(s string) string {
	for i := 0; i < maxPasses; i++ {
		if !strings.Contains(s, "&") {
			return s
		}
		next := html.UnescapeString(s)
		if next == s {
			return s
		}
		s = next
	}
	return s
}

// StripTags removes markup. Inline tags disappear without a trace, except
// that an inline end tag directly followed by an inline start tag leaves one
// space. Every other tag becomes a single space so words separated only by
// tags (such as "<br>" or "</p><p>") stay apart. Comments, doctypes and the bodies of
// script and style elements are dropped.
func StripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	closedInline := false
	for {
		tt := z.Next()
		afterClose := closedInline
		closedInline = false
		switch tt {
		case html.ErrorToken:
			// io.EOF or a truncated tag at the end; either way keep what we have
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Raw())
			}
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := strings.ToLower(string(name))
			if tag == "script" || tag == "style" {
				if tt == html.StartTagToken {
					skip++
				} else if tt == html.EndTagToken && skip > 0 {
					skip--
				}
				b.WriteByte(' ')
				continue
			}
			if _, ok := inlineTags[tag]; ok {
				switch tt {
				case html.EndTagToken:
					closedInline = true
				case html.StartTagToken:
					if afterClose {
						b.WriteByte(' ')
					}
				}
				continue
			}
			b.WriteByte(' ')
		}
	}
}

// CollapseSpace turns literal "\r" / "\n" escape sequences into spaces and
// collapses every run of white space into one space, trimming both ends.
func CollapseSpace(s string) string {
	if strings.Contains(s, `\`) {
		s = escapeReplacer.Replace(s)
	}
	return strings.Join(strings.Fields(s), " ")
}

// URL cleans an attribute value such as href or src: references are decoded
// once and surrounding white space is trimmed. Tags are not touched.
func URL(s string) string {
	return strings.TrimSpace(html.UnescapeString(strings.TrimSpace(s)))
}
