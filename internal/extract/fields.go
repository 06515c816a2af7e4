package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperifyio/bookmatch/internal/normalize"
)

// Heading is the mandatory part of a record: rank, title and author.
type Heading struct {
	Rank   int
	Title  string
	Author string
}

// Complete reports whether all three mandatory parts were resolved.
func (h Heading) Complete() bool {
	return h.Rank > 0 && h.Title != "" && h.Author != ""
}

// inHeading lazily matches markup that does not close a heading element.
const inHeading = `(?:[^<]|<[^/]|</[^hH])*?`

var (
	// <h4>12. <a ...>Title</a> by <a ...>Author</a></h4>
	headingRe = regexp.MustCompile(`(?is)<h4\b[^>]*>\s*(\d+)\.\s*<a\b[^>]*>(` + inHeading + `)</a>\s*by\s*<a\b[^>]*>(` + inHeading + `)</a>\s*</h4>`)
	// <h4>12. <a ...>Title</a> ...anything...</h4>
	headingRelaxedRe = regexp.MustCompile(`(?is)<h4\b[^>]*>\s*(\d+)\.\s*<a\b[^>]*>(` + inHeading + `)</a>`)

	subtitleRe    = regexp.MustCompile(`(?is)<h5\b[^>]*\sclass\s*=\s*"[^"]*\bsmall_sub_title\b[^"]*"[^>]*>(.*?)</h5>`)
	descriptionRe = regexp.MustCompile(`(?is)<div\b[^>]*\sclass\s*=\s*"[^"]*\bfloat-start\b[^"]*"[^>]*>.*?</div>\s*<div\b[^>]*>\s*<p\b[^>]*>(.*?)</p>`)

	imgTagRe    = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	anchorTagRe = regexp.MustCompile(`(?is)<a\b[^>]*>`)
	coverAltRe  = regexp.MustCompile(`(?s)^Cover of '.*' by `)

	attrRes = map[string]*regexp.Regexp{}
)

func init() {
	for _, name := range []string{"alt", "src", "href", "class"} {
		attrRes[name] = regexp.MustCompile(`(?is)\s` + regexp.QuoteMeta(name) + `\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)
	}
}

// attr returns the raw value of a named attribute in a start tag.
func attr(tag, name string) (string, bool) {
	m := attrRes[name].FindStringSubmatch(tag)
	if m == nil {
		return "", false
	}
	for _, v := range m[1:] {
		if v != "" {
			return v, true
		}
	}
	return "", true
}

func hasClass(tag, class string) bool {
	v, ok := attr(tag, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if strings.EqualFold(c, class) {
			return true
		}
	}
	return false
}

func parseRank(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func matchHeading(block string) (Heading, bool) {
	m := headingRe.FindStringSubmatch(block)
	if m == nil {
		return Heading{}, false
	}
	rank, ok := parseRank(m[1])
	if !ok {
		return Heading{}, false
	}
	h := Heading{Rank: rank, Title: normalize.Text(m[2]), Author: normalize.Text(m[3])}
	if h.Title == "" || h.Author == "" {
		return Heading{}, false
	}
	return h, true
}

// matchHeadingRelaxed captures rank and title from a heading whose author is
// not linked. The author is left unresolved, so the block is still discarded;
// the partial heading only feeds the diagnostic.
func matchHeadingRelaxed(block string) (Heading, bool) {
	m := headingRelaxedRe.FindStringSubmatch(block)
	if m == nil {
		return Heading{}, false
	}
	rank, ok := parseRank(m[1])
	if !ok {
		return Heading{}, false
	}
	title := normalize.Text(m[2])
	if title == "" {
		return Heading{}, false
	}
	return Heading{Rank: rank, Title: title}, true
}

func matchSubtitle(block string) (string, bool) {
	m := subtitleRe.FindStringSubmatch(block)
	if m == nil {
		return "", false
	}
	v := normalize.Text(m[1])
	return v, v != ""
}

func matchCoverAlt(block string) (string, bool) {
	for _, tag := range imgTagRe.FindAllString(block, -1) {
		alt, ok := attr(tag, "alt")
		if !ok || !coverAltRe.MatchString(normalize.DecodeEntities(alt)) {
			continue
		}
		if src, ok := attr(tag, "src"); ok {
			if v := normalize.URL(src); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func matchFirstImage(block string) (string, bool) {
	for _, tag := range imgTagRe.FindAllString(block, -1) {
		if src, ok := attr(tag, "src"); ok {
			if v := normalize.URL(src); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func matchDescription(block string) (string, bool) {
	m := descriptionRe.FindStringSubmatch(block)
	if m == nil {
		return "", false
	}
	v := normalize.Text(m[1])
	return v, v != ""
}

// purchaseLink returns a matcher for the first purchase-link anchor whose
// target host satisfies hostOK.
func purchaseLink(hostOK func(host string) bool) func(string) (string, bool) {
	return func(block string) (string, bool) {
		for _, tag := range anchorTagRe.FindAllString(block, -1) {
			if !hasClass(tag, "purchase-link") {
				continue
			}
			href, ok := attr(tag, "href")
			if !ok {
				continue
			}
			v := normalize.URL(href)
			u, err := url.Parse(v)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				continue
			}
			if hostOK(strings.ToLower(u.Hostname())) {
				return v, true
			}
		}
		return "", false
	}
}

func isAmazonHost(h string) bool {
	return h == "amazon.com" || strings.HasSuffix(h, ".amazon.com")
}

func isBookshopHost(h string) bool {
	return h == "bookshop.org" || strings.HasSuffix(h, ".bookshop.org")
}

// Field chains, tried in the order listed.
var (
	HeadingChain = Chain[Heading]{
		Field: FieldHeading,
		Matchers: []Matcher[Heading]{
			{Name: "heading-linked", Match: matchHeading},
			{Name: "heading-relaxed", Match: matchHeadingRelaxed},
		},
	}
	OtherNamesChain = Chain[string]{
		Field:    FieldOtherNames,
		Matchers: []Matcher[string]{{Name: "subtitle", Match: matchSubtitle}},
	}
	CoverChain = Chain[string]{
		Field: FieldCover,
		Matchers: []Matcher[string]{
			{Name: "cover-alt", Match: matchCoverAlt},
			{Name: "first-img", Match: matchFirstImage},
		},
	}
	DescriptionChain = Chain[string]{
		Field:    FieldDescription,
		Matchers: []Matcher[string]{{Name: "float-start-paragraph", Match: matchDescription}},
	}
	AmazonChain = Chain[string]{
		Field:    FieldAmazon,
		Matchers: []Matcher[string]{{Name: "purchase-link-amazon", Match: purchaseLink(isAmazonHost)}},
	}
	BookshopChain = Chain[string]{
		Field:    FieldBookshop,
		Matchers: []Matcher[string]{{Name: "purchase-link-bookshop", Match: purchaseLink(isBookshopHost)}},
	}
)
