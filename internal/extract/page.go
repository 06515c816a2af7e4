package extract

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/bookmatch/internal/normalize"
)

// PageTitle returns the normalized <title> of doc, or "" when there is none.
func PageTitle(doc string) string {
	node, err := html.Parse(strings.NewReader(doc))
	if err != nil || node == nil {
		return ""
	}
	head := findFirst(node, "head")
	if head == nil {
		return ""
	}
	t := findFirst(head, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return normalize.Text(t.FirstChild.Data)
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}
