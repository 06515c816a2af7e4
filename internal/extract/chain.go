package extract

import "strings"

// Matcher is one extraction strategy for a field.
type Matcher[T any] struct {
	Name  string
	Match func(block string) (T, bool)
}

// Chain is an ordered list of matchers for one field. Matchers are tried
// strictly in order; the first success wins.
type Chain[T any] struct {
	Field    string
	Matchers []Matcher[T]
}

// Run returns the first matcher's value and its position in the chain, or
// ok=false when every matcher failed.
func (c Chain[T]) Run(block string) (value T, pos int, ok bool) {
	for i, m := range c.Matchers {
		if v, hit := m.Match(block); hit {
			return v, i, true
		}
	}
	var zero T
	return zero, -1, false
}

// Names lists matcher names in order.
func (c Chain[T]) Names() []string {
	out := make([]string, 0, len(c.Matchers))
	for _, m := range c.Matchers {
		out = append(out, m.Name)
	}
	return out
}

func (c Chain[T]) triedDetail() string {
	return "tried: " + strings.Join(c.Names(), ", ")
}
