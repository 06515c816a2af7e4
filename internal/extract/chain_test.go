package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChain_FirstMatchWins(t *testing.T) {
	var calls []string
	mk := func(name string, ok bool) Matcher[string] {
		return Matcher[string]{Name: name, Match: func(string) (string, bool) {
			calls = append(calls, name)
			return name, ok
		}}
	}
	c := Chain[string]{Field: "f", Matchers: []Matcher[string]{mk("a", false), mk("b", true), mk("c", true)}}
	v, pos, ok := c.Run("block")
	assert.True(t, ok)
	assert.Equal(t, "b", v)
	assert.Equal(t, 1, pos)
	assert.Equal(t, []string{"a", "b"}, calls, "later matchers must not run")
}

func TestChain_Exhausted(t *testing.T) {
	c := Chain[int]{Field: "n", Matchers: []Matcher[int]{
		{Name: "never", Match: func(string) (int, bool) { return 7, false }},
	}}
	v, pos, ok := c.Run("")
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.Equal(t, -1, pos)
	assert.Equal(t, "tried: never", c.triedDetail())
}

func TestFieldMatchers(t *testing.T) {
	h, ok := matchHeading(heading(12, "War &amp; Peace", "Leo <i>Tolstoy</i>"))
	assert.True(t, ok)
	assert.Equal(t, Heading{Rank: 12, Title: "War & Peace", Author: "Leo Tolstoy"}, h)

	_, ok = matchHeading(`<h4>0. <a>T</a> by <a>A</a></h4>`)
	assert.False(t, ok, "rank must be positive")

	_, ok = matchHeading(`<h4>1. <a>T</a></h4><h4>2. <a>U</a> by <a>A</a></h4>`)
	assert.True(t, ok, "second heading still matches on its own")

	v, ok := matchSubtitle(`<h5 class="small_sub_title mt-1">Also &quot;Known&quot;</h5>`)
	assert.True(t, ok)
	assert.Equal(t, `Also "Known"`, v)

	v, ok = matchDescription(`<div class="float-start"><img src="x"></div>
	<div class="col"> <p>Line one<br>line two</p></div>`)
	assert.True(t, ok)
	assert.Equal(t, "Line one line two", v)

	amazon := purchaseLink(isAmazonHost)
	_, ok = amazon(`<a class="purchase-link" href="https://www.amazon.com.evil.example/dp/1">Amazon</a>`)
	assert.False(t, ok)
	_, ok = amazon(`<a class="btn" href="https://www.amazon.com/dp/1">Amazon</a>`)
	assert.False(t, ok, "anchor needs the purchase-link class")
	v, ok = amazon(`<a href='https://smile.amazon.com/dp/2' class='purchase-link'>Buy</a>`)
	assert.True(t, ok)
	assert.Equal(t, "https://smile.amazon.com/dp/2", v)

	bookshop := purchaseLink(isBookshopHost)
	v, ok = bookshop(`<a class="purchase-link" href="https://www.amazon.com/dp/1">Amazon</a>` +
		`<a class="purchase-link" href="https://bookshop.org/p/9">Bookshop.org</a>`)
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(v, "https://bookshop.org/"))
}

func TestAttr(t *testing.T) {
	tag := `<img data-src="/lazy.jpg" src=/real.jpg alt="">`
	v, ok := attr(tag, "src")
	assert.True(t, ok)
	assert.Equal(t, "/real.jpg", v)
	v, ok = attr(tag, "alt")
	assert.True(t, ok)
	assert.Equal(t, "", v)
	_, ok = attr(tag, "href")
	assert.False(t, ok)
}
