package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText_DecodesEntities(t *testing.T) {
	assert.Equal(t, "Fish & Chips", Text("Fish &amp; Chips"))
	assert.Equal(t, "AT&T", Text("AT&amp;amp;T"), "double-escaped input settles")
	assert.Equal(t, "a b", Text("a&nbsp;b"), "NBSP counts as white space")
	assert.Equal(t, "Don't", Text("Don&#39;t"))
}

func TestText_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", Text("a   b\r\n c"))
	assert.Equal(t, "a b c", Text(`a   b\r\n c`), "literal escape sequences collapse too")
	assert.Equal(t, "one two", Text("\t one\n\n two  "))
	assert.Equal(t, "", Text(" \t\r\n "))
	assert.Equal(t, "", Text(""))
}

func TestText_StripsTagsWithoutFusingWords(t *testing.T) {
	assert.Equal(t, "First Second", Text("<p>First</p><p>Second</p>"))
	assert.Equal(t, "Tom Jerry", Text("Tom<br>Jerry"))
	assert.Equal(t, "Tom Jerry", Text("Tom<br/>Jerry"))
	assert.Equal(t, "Frank", Text("Fr<i>an</i>k"), "inline tags vanish without a space")
	assert.Equal(t, "Tom Jerry", Text("<span>Tom</span><span>Jerry</span>"), "adjacent inline elements stay separate words")
	assert.Equal(t, "Tom Jerry", Text("<b>Tom</b><i>Jerry</i>"))
	assert.Equal(t, "Tom, Jerry", Text("<span>Tom</span>, <span>Jerry</span>"))
	assert.Equal(t, "Read Dune now", Text(`Read <a href="/b/1">Dune</a> now`))
	assert.Equal(t, "Hi", Text("<script>var x = '<b>';</script>Hi"))
	assert.Equal(t, "ab", Text("a<!-- note -->b"))
	assert.Equal(t, "bold", Text("&lt;b&gt;bold&lt;/b&gt;"), "decoded markup is stripped as well")
}

func TestText_ComposesUnicode(t *testing.T) {
	assert.Equal(t, "Café", Text("Cafe\u0301"))
	assert.Equal(t, "Gabriel García Márquez", Text("Gabriel Garc&iacute;a M&aacute;rquez"))
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Fish &amp; Chips",
		"a   b\r\n c",
		`a\r\nb`,
		"&amp;lt;b&amp;gt;bold",
		"a &lt; b",
		"x <y",
		"<<>>",
		"<div><p>Swann&#39;s Way</p>\n<p>was published in 1913.</p></div>",
		"Fr<i>an</i>k &amp;amp; <b>Co</b>",
		"<span>Tom</span><span>Jerry</span>",
		"Cafe\u0301 \u00a0 ",
	}
	for _, in := range inputs {
		once := Text(in)
		assert.Equal(t, once, Text(once), "input %q", in)
	}
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "&", DecodeEntities("&amp;amp;"))
	assert.Equal(t, "no refs", DecodeEntities("no refs"))
	assert.Equal(t, "plain", StripTags("plain"))
	assert.Equal(t, "a b", CollapseSpace("  a \n b "))
	assert.Equal(t, "https://a.com/?a=1&b=2", URL("  https://a.com/?a=1&amp;b=2 "))
}
