package rewriter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://track.example.com"

func TestRewriteIdempotence(t *testing.T) {
	r := New(testBaseURL)

	tests := []struct {
		name string
		html string
	}{
		{name: "plain anchor", html: `<a href="https://example.com/promo">Sale</a>`},
		{name: "bare image", html: `<img src="https://cdn.example.com/banner.png" alt="banner">`},
		{name: "image inside anchor", html: `<a href="https://example.com"><img src="x.png"></a>`},
		{name: "no markup at all", html: `hello world`},
		{name: "unbalanced tags", html: `<a href="https://example.com">text<img src="x.png">`},
		{name: "empty input", html: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := r.Rewrite(tt.html, "b-123", "user@example.com", true)
			twice := r.Rewrite(once, "b-123", "user@example.com", true)
			assert.Equal(t, once, twice)
		})
	}
}

func TestRewriteAnchorPreservation(t *testing.T) {
	r := New(testBaseURL)
	in := `<a href="https://example.com/promo?x=1">Spring Sale</a>`

	out := r.Rewrite(in, "b-123", "", false)

	// Visible text untouched
	assert.Contains(t, out, ">Spring Sale</a>")
	// Destination swapped for the click endpoint
	assert.Contains(t, out, `href="`+testBaseURL+`/track/click?banner_id=b-123"`)
	// Original destination recoverable from the side attribute
	assert.Contains(t, out, `data-original-href="https://example.com/promo?x=1"`)
	// The original URL no longer appears as the live href
	assert.NotContains(t, out, `<a href="https://example.com/promo?x=1"`)
}

func TestRewriteRecipientInURL(t *testing.T) {
	r := New(testBaseURL)
	out := r.Rewrite(`<a href="https://example.com">x</a>`, "b-9", "a+b@example.com", true)

	assert.Contains(t, out, "banner_id=b-9&email=a%2Bb%40example.com")
	assert.Contains(t, out, "/track/view?banner_id=b-9&email=a%2Bb%40example.com")
}

func TestRewriteWrapsBareImages(t *testing.T) {
	r := New(testBaseURL)
	out := r.Rewrite(`<p><img src="banner.png" alt="b"></p>`, "b-1", "", false)

	assert.Contains(t, out, `<a href="`+testBaseURL+`/track/click?banner_id=b-1" target="_blank"><img src="banner.png" alt="b"></a>`)
}

func TestRewriteNestedImageExclusion(t *testing.T) {
	r := New(testBaseURL)
	in := `<a href="https://example.com"><img src="inner.png"></a><img src="outer.png">`

	out := r.Rewrite(in, "b-1", "", false)

	// The nested image keeps exactly one surrounding anchor; the bare image
	// gets wrapped, for two anchors total.
	assert.Equal(t, 2, strings.Count(out, "<a "))
	assert.Contains(t, out, `"><img src="inner.png"></a>`)
	assert.Contains(t, out, `target="_blank"><img src="outer.png"></a>`)
}

func TestRewriteUppercaseTags(t *testing.T) {
	r := New(testBaseURL)
	out := r.Rewrite(`<A HREF="https://example.com">x</A><IMG SRC="y.png">`, "b-1", "", false)

	assert.Contains(t, out, `data-original-href="https://example.com"`)
	assert.Contains(t, out, `target="_blank"><IMG SRC="y.png"></a>`)
}

func TestRewritePixel(t *testing.T) {
	r := New(testBaseURL)

	t.Run("appended once when requested", func(t *testing.T) {
		out := r.Rewrite(`<p>hi</p>`, "b-1", "", true)
		assert.Equal(t, 1, strings.Count(out, "/track/view?banner_id=b-1"))
		assert.Contains(t, out, `width="1" height="1"`)
		// Off-screen positioning, not display:none
		assert.Contains(t, out, "position:absolute")
		assert.NotContains(t, out, "display:none")
	})

	t.Run("omitted when not requested", func(t *testing.T) {
		out := r.Rewrite(`<p>hi</p>`, "b-1", "", false)
		assert.NotContains(t, out, "/track/view")
	})
}

func TestRewriteMalformedHTML(t *testing.T) {
	r := New(testBaseURL)

	tests := []struct {
		name string
		html string
	}{
		{name: "unterminated tag", html: `<a href="https://example.com`},
		{name: "stray close anchors", html: `</a></a><img src="x.png">`},
		{name: "tag soup", html: `<<a><img<img src="x">>`},
		{name: "unterminated comment", html: `<!-- open comment <img src="x">`},
		{name: "href without value", html: `<a href>text</a>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotPanics(t, func() {
				out := r.Rewrite(tt.html, "b-1", "", true)
				assert.True(t, IsTracked(out))
			})
		})
	}
}

func TestRewriteCommentsPassThrough(t *testing.T) {
	r := New(testBaseURL)
	in := `<!-- if x > y --><a href="https://example.com">x</a>`

	out := r.Rewrite(in, "b-1", "", false)

	assert.Contains(t, out, "<!-- if x > y -->")
	assert.Contains(t, out, `data-original-href="https://example.com"`)
}

func TestRewriteSingleQuotedAndUnquotedHref(t *testing.T) {
	r := New(testBaseURL)

	t.Run("single quotes", func(t *testing.T) {
		out := r.Rewrite(`<a href='https://example.com/a'>x</a>`, "b-1", "", false)
		assert.Contains(t, out, `data-original-href="https://example.com/a"`)
		assert.Contains(t, out, "/track/click?banner_id=b-1")
	})

	t.Run("unquoted", func(t *testing.T) {
		out := r.Rewrite(`<a href=https://example.com/a>x</a>`, "b-1", "", false)
		assert.Contains(t, out, `data-original-href="https://example.com/a"`)
		assert.Contains(t, out, "/track/click?banner_id=b-1")
	})
}

func TestIsTracked(t *testing.T) {
	r := New(testBaseURL)
	assert.False(t, IsTracked(`<p>x</p>`))
	assert.True(t, IsTracked(r.Rewrite(`<p>x</p>`, "b-1", "", false)))
}
