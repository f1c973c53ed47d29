// Package rewriter transforms banner and signature HTML so that links and
// images route through the click/view tracking endpoints. It operates on raw
// tag text rather than a parsed DOM: banner HTML authored in the dashboard is
// frequently unbalanced or malformed, and the transformation must degrade to
// a best-effort substitution instead of failing the pipeline that embeds the
// banner into an outbound email.
package rewriter

import (
	"net/url"
	"strings"
)

// trackedMarker is appended to rewritten HTML. Its presence makes every
// subsequent Rewrite call a no-op, so banner HTML can safely be re-wrapped
// each time it is assigned to a new recipient without nesting anchors or
// duplicating pixels.
const trackedMarker = "<!--sigtrack:rewritten-->"

// Rewriter builds tracking URLs against a fixed public base URL
type Rewriter struct {
	baseURL string
}

// New creates a Rewriter. baseURL is the externally reachable origin of the
// tracking endpoints, e.g. "https://track.example.com".
func New(baseURL string) *Rewriter {
	return &Rewriter{baseURL: strings.TrimRight(baseURL, "/")}
}

// ClickURL returns the click-redirect endpoint for a banner and recipient
func (r *Rewriter) ClickURL(bannerUID, recipientEmail string) string {
	u := r.baseURL + "/track/click?banner_id=" + url.QueryEscape(bannerUID)
	if recipientEmail != "" {
		u += "&email=" + url.QueryEscape(recipientEmail)
	}
	return u
}

// ViewURL returns the view-pixel endpoint for a banner and recipient
func (r *Rewriter) ViewURL(bannerUID, recipientEmail string) string {
	u := r.baseURL + "/track/view?banner_id=" + url.QueryEscape(bannerUID)
	if recipientEmail != "" {
		u += "&email=" + url.QueryEscape(recipientEmail)
	}
	return u
}

// IsTracked reports whether html has already been through Rewrite
func IsTracked(html string) bool {
	return strings.Contains(html, trackedMarker)
}

// Rewrite produces the tracked version of html for the given banner:
//
//   - every <img> not already inside an anchor is wrapped in an anchor
//     pointing at the click endpoint
//   - every existing anchor's href is swapped for the click endpoint, with
//     the original destination preserved in data-original-href
//   - when includePixel is set, one off-screen 1x1 view pixel is appended
//
// Rewriting already-tracked HTML returns the input unchanged. The function
// never fails; unbalanced or otherwise malformed input is transformed as far
// as it can be read and emitted verbatim past that point.
func (r *Rewriter) Rewrite(html, bannerUID, recipientEmail string, includePixel bool) string {
	if html == "" || IsTracked(html) {
		return html
	}

	clickURL := r.ClickURL(bannerUID, recipientEmail)
	out := transform(html, clickURL)

	if includePixel {
		out += pixelTag(r.ViewURL(bannerUID, recipientEmail))
	}
	return out + trackedMarker
}

// transform walks the input one tag at a time, tracking how many anchors are
// open so images nested in an existing link are left alone. Many email
// clients render nested interactive elements incorrectly, so those images
// keep their original surrounding anchor.
func transform(input, clickURL string) string {
	var b strings.Builder
	b.Grow(len(input) + 256)

	anchorDepth := 0
	i := 0
	for i < len(input) {
		lt := strings.IndexByte(input[i:], '<')
		if lt < 0 {
			b.WriteString(input[i:])
			break
		}
		lt += i
		b.WriteString(input[i:lt])

		// Comments may contain '>' freely; pass them through whole
		if strings.HasPrefix(input[lt:], "<!--") {
			end := strings.Index(input[lt:], "-->")
			if end < 0 {
				b.WriteString(input[lt:])
				break
			}
			b.WriteString(input[lt : lt+end+3])
			i = lt + end + 3
			continue
		}

		gt := strings.IndexByte(input[lt:], '>')
		if gt < 0 {
			// Unterminated tag: emit the remainder untouched
			b.WriteString(input[lt:])
			break
		}
		gt += lt
		tag := input[lt : gt+1]

		switch {
		case isOpenTag(tag, "a"):
			anchorDepth++
			b.WriteString(rewriteAnchor(tag, clickURL))
		case isCloseTag(tag, "a"):
			if anchorDepth > 0 {
				anchorDepth--
			}
			b.WriteString(tag)
		case isOpenTag(tag, "img") && anchorDepth == 0:
			b.WriteString(`<a href="` + clickURL + `" target="_blank">`)
			b.WriteString(tag)
			b.WriteString("</a>")
		default:
			b.WriteString(tag)
		}
		i = gt + 1
	}

	return b.String()
}

// rewriteAnchor swaps the anchor's href for clickURL and records the original
// destination in data-original-href so link text and styling survive with
// only the destination changed. Anchors that already carry the side attribute
// are left untouched.
func rewriteAnchor(tag, clickURL string) string {
	if strings.Contains(strings.ToLower(tag), "data-original-href") {
		return tag
	}

	vs, ve := hrefValueRange(tag)
	if vs < 0 {
		// Anchor without an href (e.g. a named anchor): give it one
		return tag[:len(tag)-1] + ` href="` + clickURL + `">`
	}

	orig := tag[vs:ve]
	replaced := tag[:vs] + clickURL + tag[ve:]

	closing := ">"
	end := len(replaced) - 1
	if strings.HasSuffix(replaced, "/>") {
		closing = "/>"
		end = len(replaced) - 2
	}
	return replaced[:end] + ` data-original-href="` + escapeAttr(orig) + `"` + closing
}

// hrefValueRange locates the value of the href attribute inside a tag and
// returns its [start, end) byte range, excluding any surrounding quotes.
// Returns (-1, -1) when no usable href is present.
func hrefValueRange(tag string) (int, int) {
	lower := strings.ToLower(tag)
	for i := 1; i+4 <= len(lower); i++ {
		if lower[i:i+4] != "href" || !isSpace(lower[i-1]) {
			continue
		}
		j := i + 4
		for j < len(tag) && isSpace(tag[j]) {
			j++
		}
		if j >= len(tag) || tag[j] != '=' {
			continue
		}
		j++
		for j < len(tag) && isSpace(tag[j]) {
			j++
		}
		if j >= len(tag) {
			return -1, -1
		}
		if tag[j] == '"' || tag[j] == '\'' {
			quote := tag[j]
			k := j + 1
			for k < len(tag) && tag[k] != quote {
				k++
			}
			if k >= len(tag) {
				return -1, -1
			}
			return j + 1, k
		}
		k := j
		for k < len(tag) && !isSpace(tag[k]) && tag[k] != '>' {
			k++
		}
		return j, k
	}
	return -1, -1
}

// isOpenTag reports whether tag is an opening tag with the given name
func isOpenTag(tag, name string) bool {
	if len(tag) < len(name)+2 || tag[0] != '<' {
		return false
	}
	if !strings.EqualFold(tag[1:1+len(name)], name) {
		return false
	}
	next := tag[1+len(name)]
	return next == '>' || next == '/' || isSpace(next)
}

// isCloseTag reports whether tag is a closing tag with the given name
func isCloseTag(tag, name string) bool {
	if len(tag) < len(name)+3 || tag[0] != '<' || tag[1] != '/' {
		return false
	}
	if !strings.EqualFold(tag[2:2+len(name)], name) {
		return false
	}
	rest := strings.TrimSpace(tag[2+len(name) : len(tag)-1])
	return rest == ""
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func escapeAttr(v string) string {
	return strings.ReplaceAll(v, `"`, "&quot;")
}

// pixelTag renders the appended view pixel. The pixel is hidden by
// off-screen absolute positioning rather than display:none, which several
// email clients strip along with the element.
func pixelTag(viewURL string) string {
	return `<img src="` + viewURL + `" width="1" height="1" alt="" style="position:absolute;left:-9999px;top:-9999px;border:0;" />`
}
