// Package htmlsanitize cleans user-supplied text before it is stored.
//
// Chat messages and short fields are plain text: PlainText strips every tag.
// Group guidelines may carry simple formatting: Sanitize keeps a safe subset.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()
	rich   = newRichPolicy()
)

func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "th", "td")
	p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
	p.AllowStyles("width", "text-align").OnElements("table", "th", "td")
	return p
}

// Sanitize keeps formatting, lists, tables, links and images but removes
// scripts, event handlers, forms and unsafe URLs.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return rich.Sanitize(s)
}

// PlainText removes all markup and decodes entities, so "<b>hi</b> &amp; bye"
// becomes "hi & bye". Surrounding whitespace is trimmed.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
