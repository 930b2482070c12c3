package htmlsanitize

import (
	"strings"
	"testing"
)

func TestSanitize_Guidelines(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		keep    []string
		dropped []string
	}{
		{
			name: "formatting and lists survive",
			in:   "<p><strong>Be on time.</strong></p><ul><li>Bring notes</li><li>Mute when away</li></ul>",
			keep: []string{"<strong>Be on time.</strong>", "<ul>", "<li>Bring notes</li>"},
		},
		{
			name:    "script removed",
			in:      "<p>Week 3 plan</p><script>steal(document.cookie)</script>",
			keep:    []string{"<p>Week 3 plan</p>"},
			dropped: []string{"<script", "steal"},
		},
		{
			name:    "event handler removed",
			in:      `<a href="https://canvas.lms.unimelb.edu.au" onclick="evil()">Canvas</a>`,
			keep:    []string{"https://canvas.lms.unimelb.edu.au", ">Canvas</a>"},
			dropped: []string{"onclick"},
		},
		{
			name:    "javascript url removed",
			in:      `<a href="javascript:alert(1)">notes</a>`,
			dropped: []string{"javascript:"},
		},
		{
			name: "schedule table keeps layout attributes",
			in:   `<table class="roster"><tr><th colspan="2">Mon</th></tr><tr><td style="text-align: center">Ann</td><td>Bob</td></tr></table>`,
			keep: []string{`class="roster"`, `colspan="2"`, "text-align"},
		},
		{
			name:    "forms and iframes removed",
			in:      `<form action="/x"><input name="pw"></form><iframe src="https://example.com"></iframe>ok`,
			keep:    []string{"ok"},
			dropped: []string{"<form", "<input", "<iframe"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in)
			for _, k := range tt.keep {
				if !strings.Contains(got, k) {
					t.Errorf("Sanitize(%q) = %q, missing %q", tt.in, got, k)
				}
			}
			for _, d := range tt.dropped {
				if strings.Contains(got, d) {
					t.Errorf("Sanitize(%q) = %q, still contains %q", tt.in, got, d)
				}
			}
		})
	}

	if got := Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q", got)
	}
}

func TestPlainText(t *testing.T) {
	tests := map[string]string{
		"":                                  "",
		"  see you at Baillieu  ":           "see you at Baillieu",
		"<b>midsem</b> &amp; final":         "midsem & final",
		"<script>alert(1)</script>revision": "revision",
		`<img src=x onerror="boom()">hi`:    "hi",
	}
	for in, want := range tests {
		if got := PlainText(in); got != want {
			t.Errorf("PlainText(%q) = %q, want %q", in, got, want)
		}
	}
}
