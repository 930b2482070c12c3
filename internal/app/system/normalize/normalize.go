// Package normalize cleans user-supplied values before they are stored or
// compared.
package normalize

import (
	"sort"
	"strings"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role trims and lowercases a role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query-string value. Case is preserved.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// SubjectCode trims and uppercases a subject code such as "comp30023".
func SubjectCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Tags lowercases, trims, de-duplicates and sorts a tag list. Empty entries
// are dropped; the result is nil when nothing remains.
func Tags(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ClockTime pads "HH:MM" to "HH:MM:SS" and trims whitespace. Other inputs are
// returned trimmed and unchanged, so validation still sees them.
func ClockTime(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == len("15:04") && s[2] == ':' {
		return s + ":00"
	}
	return s
}
