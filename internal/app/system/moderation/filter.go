// internal/app/system/moderation/filter.go
package moderation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Confidence levels reported by the lexical filter.
const (
	ExactConfidence   = 1.0
	VariantConfidence = 0.9

	// DefaultMinConfidence is the lowest confidence that blocks content.
	DefaultMinConfidence = 0.8

	minCheckLength = 3
	mask           = "********"
)

// Result is the outcome of a moderation check.
type Result struct {
	Valid      bool     `json:"valid"`
	Message    string   `json:"message,omitempty"`
	Confidence float64  `json:"confidence"`
	Matches    []string `json:"matches,omitempty"`
}

// blocked holds profanity and slurs. Generic words that also occur in normal
// study talk ("kill", "attack", "drug") are not listed.
var blocked = []string{
	"nigger", "nigga", "faggot", "fag", "dyke", "kike", "spic", "chink", "gook", "wop", "dago",
	"kraut", "raghead", "towelhead", "sandnigger", "mudshark", "junglebunny", "porchmonkey",
	"coon", "jigaboo", "spearchucker", "zipperhead", "slanteye", "wetback", "beaner",
	"cameljockey",
	"bitch", "whore", "slut", "cunt", "pussy", "asshole", "motherfucker", "fuck", "fucker",
	"fucking", "shit", "shithead", "bastard", "sonofabitch", "dumbass", "dumbfuck",
	"retard", "retarded",
}

// leet folds common character substitutions back to letters. Ambiguous
// characters list every letter they may stand for.
var leet = map[rune][]rune{
	'@': {'a'}, '4': {'a'}, 'α': {'a'},
	'3': {'e'}, 'ε': {'e'},
	'1': {'i', 'l'}, '!': {'i'}, '|': {'i', 'l'},
	'0': {'o'}, 'θ': {'o'},
	'$': {'s'}, '5': {'s'},
	'7': {'t'}, '+': {'t'},
	'8': {'b'}, 'β': {'b'},
	'9': {'g'}, '6': {'g'},
	'2': {'z'},
}

var tokenRe = regexp.MustCompile(`\S+`)

// Filter is a lexical content filter. It is safe for concurrent use.
type Filter struct {
	minConfidence float64
	words         map[string]struct{}
	collapsed     map[string]string // collapsed form -> word
}

// NewFilter returns a filter that blocks matches at or above minConfidence.
// A non-positive value selects DefaultMinConfidence.
func NewFilter(minConfidence float64) *Filter {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	f := &Filter{
		minConfidence: minConfidence,
		words:         make(map[string]struct{}, len(blocked)),
		collapsed:     make(map[string]string, len(blocked)),
	}
	for _, w := range blocked {
		f.words[w] = struct{}{}
		f.collapsed[collapseRuns(w)] = w
	}
	return f
}

// MinConfidence reports the blocking threshold.
func (f *Filter) MinConfidence() float64 { return f.minConfidence }

// Check inspects text and reports whether it may be published.
func (f *Filter) Check(text string) Result {
	return f.CheckField("message", text)
}

// CheckField is Check with the field name used in the rejection message.
func (f *Filter) CheckField(field, text string) Result {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minCheckLength {
		return Result{Valid: true}
	}

	found := map[string]float64{}
	note := func(word string, conf float64) {
		if conf > found[word] {
			found[word] = conf
		}
	}

	tokens := strings.Fields(strings.ToLower(text))
	for _, tok := range tokens {
		if w, conf, ok := f.matchToken(tok); ok {
			note(w, conf)
		}
	}
	for _, joined := range spacedRuns(tokens) {
		if _, ok := f.words[joined]; ok {
			note(joined, VariantConfidence)
		}
	}

	if len(found) == 0 {
		return Result{Valid: true}
	}

	res := Result{Valid: true}
	for w, conf := range found {
		res.Matches = append(res.Matches, w)
		if conf > res.Confidence {
			res.Confidence = conf
		}
	}
	sort.Strings(res.Matches)
	if res.Confidence >= f.minConfidence {
		res.Valid = false
		res.Message = fmt.Sprintf("Your %s contains inappropriate language. Please revise your content.", field)
	}
	return res
}

// Sanitize replaces each offending token with asterisks and leaves the
// surrounding whitespace untouched.
func (f *Filter) Sanitize(text string) string {
	return tokenRe.ReplaceAllStringFunc(text, func(tok string) string {
		if _, _, ok := f.matchToken(strings.ToLower(tok)); ok {
			return mask
		}
		return tok
	})
}

// matchToken checks a single lowercased token. The exact form wins; then
// leet folding with separators stripped; then stretched letters.
func (f *Filter) matchToken(tok string) (string, float64, bool) {
	bare := strings.TrimFunc(tok, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !isLeet(r) })
	if _, ok := f.words[bare]; ok {
		return bare, ExactConfidence, true
	}
	// Trailing punctuation like "!" is both leet and ordinary punctuation.
	plain := strings.TrimFunc(tok, func(r rune) bool { return !unicode.IsLetter(r) })
	if _, ok := f.words[plain]; ok {
		return plain, ExactConfidence, true
	}

	for _, cand := range foldLeet(bare) {
		if _, ok := f.words[cand]; ok {
			return cand, VariantConfidence, true
		}
		if hasStretch(cand) {
			if w, ok := f.collapsed[collapseRuns(cand)]; ok {
				return w, VariantConfidence, true
			}
		}
	}
	return "", 0, false
}

func isLeet(r rune) bool {
	_, ok := leet[r]
	return ok
}

// foldLeet expands every leet character into the letters it may stand for and
// drops anything that is not a letter afterwards. The number of candidates is
// capped so adversarial input cannot blow up.
func foldLeet(tok string) []string {
	const maxCandidates = 16
	out := []string{""}
	for _, r := range tok {
		var opts []rune
		switch {
		case unicode.IsLetter(r) && !isLeet(r):
			opts = []rune{r}
		case isLeet(r):
			opts = leet[r]
		default:
			continue
		}
		next := make([]string, 0, len(out)*len(opts))
		for _, prefix := range out {
			for _, o := range opts {
				if len(next) >= maxCandidates {
					break
				}
				next = append(next, prefix+string(o))
			}
		}
		out = next
	}
	return out
}

// hasStretch reports a run of three or more identical letters.
func hasStretch(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= 3 {
				return true
			}
		} else {
			prev, run = r, 1
		}
	}
	return false
}

func collapseRuns(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// spacedRuns joins runs of three or more single-letter tokens, so that
// "f u c k" is checked as one word.
func spacedRuns(tokens []string) []string {
	var out []string
	var run []string
	flush := func() {
		if len(run) >= 3 {
			out = append(out, strings.Join(run, ""))
		}
		run = run[:0]
	}
	for _, t := range tokens {
		if utf8.RuneCountInString(t) == 1 {
			r, _ := utf8.DecodeRuneInString(t)
			if l := leet[r]; l != nil {
				t = string(l[0])
			}
			run = append(run, t)
			continue
		}
		flush()
	}
	flush()
	return out
}
