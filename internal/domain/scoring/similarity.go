// internal/domain/scoring/similarity.go
//
// Package scoring ranks study groups against each other and against a
// student's profile. Everything here is pure: no I/O, no clock.
package scoring

import (
	"sort"
	"strings"

	"github.com/melbminds/studyhub/internal/domain/models"
)

// Similarity weights.
const (
	SubjectWeight       = 50.0
	TagWeight           = 30.0
	PersonalityWeight   = 20.0
	YearLevelWeight     = 10.0
	MeetingFormatWeight = 10.0

	// DefaultMinSimilarity drops weakly related groups from TopSimilar.
	DefaultMinSimilarity = 10.0
	// DefaultSimilarLimit is the default K for TopSimilar.
	DefaultSimilarLimit = 5
)

// Factor names reported alongside a similarity score.
const (
	FactorSubject       = "same_subject"
	FactorTags          = "shared_tags"
	FactorPersonality   = "shared_personality"
	FactorYearLevel     = "same_year_level"
	FactorMeetingFormat = "same_meeting_format"
)

// Similar is one ranked neighbour.
type Similar struct {
	Group   models.Group `json:"group"`
	Score   float64      `json:"similarity_score"`
	Factors []string     `json:"factors"`
}

// Similarity scores how alike two groups are and names the factors that
// contributed. It is symmetric.
func Similarity(a, b models.Group) (float64, []string) {
	var score float64
	factors := []string{}

	if a.SubjectCode != "" && strings.EqualFold(a.SubjectCode, b.SubjectCode) {
		score += SubjectWeight
		factors = append(factors, FactorSubject)
	}
	if j := Jaccard(a.Tags, b.Tags); j > 0 {
		score += j * TagWeight
		factors = append(factors, FactorTags)
	}
	if j := Jaccard(a.PersonalityTags, b.PersonalityTags); j > 0 {
		score += j * PersonalityWeight
		factors = append(factors, FactorPersonality)
	}
	if a.YearLevel != "" && strings.EqualFold(a.YearLevel, b.YearLevel) {
		score += YearLevelWeight
		factors = append(factors, FactorYearLevel)
	}
	if a.MeetingFormat != "" && strings.EqualFold(a.MeetingFormat, b.MeetingFormat) {
		score += MeetingFormatWeight
		factors = append(factors, FactorMeetingFormat)
	}
	return round2(score), factors
}

// TopSimilar returns up to k groups most similar to target, excluding target
// itself and anything scoring below minScore. Ties keep creation order.
func TopSimilar(target models.Group, candidates []models.Group, k int, minScore float64) []Similar {
	if k <= 0 {
		k = DefaultSimilarLimit
	}
	out := make([]Similar, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == target.ID {
			continue
		}
		s, f := Similarity(target, c)
		if s < minScore {
			continue
		}
		out = append(out, Similar{Group: c, Score: s, Factors: f})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Group.CreatedAt.Before(out[j].Group.CreatedAt)
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Jaccard is |a∩b| / |a∪b| over case-folded, trimmed elements. Two empty sets
// score 0.
func Jaccard(a, b []string) float64 {
	sa, sb := set(a), set(b)
	if len(sa) == 0 && len(sb) == 0 {
		return 0
	}
	inter := 0
	for k := range sa {
		if _, ok := sb[k]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

func set(xs []string) map[string]struct{} {
	m := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		x = strings.ToLower(strings.TrimSpace(x))
		if x != "" {
			m[x] = struct{}{}
		}
	}
	return m
}

func round2(f float64) float64 {
	if f < 0 {
		return -round2(-f)
	}
	return float64(int64(f*100+0.5)) / 100
}
