// internal/domain/scoring/recommend.go
package scoring

import (
	"sort"
	"strings"
	"unicode"

	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recommendation weights and thresholds.
const (
	MajorWeight            = 40.0
	MajorDescriptionWeight = 20.0
	YearMatchWeight        = 15.0
	FormatMatchWeight      = 15.0
	LanguageMatchWeight    = 10.0
	PopularityBonus        = 10.0
	RatingBonus            = 10.0
	DiversityBonus         = 5.0

	PopularMemberCount = 5
	HighRating         = 4.0

	// MinRecommendScore is exclusive: a candidate must score above it.
	MinRecommendScore = 20.0
	// DefaultRecommendLimit is the default N for Recommend.
	DefaultRecommendLimit = 10
)

// Reasons reported with a recommendation.
const (
	ReasonMajor       = "matches_major"
	ReasonMajorDesc   = "mentions_major"
	ReasonYear        = "same_year_level"
	ReasonFormat      = "preferred_format"
	ReasonLanguage    = "shared_language"
	ReasonPopular     = "popular"
	ReasonHighlyRated = "highly_rated"
	ReasonNewSubject  = "new_subject"
)

// Profile is the student side of a recommendation.
type Profile struct {
	Major                string
	YearLevel            string
	PreferredStudyFormat string
	Languages            []string

	// Groups the student already belongs to.
	JoinedGroupIDs []primitive.ObjectID
	JoinedSubjects []string
}

// ProfileFor builds a Profile from a user and the groups they joined.
func ProfileFor(u models.User, joined []models.Group) Profile {
	p := Profile{
		Major:                u.Major,
		YearLevel:            u.YearLevel,
		PreferredStudyFormat: u.PreferredStudyFormat,
		Languages:            u.Languages,
	}
	for _, g := range joined {
		p.JoinedGroupIDs = append(p.JoinedGroupIDs, g.ID)
		p.JoinedSubjects = append(p.JoinedSubjects, g.SubjectCode)
	}
	return p
}

// Candidate is a group plus the aggregates the scorer needs.
type Candidate struct {
	Group         models.Group
	MemberCount   int64
	AverageRating float64
}

// Recommendation is one scored candidate.
type Recommendation struct {
	Group         models.Group `json:"group"`
	Score         float64      `json:"recommendation_score"`
	Reasons       []string     `json:"reasons"`
	MemberCount   int64        `json:"member_count"`
	AverageRating float64      `json:"average_rating"`
}

var majorStopwords = map[string]struct{}{
	"and": {}, "of": {}, "the": {}, "in": {}, "for": {}, "with": {},
	"bachelor": {}, "master": {}, "studies": {},
}

// MajorKeywords splits a major into lowercase keywords of three or more
// letters, without filler words.
func MajorKeywords(major string) []string {
	fields := strings.FieldsFunc(strings.ToLower(major), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := map[string]struct{}{}
	var out []string
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := majorStopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Score rates one candidate for a profile.
func Score(p Profile, c Candidate) (float64, []string) {
	g := c.Group
	var score float64
	reasons := []string{}

	if kws := MajorKeywords(p.Major); len(kws) > 0 {
		primary := strings.ToLower(g.SubjectCode + " " + g.CourseName + " " + strings.Join(g.Tags, " "))
		switch {
		case containsAny(primary, kws):
			score += MajorWeight
			reasons = append(reasons, ReasonMajor)
		case containsAny(strings.ToLower(g.Description), kws):
			score += MajorDescriptionWeight
			reasons = append(reasons, ReasonMajorDesc)
		}
	}
	if p.YearLevel != "" && strings.EqualFold(p.YearLevel, g.YearLevel) {
		score += YearMatchWeight
		reasons = append(reasons, ReasonYear)
	}
	if p.PreferredStudyFormat != "" && strings.EqualFold(p.PreferredStudyFormat, g.MeetingFormat) {
		score += FormatMatchWeight
		reasons = append(reasons, ReasonFormat)
	}
	if g.PrimaryLanguage != "" {
		for _, l := range p.Languages {
			if strings.EqualFold(strings.TrimSpace(l), g.PrimaryLanguage) {
				score += LanguageMatchWeight
				reasons = append(reasons, ReasonLanguage)
				break
			}
		}
	}
	if c.MemberCount >= PopularMemberCount {
		score += PopularityBonus
		reasons = append(reasons, ReasonPopular)
	}
	if c.AverageRating >= HighRating {
		score += RatingBonus
		reasons = append(reasons, ReasonHighlyRated)
	}
	if !containsFold(p.JoinedSubjects, g.SubjectCode) {
		score += DiversityBonus
		reasons = append(reasons, ReasonNewSubject)
	}
	return round2(score), reasons
}

// Recommend scores every candidate the student has not joined, keeps those
// above MinRecommendScore and returns the best n. Ties keep input order.
func Recommend(p Profile, candidates []Candidate, n int) []Recommendation {
	if n <= 0 {
		n = DefaultRecommendLimit
	}
	joined := make(map[primitive.ObjectID]struct{}, len(p.JoinedGroupIDs))
	for _, id := range p.JoinedGroupIDs {
		joined[id] = struct{}{}
	}

	out := make([]Recommendation, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := joined[c.Group.ID]; ok {
			continue
		}
		s, reasons := Score(p, c)
		if s <= MinRecommendScore {
			continue
		}
		out = append(out, Recommendation{
			Group:         c.Group,
			Score:         s,
			Reasons:       reasons,
			MemberCount:   c.MemberCount,
			AverageRating: c.AverageRating,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func containsFold(xs []string, s string) bool {
	for _, x := range xs {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}
