package seo

import (
	"math"
	"strings"
)

// Dimension is one of the four qualitative scoring axes.
type Dimension string

const (
	DimExpertise         Dimension = "expertise"
	DimExperience        Dimension = "experience"
	DimAuthoritativeness Dimension = "authoritativeness"
	DimTrustworthiness   Dimension = "trustworthiness"
)

// IndicatorSet maps each dimension to its indicator substrings. Scoring
// is a coarse lexical heuristic: min(100, 20 * distinct indicators
// present in the lower-cased content). The defaults are a starting
// point, not a verified quality measure; override per deployment.
type IndicatorSet map[Dimension][]string

// DefaultIndicators returns the built-in indicator lists.
func DefaultIndicators() IndicatorSet {
	return IndicatorSet{
		DimExpertise: {
			"research", "study", "analysis", "methodology", "data",
			"certified", "specialized", "technical", "expert", "professional",
		},
		DimExperience: {
			"experience", "years", "hands-on", "in practice", "case study",
			"we found", "real-world", "tested", "tried", "firsthand",
		},
		DimAuthoritativeness: {
			"according to", "source", "cited", "reference", "published",
			"official", "industry", "leading", "recognized", "award",
		},
		DimTrustworthiness: {
			"transparent", "disclosure", "verified", "accurate", "fact-checked",
			"privacy", "secure", "guarantee", "review", "updated",
		},
	}
}

// Page is the scorable view of a produced piece of content.
type Page struct {
	Title         string
	Description   string
	Content       string
	Tags          []string
	InternalLinks []string
	HasSchema     bool
}

// Score is a full scoring result. Every field lies in [0,100]. It is
// derived purely from the page and target keyword and carries no
// persistent identity.
type Score struct {
	Expertise          int `json:"expertise"`
	Experience         int `json:"experience"`
	Authoritativeness  int `json:"authoritativeness"`
	Trustworthiness    int `json:"trustworthiness"`
	OverallQualitative int `json:"overall_qualitative"`
	SEO                int `json:"seo"`
	Combined           int `json:"combined"`
}

// Rubric holds the tunable constants of the search-optimization rubric.
// Zero-value fields are filled from DefaultRubric by NewScorer.
type Rubric struct {
	TitleMinLen, TitleMaxLen int
	DescMinLen, DescMaxLen   int
	LongContentWords         int
	MediumContentWords       int
	DensityMin, DensityMax   float64
	QualWeight, SEOWeight    float64
}

// DefaultRubric returns the standard rubric constants.
func DefaultRubric() Rubric {
	return Rubric{
		TitleMinLen:        30,
		TitleMaxLen:        60,
		DescMinLen:         120,
		DescMaxLen:         160,
		LongContentWords:   800,
		MediumContentWords: 500,
		DensityMin:         0.5,
		DensityMax:         2.5,
		QualWeight:         0.6,
		SEOWeight:          0.4,
	}
}

// headingMarkers are the structural markers the rubric checks for.
var headingMarkers = []string{"# ", "## ", "### ", "<h1", "<h2", "<h3"}

// Scorer computes qualitative and search-optimization scores. It is
// stateless apart from its configuration and safe for concurrent use.
type Scorer struct {
	indicators IndicatorSet
	rubric     Rubric
}

// ScorerOption customizes a Scorer.
type ScorerOption func(*Scorer)

// WithIndicators replaces the default indicator lists.
func WithIndicators(set IndicatorSet) ScorerOption {
	return func(s *Scorer) {
		if len(set) > 0 {
			s.indicators = set
		}
	}
}

// WithRubric replaces the default rubric constants.
func WithRubric(r Rubric) ScorerOption {
	return func(s *Scorer) { s.rubric = r }
}

// NewScorer creates a Scorer with the default indicator set and rubric.
func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{
		indicators: DefaultIndicators(),
		rubric:     DefaultRubric(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the full result for a page against a target keyword.
func (s *Scorer) Score(page Page, keyword string) Score {
	qual := s.scoreQualitative(page.Content)
	seoScore := s.scoreSEO(page, keyword)

	combined := int(math.Round(
		s.rubric.QualWeight*float64(qual.OverallQualitative) +
			s.rubric.SEOWeight*float64(seoScore)))
	if combined > 100 {
		combined = 100
	}

	qual.SEO = seoScore
	qual.Combined = combined
	return qual
}

// scoreQualitative computes the four dimension scores and their rounded
// mean.
func (s *Scorer) scoreQualitative(content string) Score {
	lower := strings.ToLower(content)
	dim := func(d Dimension) int {
		hits := 0
		for _, indicator := range s.indicators[d] {
			if strings.Contains(lower, indicator) {
				hits++
			}
		}
		score := hits * 20
		if score > 100 {
			score = 100
		}
		return score
	}

	out := Score{
		Expertise:         dim(DimExpertise),
		Experience:        dim(DimExperience),
		Authoritativeness: dim(DimAuthoritativeness),
		Trustworthiness:   dim(DimTrustworthiness),
	}
	sum := out.Expertise + out.Experience + out.Authoritativeness + out.Trustworthiness
	out.OverallQualitative = int(math.Round(float64(sum) / 4))
	return out
}

// scoreSEO applies the additive search-optimization rubric, capped at 100.
func (s *Scorer) scoreSEO(page Page, keyword string) int {
	r := s.rubric
	lowerKeyword := strings.ToLower(strings.TrimSpace(keyword))
	score := 0

	if n := len(page.Title); n >= r.TitleMinLen && n <= r.TitleMaxLen {
		score += 10
	}
	if lowerKeyword != "" && strings.Contains(strings.ToLower(page.Title), lowerKeyword) {
		score += 10
	}

	if n := len(page.Description); n >= r.DescMinLen && n <= r.DescMaxLen {
		score += 8
	}
	if lowerKeyword != "" && strings.Contains(strings.ToLower(page.Description), lowerKeyword) {
		score += 7
	}

	words := WordCount(page.Content)
	switch {
	case words >= r.LongContentWords:
		score += 15
	case words >= r.MediumContentWords:
		score += 10
	}

	if lowerKeyword != "" && words > 0 {
		occurrences := strings.Count(strings.ToLower(page.Content), lowerKeyword)
		density := float64(occurrences) / float64(words) * 100
		if density >= r.DensityMin && density <= r.DensityMax {
			score += 20
		}
	}

	for _, marker := range headingMarkers {
		if strings.Contains(page.Content, marker) {
			score += 15
			break
		}
	}

	if page.HasSchema {
		score += 5
	}
	if len(page.Tags) > 0 {
		score += 5
	}
	if len(page.InternalLinks) > 0 {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}

// WordCount counts whitespace-separated words.
func WordCount(content string) int {
	return len(strings.Fields(content))
}
