package model

import "time"

// Score is the set of sub-scores attached to an enrichment. It is either a
// LegacyScore or a DetailedScore; callers branch on the concrete type.
type Score interface {
	Skills() float64
	Interest() float64
	// Balanced combines the sub-scores with the formula for this schema.
	Balanced() float64
	isScore()
}

// LegacyScore is the two-axis schema written by older runs. ExperienceMatch
// is carried for display only and does not take part in Balanced.
type LegacyScore struct {
	SkillsMatch       float64
	ExperienceMatch   float64
	InterestAlignment float64
}

func (s LegacyScore) Skills() float64   { return s.SkillsMatch }
func (s LegacyScore) Interest() float64 { return s.InterestAlignment }
func (LegacyScore) isScore()            {}

// Balanced returns (skills + interest) / 2.
func (s LegacyScore) Balanced() float64 {
	return (s.SkillsMatch + s.InterestAlignment) / 2
}

// DetailedScore is the granular schema with level and role-type fit.
type DetailedScore struct {
	SkillsMatch       float64
	ExperienceLevel   float64
	RoleCompatibility float64
	InterestAlignment float64
}

func (s DetailedScore) Skills() float64   { return s.SkillsMatch }
func (s DetailedScore) Interest() float64 { return s.InterestAlignment }
func (DetailedScore) isScore()            {}

// Balanced returns 0.3*skills + 0.3*experience_level + 0.4*role_compatibility.
func (s DetailedScore) Balanced() float64 {
	return 0.3*s.SkillsMatch + 0.3*s.ExperienceLevel + 0.4*s.RoleCompatibility
}

// RoleCompatibility returns the role-type sub-score when the schema has one.
func RoleCompatibility(s Score) (float64, bool) {
	if d, ok := s.(DetailedScore); ok {
		return d.RoleCompatibility, true
	}
	return 0, false
}

// Experience returns the experience sub-score of either schema.
func Experience(s Score) float64 {
	switch v := s.(type) {
	case DetailedScore:
		return v.ExperienceLevel
	case LegacyScore:
		return v.ExperienceMatch
	}
	return 0
}

// Fallback result text, also used to recognise fallback records written
// before the explicit Failed flag existed.
const (
	FallbackSummary    = "Analysis failed - API error"
	FallbackGap        = "Analysis failed"
	FallbackExcitement = "Could not analyze"
)

// Enrichment is the fit analysis attached to a posting.
type Enrichment struct {
	Score            Score
	OverallFit       float64
	KeyStrengths     []string
	PotentialGaps    []string
	ExcitementFactor string
	Summary          string
	WouldRecommend   bool
	Failed           bool // synthetic zero result substituted after a scoring failure
	AnalyzedAt       time.Time
}

// Balanced returns the balanced score, recomputed from the sub-scores.
func (e Enrichment) Balanced() float64 {
	if e.Score == nil {
		return 0
	}
	return e.Score.Balanced()
}

// Skills returns the skills sub-score, zero when no score is attached.
func (e Enrichment) Skills() float64 {
	if e.Score == nil {
		return 0
	}
	return e.Score.Skills()
}

// Interest returns the interest sub-score, zero when no score is attached.
func (e Enrichment) Interest() float64 {
	if e.Score == nil {
		return 0
	}
	return e.Score.Interest()
}

// FallbackEnrichment returns the all-zero result used when scoring fails.
func FallbackEnrichment(at time.Time) Enrichment {
	return Enrichment{
		Score:            DetailedScore{},
		PotentialGaps:    []string{FallbackGap},
		ExcitementFactor: FallbackExcitement,
		Summary:          FallbackSummary,
		Failed:           true,
		AnalyzedAt:       at,
	}
}

// ClampScore bounds a score to [0, 100].
func ClampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
