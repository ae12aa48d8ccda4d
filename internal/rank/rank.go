// Package rank turns enriched postings into ranked recommendation views.
package rank

import (
	"slices"
	"strings"
	"unicode"

	"github.com/amishk599/fitwatch/internal/model"
)

// View names a ranked list.
type View string

const (
	BestOverall  View = "best_overall_fit"
	BestSkills   View = "best_skills_match"
	BestInterest View = "best_interest_alignment"
	BestBalanced View = "best_balanced_match"
)

// Views lists every view in display order.
var Views = []View{BestOverall, BestSkills, BestInterest, BestBalanced}

// Title returns a heading for the view.
func (v View) Title() string {
	switch v {
	case BestOverall:
		return "Best overall fit"
	case BestSkills:
		return "Best skills match"
	case BestInterest:
		return "Best interest alignment"
	case BestBalanced:
		return "Best balanced match"
	}
	return string(v)
}

// Key returns the score a view sorts by.
func (v View) Key(e model.Enrichment) float64 {
	switch v {
	case BestSkills:
		return e.Skills()
	case BestInterest:
		return e.Interest()
	case BestBalanced:
		return e.Balanced()
	}
	return e.OverallFit
}

// DefaultTopN is the per-view length when none is given.
const DefaultTopN = 15

// DefaultManagementOverride is the role-compatibility score a management
// title must exceed to stay in the results.
const DefaultManagementOverride = 60.0

// DefaultManagementKeywords flag people-management titles.
var DefaultManagementKeywords = []string{
	"manager", "head of", "director", "vp", "vice president", "chief",
}

// Filters narrow the postings before ranking. Zero values disable a filter.
type Filters struct {
	MinOverallFit float64
	// MinRoleCompatibility applies only to scores that carry the field.
	MinRoleCompatibility float64
	// ManagementKeywords excludes titles containing any keyword, matched
	// case-insensitively, unless role compatibility exceeds
	// ManagementOverride.
	ManagementKeywords []string
	ManagementOverride float64
	// Company keeps only one company when set.
	Company string
}

// Keep reports whether an enriched posting passes f.
func (f Filters) Keep(p model.Posting) bool {
	e := p.Enrichment
	if e == nil {
		return false
	}
	if f.Company != "" && p.Company != model.NormalizeCompany(f.Company) {
		return false
	}
	if e.OverallFit < f.MinOverallFit {
		return false
	}

	role, hasRole := model.RoleCompatibility(e.Score)
	if hasRole && role < f.MinRoleCompatibility {
		return false
	}
	if IsManagementTitle(p.Title, f.ManagementKeywords) {
		override := f.ManagementOverride
		if override == 0 {
			override = DefaultManagementOverride
		}
		if !hasRole || role <= override {
			return false
		}
	}
	return true
}

// IsManagementTitle reports whether title contains any of keywords as whole
// words, so "vp" matches "VP, Engineering" but not "MVP Engineer".
func IsManagementTitle(title string, keywords []string) bool {
	t := " " + words(title) + " "
	for _, kw := range keywords {
		kw = words(kw)
		if kw != "" && strings.Contains(t, " "+kw+" ") {
			return true
		}
	}
	return false
}

// words lowercases s and collapses every run of non-alphanumerics to a
// single space.
func words(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

// Recommendations holds each ranked view.
type Recommendations map[View][]model.Posting

// Rank builds every view from the enriched postings in postings, keeping
// input order as the tiebreak. Each view is cut to topN.
func Rank(postings []model.Posting, topN int, f Filters) Recommendations {
	if topN <= 0 {
		topN = DefaultTopN
	}

	var candidates []model.Posting
	for _, p := range postings {
		if f.Keep(p) {
			candidates = append(candidates, p)
		}
	}

	recs := make(Recommendations, len(Views))
	for _, v := range Views {
		sorted := slices.Clone(candidates)
		slices.SortStableFunc(sorted, func(a, b model.Posting) int {
			ka, kb := v.Key(*a.Enrichment), v.Key(*b.Enrichment)
			switch {
			case ka > kb:
				return -1
			case ka < kb:
				return 1
			}
			return 0
		})
		if len(sorted) > topN {
			sorted = sorted[:topN]
		}
		recs[v] = sorted
	}
	return recs
}
