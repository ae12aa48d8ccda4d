package filter

import (
	"strings"

	"github.com/amishk599/fitwatch/internal/model"
)

// TitleAndLocationFilter keeps postings whose title contains any of the title
// keywords, contains none of the excluded keywords, and whose location
// contains any of the location keywords. Matching is case-insensitive. Empty
// keyword lists are treated as "match all". A posting without a location
// passes the location check; some boards only reveal it on the detail page.
type TitleAndLocationFilter struct {
	titleKeywords []string
	excludeTitles []string
	locations     []string
}

// NewTitleAndLocationFilter returns a filter over lower-cased keyword lists.
func NewTitleAndLocationFilter(titleKeywords, excludeTitles, locations []string) *TitleAndLocationFilter {
	return &TitleAndLocationFilter{
		titleKeywords: lowerAll(titleKeywords),
		excludeTitles: lowerAll(excludeTitles),
		locations:     lowerAll(locations),
	}
}

// Match reports whether p should be tracked.
func (f *TitleAndLocationFilter) Match(p model.Posting) bool {
	titleLower := strings.ToLower(p.Title)

	if containsAny(titleLower, f.excludeTitles) {
		return false
	}
	if len(f.titleKeywords) > 0 && !containsAny(titleLower, f.titleKeywords) {
		return false
	}

	location := strings.TrimSpace(p.Location)
	if len(f.locations) > 0 && location != "" && !containsAny(strings.ToLower(location), f.locations) {
		return false
	}

	return true
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// All keeps every posting.
type All struct{}

func (All) Match(model.Posting) bool { return true }
