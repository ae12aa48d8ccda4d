package filter

import (
	"testing"

	"github.com/amishk599/fitwatch/internal/model"
)

func posting(title, location string) model.Posting {
	return model.Posting{Link: "https://example.com/" + title, Title: title, Location: location}
}

func TestTitleAndLocationFilter_Match(t *testing.T) {
	tests := []struct {
		name          string
		titleKeywords []string
		exclude       []string
		locations     []string
		posting       model.Posting
		wantMatch     bool
	}{
		{
			name:          "matches both title and location",
			titleKeywords: []string{"software engineer", "backend"},
			locations:     []string{"United States", "Remote"},
			posting:       posting("Software Engineer", "Remote - US"),
			wantMatch:     true,
		},
		{
			name:          "title match but location miss",
			titleKeywords: []string{"software engineer"},
			locations:     []string{"United States", "Remote"},
			posting:       posting("Software Engineer", "London, UK"),
			wantMatch:     false,
		},
		{
			name:          "case insensitive matching",
			titleKeywords: []string{"FULLSTACK"},
			locations:     []string{"us"},
			posting:       posting("Fullstack Developer", "US Remote"),
			wantMatch:     true,
		},
		{
			name:          "no keywords match",
			titleKeywords: []string{"devops", "sre"},
			locations:     []string{"Remote"},
			posting:       posting("Frontend Engineer", "New York, NY"),
			wantMatch:     false,
		},
		{
			name:          "excluded title wins over include",
			titleKeywords: []string{"engineer"},
			exclude:       []string{"intern"},
			posting:       posting("Software Engineer Intern", "Remote"),
			wantMatch:     false,
		},
		{
			name:      "unknown location passes",
			locations: []string{"Remote"},
			posting:   posting("Data Engineer", ""),
			wantMatch: true,
		},
		{
			name:          "blank keywords ignored",
			titleKeywords: []string{"  "},
			posting:       posting("Any Role", "Anywhere"),
			wantMatch:     true,
		},
		{
			name:      "empty keyword lists pass all",
			posting:   posting("Any Role", "Anywhere"),
			wantMatch: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewTitleAndLocationFilter(tt.titleKeywords, tt.exclude, tt.locations)
			if got := f.Match(tt.posting); got != tt.wantMatch {
				t.Errorf("Match() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

func TestAll(t *testing.T) {
	var f model.PostingFilter = All{}
	if !f.Match(model.Posting{}) {
		t.Error("All should match everything")
	}
}
