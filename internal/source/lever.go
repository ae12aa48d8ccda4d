package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/fitwatch/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Team         string   `json:"team"`
	Department   string   `json:"department"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

type leverList struct {
	Text    string `json:"text"`
	Content string `json:"content"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	Description      string          `json:"description"`
	DescriptionPlain string          `json:"descriptionPlain"`
	Lists            []leverList     `json:"lists"`
	Categories       leverCategories `json:"categories"`
	CreatedAt        int64           `json:"createdAt"`
	WorkplaceType    string          `json:"workplaceType"`
	HostedURL        string          `json:"hostedUrl"`
	ApplyURL         string          `json:"applyUrl"`
}

// LeverSource lists postings from the Lever public postings API. The
// listing already carries descriptions, so no detail fetch is needed.
type LeverSource struct {
	companySlug string
	company     string
	client      *http.Client
}

// NewLeverSource creates a source for a Lever board.
func NewLeverSource(companySlug, company string, client *http.Client) *LeverSource {
	return &LeverSource{
		companySlug: companySlug,
		company:     model.NormalizeCompany(company),
		client:      client,
	}
}

func (s *LeverSource) Company() string { return s.company }

// ListPostings retrieves every posting on the board.
func (s *LeverSource) ListPostings(ctx context.Context) ([]model.Posting, error) {
	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, s.companySlug)

	var leverJobs []leverJob
	if err := getJSON(ctx, s.client, url, "lever fetch for "+s.companySlug, &leverJobs); err != nil {
		return nil, err
	}

	postings := make([]model.Posting, 0, len(leverJobs))
	for _, lj := range leverJobs {
		// Prefer allLocations if available, fallback to location.
		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, ", ")
		}

		p := model.Posting{
			Link:         lj.HostedURL,
			Title:        strings.TrimSpace(lj.Text),
			Company:      s.company,
			Team:         firstNonEmpty(lj.Categories.Team, lj.Categories.Department),
			Location:     location,
			Description:  firstNonEmpty(lj.DescriptionPlain, extractText(lj.Description)),
			Requirements: leverRequirements(lj.Lists),
			Metadata: map[string]string{
				"ats":    "lever",
				"job_id": lj.ID,
			},
		}
		// createdAt is Unix milliseconds.
		if lj.CreatedAt > 0 {
			p.PostingDate = time.UnixMilli(lj.CreatedAt).UTC().Format("2006-01-02")
		}
		if lj.ApplyURL != "" {
			p.Metadata["apply_url"] = lj.ApplyURL
		}
		if lj.Categories.Commitment != "" {
			p.Metadata["commitment"] = lj.Categories.Commitment
		}
		if lj.WorkplaceType != "" {
			p.Metadata["workplace_type"] = lj.WorkplaceType
		}
		postings = append(postings, p)
	}
	return postings, nil
}

func leverRequirements(lists []leverList) string {
	var parts []string
	for _, l := range lists {
		body := extractText(l.Content)
		if body == "" {
			continue
		}
		parts = append(parts, collapseSpace(l.Text+": "+body))
	}
	return strings.Join(parts, "\n")
}
