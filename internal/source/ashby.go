package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/amishk599/fitwatch/internal/model"
)

const ashbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"

// ashbyJob represents a single job in the Ashby API response.
type ashbyJob struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Location         string `json:"location"`
	Department       string `json:"department"`
	Team             string `json:"team"`
	EmploymentType   string `json:"employmentType"`
	DescriptionPlain string `json:"descriptionPlain"`
	DescriptionHTML  string `json:"descriptionHtml"`
	JobUrl           string `json:"jobUrl"`
	PublishedAt      string `json:"publishedAt"`
	IsListed         bool   `json:"isListed"`
}

// ashbyResponse is the top-level Ashby job board API response.
type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

// AshbySource lists postings from the Ashby public job board API.
type AshbySource struct {
	boardToken string
	company    string
	client     *http.Client
}

// NewAshbySource creates a source for an Ashby job board.
func NewAshbySource(boardToken, company string, client *http.Client) *AshbySource {
	return &AshbySource{
		boardToken: boardToken,
		company:    model.NormalizeCompany(company),
		client:     client,
	}
}

func (s *AshbySource) Company() string { return s.company }

// ListPostings retrieves every listed job on the board.
func (s *AshbySource) ListPostings(ctx context.Context) ([]model.Posting, error) {
	url := fmt.Sprintf("%s/%s", ashbyBaseURL, s.boardToken)

	var ashbyResp ashbyResponse
	if err := getJSON(ctx, s.client, url, "ashby fetch for "+s.boardToken, &ashbyResp); err != nil {
		return nil, err
	}

	postings := make([]model.Posting, 0, len(ashbyResp.Jobs))
	for _, aj := range ashbyResp.Jobs {
		if !aj.IsListed {
			continue
		}

		p := model.Posting{
			Link:        aj.JobUrl,
			Title:       strings.TrimSpace(aj.Title),
			Company:     s.company,
			Team:        firstNonEmpty(aj.Team, aj.Department),
			Location:    aj.Location,
			Description: firstNonEmpty(aj.DescriptionPlain, extractText(aj.DescriptionHTML)),
			PostingDate: dateOnly(aj.PublishedAt),
			Metadata:    map[string]string{"ats": "ashby"},
		}
		if aj.ID != "" {
			p.Metadata["job_id"] = aj.ID
		}
		if aj.EmploymentType != "" {
			p.Metadata["employment_type"] = aj.EmploymentType
		}
		postings = append(postings, p)
	}
	return postings, nil
}
