package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/amishk599/fitwatch/internal/model"
)

const gemBaseURL = "https://api.gem.com/job_board/v0"

type gemJob struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Location       gemLocation     `json:"location"`
	Departments    []gemDepartment `json:"departments"`
	AbsoluteURL    string          `json:"absolute_url"`
	FirstPublished string          `json:"first_published_at"`
	UpdatedAt      string          `json:"updated_at"`
	Content        string          `json:"content"`
	ContentPlain   string          `json:"content_plain"`
}

type gemLocation struct {
	Name string `json:"name"`
}

type gemDepartment struct {
	Name string `json:"name"`
}

// GemSource lists postings from the Gem public job board API.
type GemSource struct {
	boardToken string
	company    string
	client     *http.Client
}

// NewGemSource creates a source for a Gem job board.
func NewGemSource(boardToken, company string, client *http.Client) *GemSource {
	return &GemSource{
		boardToken: boardToken,
		company:    model.NormalizeCompany(company),
		client:     client,
	}
}

func (s *GemSource) Company() string { return s.company }

// ListPostings retrieves every post on the board, descriptions included.
func (s *GemSource) ListPostings(ctx context.Context) ([]model.Posting, error) {
	url := fmt.Sprintf("%s/%s/job_posts/", gemBaseURL, s.boardToken)

	var gemJobs []gemJob
	if err := getJSON(ctx, s.client, url, "gem fetch for "+s.boardToken, &gemJobs); err != nil {
		return nil, err
	}

	postings := make([]model.Posting, 0, len(gemJobs))
	for _, gj := range gemJobs {
		var depts []string
		for _, d := range gj.Departments {
			depts = append(depts, d.Name)
		}

		desc := gj.ContentPlain
		if desc == "" && gj.Content != "" {
			desc = extractText(gj.Content)
		}

		postings = append(postings, model.Posting{
			Link:        gj.AbsoluteURL,
			Title:       strings.TrimSpace(gj.Title),
			Company:     s.company,
			Team:        strings.Join(depts, ", "),
			Location:    gj.Location.Name,
			Description: desc,
			PostingDate: dateOnly(firstNonEmpty(gj.FirstPublished, gj.UpdatedAt)),
			Metadata:    map[string]string{"ats": "gem", "job_id": gj.ID},
		})
	}
	return postings, nil
}
