package source

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/amishk599/fitwatch/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID             int64              `json:"id"`
	Title          string             `json:"title"`
	Location       greenhouseLocation `json:"location"`
	AbsoluteURL    string             `json:"absolute_url"`
	UpdatedAt      string             `json:"updated_at"`
	FirstPublished string             `json:"first_published"`
	RequisitionID  string             `json:"requisition_id"`
	Content        string             `json:"content"`
	Departments    []greenhouseDept   `json:"departments"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

type greenhouseDept struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseSource lists postings from the Greenhouse public boards API.
type GreenhouseSource struct {
	boardToken string
	company    string
	client     *http.Client
}

// NewGreenhouseSource creates a source for a Greenhouse board.
func NewGreenhouseSource(boardToken, company string, client *http.Client) *GreenhouseSource {
	return &GreenhouseSource{
		boardToken: boardToken,
		company:    model.NormalizeCompany(company),
		client:     client,
	}
}

func (s *GreenhouseSource) Company() string { return s.company }

// ListPostings retrieves every open job on the board. Descriptions are left
// to FetchDetail.
func (s *GreenhouseSource) ListPostings(ctx context.Context) ([]model.Posting, error) {
	url := fmt.Sprintf("%s/%s/jobs", greenhouseBaseURL, s.boardToken)

	var ghResp greenhouseResponse
	if err := getJSON(ctx, s.client, url, "greenhouse fetch for "+s.boardToken, &ghResp); err != nil {
		return nil, err
	}

	postings := make([]model.Posting, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		p := model.Posting{
			Link:        gj.AbsoluteURL,
			Title:       strings.TrimSpace(gj.Title),
			Company:     s.company,
			Location:    gj.Location.Name,
			PostingDate: dateOnly(firstNonEmpty(gj.FirstPublished, gj.UpdatedAt)),
			Metadata: map[string]string{
				"ats":    "greenhouse",
				"job_id": strconv.FormatInt(gj.ID, 10),
			},
		}
		if gj.RequisitionID != "" {
			p.Metadata["requisition_id"] = gj.RequisitionID
		}
		postings = append(postings, p)
	}
	return postings, nil
}

// FetchDetail fills description and team from the single-job endpoint.
func (s *GreenhouseSource) FetchDetail(ctx context.Context, p model.Posting) (model.Posting, error) {
	id := p.Metadata["job_id"]
	if id == "" {
		return p, nil
	}
	url := fmt.Sprintf("%s/%s/jobs/%s", greenhouseBaseURL, s.boardToken, id)

	var gj greenhouseJob
	if err := getJSON(ctx, s.client, url, "greenhouse detail for "+s.boardToken, &gj); err != nil {
		return p, err
	}

	p.Description = extractText(gj.Content)
	var depts []string
	for _, d := range gj.Departments {
		depts = append(depts, d.Name)
	}
	if len(depts) > 0 {
		p.Team = strings.Join(depts, ", ")
	}
	if gj.Location.Name != "" {
		p.Location = gj.Location.Name
	}
	return p, nil
}
