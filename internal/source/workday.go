package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/fitwatch/internal/model"
)

const (
	workdayPageSize = 20
	// workdayMaxPages bounds a single listing so a huge tenant cannot stall a run.
	workdayMaxPages = 50
)

// workdayListingResponse is the response from the Workday jobs listing endpoint.
type workdayListingResponse struct {
	Total       int              `json:"total"`
	JobPostings []workdayListing `json:"jobPostings"`
}

type workdayListing struct {
	Title         string   `json:"title"`
	ExternalPath  string   `json:"externalPath"`
	LocationsText string   `json:"locationsText"`
	PostedOn      string   `json:"postedOn"`
	BulletFields  []string `json:"bulletFields"`
}

// workdayListingRequest is the POST body for the Workday jobs listing endpoint.
type workdayListingRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

// workdayDetailResponse is the response from the Workday job detail endpoint.
type workdayDetailResponse struct {
	JobPostingInfo workdayJobDetail `json:"jobPostingInfo"`
}

type workdayJobDetail struct {
	JobReqID            string   `json:"jobReqId"`
	Title               string   `json:"title"`
	Location            string   `json:"location"`
	PostedOn            string   `json:"postedOn"`
	StartDate           string   `json:"startDate"`
	ExternalURL         string   `json:"externalUrl"`
	JobDescription      string   `json:"jobDescription"`
	AdditionalLocations []string `json:"additionalLocations"`
}

var cxsPathRegex = regexp.MustCompile(`/wday/cxs/[^/]+`)

// WorkdaySource lists postings from a Workday career site. The listing is
// paginated; descriptions come from FetchDetail.
type WorkdaySource struct {
	baseURL    string
	publicBase string
	company    string
	client     *http.Client
	now        func() time.Time
}

// NewWorkdaySource creates a source for a Workday career site. baseURL is the
// cxs API root, e.g. https://acme.wd5.myworkdayjobs.com/wday/cxs/acme/External.
func NewWorkdaySource(baseURL, company string, client *http.Client) *WorkdaySource {
	baseURL = strings.TrimRight(baseURL, "/")
	return &WorkdaySource{
		baseURL:    baseURL,
		publicBase: cxsPathRegex.ReplaceAllString(baseURL, ""),
		company:    model.NormalizeCompany(company),
		client:     client,
		now:        time.Now,
	}
}

func (s *WorkdaySource) Company() string { return s.company }

// ListPostings pages through POST /jobs and returns listing-level postings.
func (s *WorkdaySource) ListPostings(ctx context.Context) ([]model.Posting, error) {
	listings, err := s.fetchAllListings(ctx)
	if err != nil {
		return nil, err
	}

	postings := make([]model.Posting, 0, len(listings))
	for _, l := range listings {
		if l.ExternalPath == "" {
			continue
		}
		p := model.Posting{
			Link:     s.publicBase + l.ExternalPath,
			Title:    strings.TrimSpace(l.Title),
			Company:  s.company,
			Location: l.LocationsText,
			Metadata: map[string]string{
				"ats":           "workday",
				"external_path": l.ExternalPath,
			},
		}
		if isAmbiguousLocation(l.LocationsText) {
			p.Location = ""
		}
		if t := parsePostedOn(l.PostedOn, s.now()); t != nil {
			p.PostingDate = t.Format("2006-01-02")
		}
		if len(l.BulletFields) > 0 {
			p.Metadata["req_id"] = l.BulletFields[0]
		}
		postings = append(postings, p)
	}
	return postings, nil
}

func (s *WorkdaySource) fetchAllListings(ctx context.Context) ([]workdayListing, error) {
	var all []workdayListing
	offset := 0

	for page := 0; page < workdayMaxPages; page++ {
		body := workdayListingRequest{
			AppliedFacets: map[string]any{},
			Limit:         workdayPageSize,
			Offset:        offset,
		}

		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("workday listing marshal for %s: %w", s.company, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/jobs", bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("workday listing request for %s: %w", s.company, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := do(s.client, req, "workday listing fetch for "+s.company)
		if err != nil {
			return nil, err
		}

		var listResp workdayListingResponse
		err = json.NewDecoder(resp.Body).Decode(&listResp)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("workday listing decode for %s: %w", s.company, err)
		}

		all = append(all, listResp.JobPostings...)

		offset += workdayPageSize
		if len(listResp.JobPostings) == 0 || offset >= listResp.Total {
			break
		}
	}

	return all, nil
}

// FetchDetail fills description, location and apply URL from the job detail endpoint.
func (s *WorkdaySource) FetchDetail(ctx context.Context, p model.Posting) (model.Posting, error) {
	path := p.Metadata["external_path"]
	if path == "" {
		return p, nil
	}

	var detail workdayDetailResponse
	if err := getJSON(ctx, s.client, s.baseURL+path, "workday detail fetch for "+s.company, &detail); err != nil {
		return p, err
	}

	info := detail.JobPostingInfo
	p.Description = extractText(info.JobDescription)

	if info.Location != "" {
		location := info.Location
		if len(info.AdditionalLocations) > 0 {
			location = location + "; " + strings.Join(info.AdditionalLocations, "; ")
		}
		p.Location = location
	}
	if info.JobReqID != "" {
		p.Metadata["req_id"] = info.JobReqID
	}
	if info.ExternalURL != "" {
		p.Metadata["apply_url"] = info.ExternalURL
	}

	// Prefer startDate (format "2006-01-02"), fall back to postedOn parsing
	if _, err := time.Parse("2006-01-02", info.StartDate); err == nil {
		p.PostingDate = info.StartDate
	} else if t := parsePostedOn(info.PostedOn, s.now()); t != nil {
		p.PostingDate = t.Format("2006-01-02")
	}
	return p, nil
}

var ambiguousLocationRegex = regexp.MustCompile(`^\d+ Locations?$`)

// isAmbiguousLocation returns true for Workday location strings like
// "2 Locations" where the actual location is only known after a detail fetch.
func isAmbiguousLocation(loc string) bool {
	return ambiguousLocationRegex.MatchString(loc)
}

var daysAgoRegex = regexp.MustCompile(`^Posted (\d+) Days? Ago$`)

// parsePostedOn converts a Workday relative date string to an approximate date.
func parsePostedOn(postedOn string, now time.Time) *time.Time {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch postedOn {
	case "Posted Today":
		return &today
	case "Posted Yesterday":
		t := today.AddDate(0, 0, -1)
		return &t
	}

	matches := daysAgoRegex.FindStringSubmatch(postedOn)
	if matches == nil {
		return nil
	}
	// "Posted 30+ Days Ago" has no usable date
	n, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil
	}
	t := today.AddDate(0, 0, -n)
	return &t
}
