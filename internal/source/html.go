package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/fitwatch/internal/model"
)

// Selectors locate posting fields on a careers page. Item matches one
// element per posting; the other selectors are evaluated inside it. On a
// detail page Description and Requirements are evaluated against the whole
// document.
type Selectors struct {
	Item         string `yaml:"item"`
	Title        string `yaml:"title"`
	Link         string `yaml:"link"`
	Team         string `yaml:"team"`
	Location     string `yaml:"location"`
	Description  string `yaml:"description"`
	Requirements string `yaml:"requirements"`
}

// HTMLSource scrapes a careers page that has no JSON API.
type HTMLSource struct {
	pageURL   string
	company   string
	selectors Selectors
	client    *http.Client
}

// NewHTMLSource creates a source for a plain careers page.
func NewHTMLSource(pageURL, company string, sel Selectors, client *http.Client) *HTMLSource {
	if sel.Link == "" {
		sel.Link = "a"
	}
	return &HTMLSource{
		pageURL:   pageURL,
		company:   model.NormalizeCompany(company),
		selectors: sel,
		client:    client,
	}
}

func (s *HTMLSource) Company() string { return s.company }

// ListPostings returns one posting per Item element that has both a title
// and a link.
func (s *HTMLSource) ListPostings(ctx context.Context) ([]model.Posting, error) {
	if s.selectors.Item == "" || s.selectors.Title == "" {
		return nil, fmt.Errorf("html source for %s: item and title selectors are required", s.company)
	}

	doc, base, err := s.fetch(ctx, s.pageURL)
	if err != nil {
		return nil, err
	}

	var postings []model.Posting
	doc.Find(s.selectors.Item).Each(func(_ int, item *goquery.Selection) {
		title := selText(item, s.selectors.Title)
		href, ok := item.Find(s.selectors.Link).First().Attr("href")
		if !ok && goquery.NodeName(item) == "a" {
			href, ok = item.Attr("href")
		}
		if title == "" || !ok {
			return
		}
		link, err := base.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		postings = append(postings, model.Posting{
			Link:         link.String(),
			Title:        title,
			Company:      s.company,
			Team:         selText(item, s.selectors.Team),
			Location:     selText(item, s.selectors.Location),
			Description:  selText(item, s.selectors.Description),
			Requirements: selText(item, s.selectors.Requirements),
			Metadata:     map[string]string{"ats": "html"},
		})
	})
	return postings, nil
}

// FetchDetail loads the posting's own page and reads description and
// requirements from it.
func (s *HTMLSource) FetchDetail(ctx context.Context, p model.Posting) (model.Posting, error) {
	if s.selectors.Description == "" && s.selectors.Requirements == "" {
		return p, nil
	}
	doc, _, err := s.fetch(ctx, p.Link)
	if err != nil {
		return p, err
	}
	if d := selText(doc.Selection, s.selectors.Description); d != "" {
		p.Description = d
	}
	if r := selText(doc.Selection, s.selectors.Requirements); r != "" {
		p.Requirements = r
	}
	return p, nil
}

func (s *HTMLSource) fetch(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, error) {
	label := "html fetch for " + s.company
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", label, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", label, err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := do(s.client, req, label)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", label, err)
	}
	return doc, base, nil
}

func selText(sel *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return collapseSpace(sel.Find(selector).First().Text())
}
