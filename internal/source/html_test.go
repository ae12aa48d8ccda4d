package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/fitwatch/internal/model"
)

const careersPage = `<html><body>
<ul class="jobs">
  <li class="job">
    <a class="title" href="/careers/backend">Backend Engineer</a>
    <span class="team">Platform</span>
    <span class="loc">Remote</span>
  </li>
  <li class="job">
    <a class="title" href="https://other.example.com/jobs/ml">ML Engineer</a>
    <span class="loc">London</span>
  </li>
  <li class="job">
    <span class="title">No link here</span>
  </li>
</ul>
</body></html>`

const detailPage = `<html><body>
<div class="desc"><p>Build   APIs.</p></div>
<div class="reqs"><ul>
<li>Go</li>
<li>Postgres</li>
</ul></div>
</body></html>`

func newCareersServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/careers":
			w.Write([]byte(careersPage))
		case "/careers/backend":
			w.Write([]byte(detailPage))
		default:
			http.NotFound(w, r)
		}
	}))
}

var testSelectors = Selectors{
	Item:         "li.job",
	Title:        ".title",
	Link:         "a.title",
	Team:         ".team",
	Location:     ".loc",
	Description:  ".desc",
	Requirements: ".reqs",
}

func TestHTMLListPostings(t *testing.T) {
	srv := newCareersServer()
	defer srv.Close()

	src := NewHTMLSource(srv.URL+"/careers", "Acme", testSelectors, srv.Client())
	postings, err := src.ListPostings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}
	if postings[0].Link != srv.URL+"/careers/backend" {
		t.Errorf("relative link not resolved: %q", postings[0].Link)
	}
	if postings[0].Title != "Backend Engineer" || postings[0].Team != "Platform" || postings[0].Location != "Remote" {
		t.Errorf("unexpected posting: %+v", postings[0])
	}
	if postings[1].Link != "https://other.example.com/jobs/ml" {
		t.Errorf("absolute link changed: %q", postings[1].Link)
	}
	if postings[0].Company != "acme" {
		t.Errorf("company = %q", postings[0].Company)
	}
}

func TestHTMLFetchDetail(t *testing.T) {
	srv := newCareersServer()
	defer srv.Close()

	src := NewHTMLSource(srv.URL+"/careers", "Acme", testSelectors, srv.Client())
	p, err := src.FetchDetail(context.Background(), model.Posting{Link: srv.URL + "/careers/backend", Title: "Backend Engineer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Description != "Build APIs." {
		t.Errorf("description = %q", p.Description)
	}
	if p.Requirements != "Go Postgres" {
		t.Errorf("requirements = %q", p.Requirements)
	}
}

func TestHTMLListPostings_MissingSelectors(t *testing.T) {
	src := NewHTMLSource("http://example.invalid", "Acme", Selectors{}, http.DefaultClient)
	if _, err := src.ListPostings(context.Background()); err == nil {
		t.Fatal("expected error without item/title selectors")
	}
}

func TestHTMLListPostings_NotFound(t *testing.T) {
	srv := newCareersServer()
	defer srv.Close()

	src := NewHTMLSource(srv.URL+"/missing", "Acme", testSelectors, srv.Client())
	if _, err := src.ListPostings(context.Background()); err == nil {
		t.Fatal("expected error on 404")
	}
}
