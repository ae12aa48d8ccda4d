// Package reconcile merges a fresh scrape of one company into the store.
package reconcile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amishk599/fitwatch/internal/model"
	"github.com/amishk599/fitwatch/internal/store"
)

// ErrEmptyScrape is returned when a scrape produced no postings for a
// company that still has postings in the store. The store is left
// untouched; set Options.AllowEmpty to treat the result as a real removal.
var ErrEmptyScrape = errors.New("empty scrape for company with cached postings")

// Options tunes a reconciliation.
type Options struct {
	// AllowEmpty lets an empty scrape remove every posting of the company.
	AllowEmpty bool
	// KeepCachedDetails fills empty detail fields of a fresh record from
	// the cached record instead of clearing them.
	KeepCachedDetails bool
	// Now stamps FirstSeen on new postings. Defaults to time.Now.
	Now func() time.Time
}

// Result lists what a reconciliation changed.
type Result struct {
	Added   []model.Posting
	Updated []model.Posting
	Removed []model.Posting
	Skipped int // fresh records without a link or title
}

// Change converts the result into a notification payload.
func (r Result) Change(company string) model.Change {
	return model.Change{Company: company, Added: r.Added, Removed: r.Removed}
}

// Reconcile merges fresh, the complete current listing of company, into s.
//
// Fresh postings whose link is already stored replace the stored record in
// place, keeping its enrichment and first-seen time. New links are
// appended. Stored postings of company missing from fresh are removed;
// postings of other companies are never touched.
func Reconcile(s *store.Store, fresh []model.Posting, company string, opts Options) (Result, error) {
	company = model.NormalizeCompany(company)
	if company == "" {
		return Result{}, fmt.Errorf("reconcile: empty company")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	if len(fresh) == 0 && !opts.AllowEmpty && len(s.ByCompany(company)) > 0 {
		return Result{}, fmt.Errorf("reconcile %s: %w", company, ErrEmptyScrape)
	}

	var res Result
	seen := make(map[string]bool, len(fresh))
	for _, p := range fresh {
		p.Link = strings.TrimSpace(p.Link)
		if p.Link == "" || strings.TrimSpace(p.Title) == "" {
			res.Skipped++
			continue
		}
		// Sources own exactly one company.
		p.Company = company

		existing, ok := s.Get(p.Link)
		switch {
		case ok:
			p.FirstSeen = existing.FirstSeen
			p.Enrichment = existing.Enrichment
			if opts.KeepCachedDetails {
				fillDetails(&p, existing)
			}
			s.Put(p)
			if !seen[p.Link] {
				res.Updated = append(res.Updated, p)
			}
		default:
			if p.FirstSeen.IsZero() {
				p.FirstSeen = now().UTC()
			}
			s.Put(p)
			res.Added = append(res.Added, p)
		}
		seen[p.Link] = true
	}

	var gone []string
	for _, p := range s.ByCompany(company) {
		if !seen[p.Link] {
			gone = append(gone, p.Link)
		}
	}
	res.Removed = s.Remove(gone...)
	return res, nil
}

func fillDetails(p *model.Posting, cached model.Posting) {
	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = src
		}
	}
	fill(&p.Team, cached.Team)
	fill(&p.Location, cached.Location)
	fill(&p.Description, cached.Description)
	fill(&p.Requirements, cached.Requirements)
	fill(&p.PostingDate, cached.PostingDate)
}
