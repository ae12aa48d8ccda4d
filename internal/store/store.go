package store

import (
	"context"
	"sort"

	"github.com/amishk599/fitwatch/internal/model"
)

// Store is the in-memory posting collection for one run, keyed by link with
// insertion order preserved. It is not safe for concurrent use.
type Store struct {
	postings []model.Posting
	index    map[string]int
}

// New builds a store from postings. A repeated link replaces the earlier
// record in place.
func New(postings ...model.Posting) *Store {
	s := &Store{index: make(map[string]int, len(postings))}
	for _, p := range postings {
		s.Put(p)
	}
	return s
}

// Persister loads and saves whole-store snapshots.
type Persister interface {
	Load(ctx context.Context) (*Store, error)
	Save(ctx context.Context, s *Store) error
	Close() error
}

// Len returns the number of postings.
func (s *Store) Len() int { return len(s.postings) }

// All returns a copy of every posting in store order.
func (s *Store) All() []model.Posting {
	out := make([]model.Posting, len(s.postings))
	copy(out, s.postings)
	return out
}

// Get returns the posting with the given link.
func (s *Store) Get(link string) (model.Posting, bool) {
	i, ok := s.index[link]
	if !ok {
		return model.Posting{}, false
	}
	return s.postings[i], true
}

// Put inserts p, or replaces the posting with the same link in place.
// It reports whether p was newly added.
func (s *Store) Put(p model.Posting) bool {
	if i, ok := s.index[p.Link]; ok {
		s.postings[i] = p
		return false
	}
	s.index[p.Link] = len(s.postings)
	s.postings = append(s.postings, p)
	return true
}

// Update applies fn to the posting with the given link. It reports whether
// the posting exists. fn must not change the link.
func (s *Store) Update(link string, fn func(p *model.Posting)) bool {
	i, ok := s.index[link]
	if !ok {
		return false
	}
	fn(&s.postings[i])
	s.postings[i].Link = link
	return true
}

// Remove deletes the postings with the given links and returns them in store
// order. Unknown links are ignored.
func (s *Store) Remove(links ...string) []model.Posting {
	if len(links) == 0 {
		return nil
	}
	drop := make(map[string]bool, len(links))
	for _, l := range links {
		drop[l] = true
	}

	var removed []model.Posting
	kept := s.postings[:0]
	for _, p := range s.postings {
		if drop[p.Link] {
			removed = append(removed, p)
			continue
		}
		kept = append(kept, p)
	}
	s.postings = kept
	s.reindex()
	return removed
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.postings))
	for i, p := range s.postings {
		s.index[p.Link] = i
	}
}

// ByCompany returns the postings of one company in store order.
func (s *Store) ByCompany(company string) []model.Posting {
	company = model.NormalizeCompany(company)
	return s.where(func(p model.Posting) bool { return p.Company == company })
}

// Eligible returns postings with a description and no enrichment.
func (s *Store) Eligible() []model.Posting {
	return s.where(model.Posting.Eligible)
}

// Enriched returns postings that carry an enrichment, including fallbacks.
func (s *Store) Enriched() []model.Posting {
	return s.where(func(p model.Posting) bool { return p.Enrichment != nil })
}

func (s *Store) where(keep func(model.Posting) bool) []model.Posting {
	var out []model.Posting
	for _, p := range s.postings {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// SetEnrichment attaches e to the posting with the given link.
func (s *Store) SetEnrichment(link string, e model.Enrichment) bool {
	return s.Update(link, func(p *model.Posting) {
		p.Enrichment = &e
	})
}

// ClearFailed drops fallback enrichments so those postings are scored again.
// It returns the number cleared.
func (s *Store) ClearFailed() int {
	n := 0
	for i := range s.postings {
		if e := s.postings[i].Enrichment; e != nil && e.Failed {
			s.postings[i].Enrichment = nil
			n++
		}
	}
	return n
}

// Stats summarises the store contents.
type Stats struct {
	Total      int
	ByCompany  map[string]int
	Enriched   int
	Failed     int
	Unenriched int // eligible but not yet scored
	NoDetail   int // missing a description
}

// Companies returns the company names in Stats sorted alphabetically.
func (st Stats) Companies() []string {
	names := make([]string, 0, len(st.ByCompany))
	for c := range st.ByCompany {
		names = append(names, c)
	}
	sort.Strings(names)
	return names
}

// Stats computes counts over the current contents.
func (s *Store) Stats() Stats {
	st := Stats{Total: len(s.postings), ByCompany: make(map[string]int)}
	for _, p := range s.postings {
		st.ByCompany[p.Company]++
		switch {
		case p.Enrichment != nil:
			st.Enriched++
			if p.Enrichment.Failed {
				st.Failed++
			}
		case p.HasDescription():
			st.Unenriched++
		default:
			st.NoDetail++
		}
	}
	return st
}
