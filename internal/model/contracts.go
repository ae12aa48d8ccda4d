package model

import "context"

// Source lists the open postings of exactly one company.
type Source interface {
	Company() string
	ListPostings(ctx context.Context) ([]Posting, error)
}

// DetailFetcher is implemented by sources that can fill in description and
// other detail fields for a single posting.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, p Posting) (Posting, error)
}

// Wrapper is implemented by decorators around a Source.
type Wrapper interface {
	Unwrap() Source
}

// SupportsDetail reports whether the innermost source behind any decorators
// fetches details. Decorators always expose FetchDetail, so a plain type
// assertion on them says nothing about the source they wrap.
func SupportsDetail(src Source) bool {
	for {
		w, ok := src.(Wrapper)
		if !ok {
			break
		}
		src = w.Unwrap()
	}
	_, ok := src.(DetailFetcher)
	return ok
}

// FetchDetail runs the source's detail fetch when it has one and returns the
// posting unchanged otherwise.
func FetchDetail(ctx context.Context, src Source, p Posting) (Posting, error) {
	df, ok := src.(DetailFetcher)
	if !ok {
		return p, nil
	}
	return df.FetchDetail(ctx, p)
}

// Change is the outcome of refreshing one company.
type Change struct {
	Company string
	Added   []Posting
	Removed []Posting
}

// Empty reports whether nothing was added or removed.
func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// Notifier reports added and removed postings to the operator.
type Notifier interface {
	Notify(change Change) error
}

// PostingFilter decides whether a scraped posting is worth tracking.
type PostingFilter interface {
	Match(p Posting) bool
}

// Scorer scores a batch of postings against a résumé. It should return one
// result per posting in submission order; callers repair count mismatches.
type Scorer interface {
	ScoreBatch(ctx context.Context, resume string, postings []Posting) ([]Enrichment, error)
}
