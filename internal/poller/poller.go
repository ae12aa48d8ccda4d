package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amishk599/fitwatch/internal/model"
	"github.com/amishk599/fitwatch/internal/reconcile"
	"github.com/amishk599/fitwatch/internal/store"
)

// DefaultMaxDetailFetches caps detail requests per company per refresh.
const DefaultMaxDetailFetches = 5

// Options tunes one company's refresh.
type Options struct {
	// MaxDetailFetches caps detail requests per refresh. Negative disables
	// the detail pass; zero uses DefaultMaxDetailFetches.
	MaxDetailFetches int
	Reconcile        reconcile.Options
}

// CompanyPoller owns the refresh pipeline for a single company:
// list → filter → reconcile → fetch missing details → notify.
type CompanyPoller struct {
	Name     string
	ATS      string
	source   model.Source
	filter   model.PostingFilter
	notifier model.Notifier
	opts     Options
	logger   *slog.Logger
}

// NewCompanyPoller creates a poller wired with all its dependencies.
func NewCompanyPoller(
	ats string,
	source model.Source,
	filter model.PostingFilter,
	notifier model.Notifier,
	opts Options,
	logger *slog.Logger,
) *CompanyPoller {
	if opts.MaxDetailFetches == 0 {
		opts.MaxDetailFetches = DefaultMaxDetailFetches
	}
	return &CompanyPoller{
		Name:     model.NormalizeCompany(source.Company()),
		ATS:      ats,
		source:   source,
		filter:   filter,
		notifier: notifier,
		opts:     opts,
		logger:   logger.With("company", model.NormalizeCompany(source.Company())),
	}
}

// Fetch lists the company's postings and keeps those the filter matches.
func (p *CompanyPoller) Fetch(ctx context.Context) ([]model.Posting, error) {
	postings, err := p.source.ListPostings(ctx)
	if err != nil {
		return nil, fmt.Errorf("polling %s: %w", p.Name, err)
	}

	matched := make([]model.Posting, 0, len(postings))
	for _, posting := range postings {
		if p.filter.Match(posting) {
			matched = append(matched, posting)
		}
	}
	p.logger.Debug("fetched postings", "fetched", len(postings), "matched", len(matched))
	return matched, nil
}

// Apply reconciles fresh into s, fills in missing descriptions and notifies
// about the change. Notification failures are logged, not returned.
func (p *CompanyPoller) Apply(ctx context.Context, s *store.Store, fresh []model.Posting) (reconcile.Result, error) {
	res, err := reconcile.Reconcile(s, fresh, p.Name, p.opts.Reconcile)
	if err != nil {
		return res, err
	}

	fetched := p.fillDetails(ctx, s, res)

	change := res.Change(p.Name)
	if !change.Empty() {
		// Report the detailed versions of added postings.
		for i, a := range change.Added {
			if cur, ok := s.Get(a.Link); ok {
				change.Added[i] = cur
			}
		}
		if err := p.notifier.Notify(change); err != nil {
			p.logger.Warn("notification failed", "error", err)
		}
	}

	p.logger.Info("refreshed company",
		"added", len(res.Added),
		"updated", len(res.Updated),
		"removed", len(res.Removed),
		"skipped", res.Skipped,
		"details_fetched", fetched,
	)
	return res, nil
}

// Refresh runs Fetch and Apply.
func (p *CompanyPoller) Refresh(ctx context.Context, s *store.Store) (reconcile.Result, error) {
	fresh, err := p.Fetch(ctx)
	if err != nil {
		return reconcile.Result{}, err
	}
	return p.Apply(ctx, s, fresh)
}

// fillDetails fetches details for added, then updated, postings that have
// no description, up to the configured cap.
func (p *CompanyPoller) fillDetails(ctx context.Context, s *store.Store, res reconcile.Result) int {
	if p.opts.MaxDetailFetches < 0 {
		return 0
	}
	if !model.SupportsDetail(p.source) {
		return 0
	}

	fetched := 0
	candidates := append(append([]model.Posting{}, res.Added...), res.Updated...)
	for _, c := range candidates {
		if fetched >= p.opts.MaxDetailFetches {
			break
		}
		cur, ok := s.Get(c.Link)
		if !ok || cur.HasDescription() {
			continue
		}

		fetched++
		detailed, err := model.FetchDetail(ctx, p.source, cur)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			p.logger.Warn("detail fetch failed", "link", c.Link, "error", err)
			continue
		}
		s.Update(c.Link, func(stored *model.Posting) {
			mergeDetail(stored, detailed)
		})
	}
	return fetched
}

// mergeDetail copies non-empty detail fields. Identity, enrichment and
// first-seen time stay as stored.
func mergeDetail(dst *model.Posting, src model.Posting) {
	set := func(d *string, v string) {
		if strings.TrimSpace(v) != "" {
			*d = v
		}
	}
	set(&dst.Team, src.Team)
	set(&dst.Location, src.Location)
	set(&dst.Description, src.Description)
	set(&dst.Requirements, src.Requirements)
	set(&dst.PostingDate, src.PostingDate)
	for k, v := range src.Metadata {
		if dst.Metadata == nil {
			dst.Metadata = make(map[string]string)
		}
		dst.Metadata[k] = v
	}
}
