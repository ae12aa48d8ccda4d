package source

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/amishk599/fitwatch/internal/model"
)

// Spec describes one company's careers source.
type Spec struct {
	Company    string
	ATS        string
	BoardToken string
	URL        string
	Selectors  Selectors
}

type factory func(spec Spec, client *http.Client) (model.Source, error)

var factories = map[string]factory{
	"greenhouse": func(s Spec, c *http.Client) (model.Source, error) {
		return NewGreenhouseSource(s.BoardToken, s.Company, c), nil
	},
	"lever": func(s Spec, c *http.Client) (model.Source, error) {
		return NewLeverSource(s.BoardToken, s.Company, c), nil
	},
	"ashby": func(s Spec, c *http.Client) (model.Source, error) {
		return NewAshbySource(s.BoardToken, s.Company, c), nil
	},
	"gem": func(s Spec, c *http.Client) (model.Source, error) {
		return NewGemSource(s.BoardToken, s.Company, c), nil
	},
	"workday": func(s Spec, c *http.Client) (model.Source, error) {
		if s.URL == "" {
			return nil, fmt.Errorf("workday source for %s: url is required", s.Company)
		}
		return NewWorkdaySource(s.URL, s.Company, c), nil
	},
	"html": func(s Spec, c *http.Client) (model.Source, error) {
		if s.URL == "" {
			return nil, fmt.Errorf("html source for %s: url is required", s.Company)
		}
		return NewHTMLSource(s.URL, s.Company, s.Selectors, c), nil
	},
}

// SupportedATS reports whether New can build a source for ats.
func SupportedATS(ats string) bool {
	_, ok := factories[ats]
	return ok
}

// New builds the source described by spec.
func New(spec Spec, client *http.Client) (model.Source, error) {
	f, ok := factories[spec.ATS]
	if !ok {
		return nil, fmt.Errorf("unsupported ats %q for company %q", spec.ATS, spec.Company)
	}
	return f(spec, client)
}

// Registry maps normalized company names to their sources.
type Registry struct {
	sources map[string]model.Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]model.Source)}
}

// Register adds src under its company name, replacing any previous entry.
func (r *Registry) Register(src model.Source) {
	r.sources[model.NormalizeCompany(src.Company())] = src
}

// Get returns the source for company.
func (r *Registry) Get(company string) (model.Source, bool) {
	src, ok := r.sources[model.NormalizeCompany(company)]
	return src, ok
}

// Companies returns registered company names in sorted order.
func (r *Registry) Companies() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered source ordered by company name.
func (r *Registry) All() []model.Source {
	names := r.Companies()
	out := make([]model.Source, 0, len(names))
	for _, name := range names {
		out = append(out, r.sources[name])
	}
	return out
}
