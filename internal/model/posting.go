package model

import (
	"strings"
	"time"
)

// Posting is one job opening. Link is the only identity key: two postings
// with the same Link are the same entity regardless of title or company.
type Posting struct {
	Link         string // canonical URL, identity
	Title        string
	Company      string // lowercase company identifier
	Team         string // optional
	Location     string // optional
	Description  string // optional, required for enrichment
	Requirements string // optional
	PostingDate  string // optional, raw date string from the careers site
	FirstSeen    time.Time
	Enrichment   *Enrichment       // nil until scored
	Metadata     map[string]string // source-specific passthrough
}

// HasDescription reports whether the posting carries a usable description.
func (p Posting) HasDescription() bool {
	return strings.TrimSpace(p.Description) != ""
}

// Eligible reports whether the posting should be sent for enrichment.
func (p Posting) Eligible() bool {
	return p.Enrichment == nil && p.HasDescription()
}

// NormalizeCompany returns the canonical form of a company identifier.
func NormalizeCompany(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
