package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/amishk599/fitwatch/internal/model"
)

// UnknownCompany is assigned to legacy records whose company cannot be
// inferred from the link.
const UnknownCompany = "unknown"

var builtinDomains = map[string]string{
	"openai.com":    "openai",
	"anthropic.com": "anthropic",
}

// Codec converts between postings and the persisted snapshot format: a flat
// JSON array of posting records.
type Codec struct {
	domains []domainRule
}

type domainRule struct {
	substr  string
	company string
}

// NewCodec returns a codec that infers missing companies from the built-in
// domains plus the given domain → company map.
func NewCodec(domains map[string]string) Codec {
	merged := make(map[string]string, len(builtinDomains)+len(domains))
	for d, c := range builtinDomains {
		merged[d] = c
	}
	for d, c := range domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			merged[d] = model.NormalizeCompany(c)
		}
	}

	rules := make([]domainRule, 0, len(merged))
	for d, c := range merged {
		rules = append(rules, domainRule{substr: d, company: c})
	}
	// Longest match first so "jobs.acme.com" beats "acme.com".
	sort.Slice(rules, func(i, j int) bool {
		if len(rules[i].substr) != len(rules[j].substr) {
			return len(rules[i].substr) > len(rules[j].substr)
		}
		return rules[i].substr < rules[j].substr
	})
	return Codec{domains: rules}
}

// InferCompany guesses the company of a link by domain substring.
func (c Codec) InferCompany(link string) string {
	l := strings.ToLower(link)
	for _, r := range c.domains {
		if strings.Contains(l, r.substr) {
			return r.company
		}
	}
	return UnknownCompany
}

type postingRecord struct {
	Title        string            `json:"title"`
	Link         string            `json:"link"`
	Company      string            `json:"company"`
	Team         *string           `json:"team"`
	Location     *string           `json:"location"`
	Description  *string           `json:"description"`
	Requirements *string           `json:"requirements"`
	PostingDate  *string           `json:"posting_date"`
	FirstSeen    string            `json:"first_seen,omitempty"`
	Enrichment   *enrichmentRecord `json:"enrichment"`
	Metadata     map[string]string `json:"source_metadata,omitempty"`

	// Fields written by older cache formats, read only.
	LegacyDate       string            `json:"date,omitempty"`
	LegacyAnalysis   *enrichmentRecord `json:"match_analysis,omitempty"`
	LegacySourceData map[string]any    `json:"source_data,omitempty"`
}

type enrichmentRecord struct {
	SkillsMatch          float64  `json:"skills_match"`
	ExperienceMatch      *float64 `json:"experience_match,omitempty"`
	ExperienceLevelMatch *float64 `json:"experience_level_match,omitempty"`
	RoleCompatibility    *float64 `json:"role_compatibility,omitempty"`
	InterestAlignment    float64  `json:"interest_alignment"`
	OverallFit           float64  `json:"overall_fit"`
	BalancedScore        float64  `json:"balanced_score"`
	KeyStrengths         []string `json:"key_strengths"`
	PotentialGaps        []string `json:"potential_gaps"`
	ExcitementFactor     string   `json:"excitement_factor"`
	Summary              string   `json:"one_line_summary"`
	WouldRecommend       bool     `json:"would_recommend"`
	Failed               bool     `json:"failed,omitempty"`
	AnalysisDate         string   `json:"analysis_date,omitempty"`
}

// Encode serialises postings as an indented JSON array.
func (c Codec) Encode(postings []model.Posting) ([]byte, error) {
	records := make([]postingRecord, len(postings))
	for i, p := range postings {
		records[i] = toRecord(p)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding postings: %w", err)
	}
	return data, nil
}

// EncodeOne serialises a single posting record.
func (c Codec) EncodeOne(p model.Posting) ([]byte, error) {
	data, err := json.Marshal(toRecord(p))
	if err != nil {
		return nil, fmt.Errorf("encoding posting %s: %w", p.Link, err)
	}
	return data, nil
}

// Decode parses a snapshot. Records that cannot be decoded or have no link
// are skipped and counted; only a snapshot that is not a JSON array at all
// returns an error.
func (c Codec) Decode(data []byte) ([]model.Posting, int, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("decoding snapshot: %w", err)
	}

	postings := make([]model.Posting, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		p, err := c.DecodeOne(r)
		if err != nil {
			skipped++
			continue
		}
		postings = append(postings, p)
	}
	return postings, skipped, nil
}

// DecodeOne parses one posting record, filling defaults for fields that
// older formats did not write.
func (c Codec) DecodeOne(data []byte) (model.Posting, error) {
	var r postingRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return model.Posting{}, fmt.Errorf("decoding posting: %w", err)
	}
	if strings.TrimSpace(r.Link) == "" {
		return model.Posting{}, fmt.Errorf("decoding posting: missing link")
	}

	p := model.Posting{
		Link:         r.Link,
		Title:        r.Title,
		Company:      model.NormalizeCompany(r.Company),
		Team:         deref(r.Team),
		Location:     deref(r.Location),
		Description:  deref(r.Description),
		Requirements: deref(r.Requirements),
		PostingDate:  deref(r.PostingDate),
		Metadata:     r.Metadata,
	}
	if p.Company == "" {
		p.Company = c.InferCompany(r.Link)
	}

	seen := r.FirstSeen
	if seen == "" {
		seen = r.LegacyDate
	}
	if t, ok := parseTime(seen); ok {
		p.FirstSeen = t
	}

	er := r.Enrichment
	if er == nil {
		er = r.LegacyAnalysis
	}
	if er != nil {
		e := fromEnrichmentRecord(*er)
		p.Enrichment = &e
	}

	if p.Metadata == nil && len(r.LegacySourceData) > 0 {
		p.Metadata = make(map[string]string, len(r.LegacySourceData))
		for k, v := range r.LegacySourceData {
			if s, ok := v.(string); ok {
				p.Metadata[k] = s
				continue
			}
			b, _ := json.Marshal(v)
			p.Metadata[k] = string(b)
		}
	}
	return p, nil
}

func toRecord(p model.Posting) postingRecord {
	r := postingRecord{
		Title:        p.Title,
		Link:         p.Link,
		Company:      p.Company,
		Team:         ptr(p.Team),
		Location:     ptr(p.Location),
		Description:  ptr(p.Description),
		Requirements: ptr(p.Requirements),
		PostingDate:  ptr(p.PostingDate),
		Metadata:     p.Metadata,
	}
	if !p.FirstSeen.IsZero() {
		r.FirstSeen = p.FirstSeen.UTC().Format(time.RFC3339)
	}
	if p.Enrichment != nil {
		er := toEnrichmentRecord(*p.Enrichment)
		r.Enrichment = &er
	}
	return r
}

func toEnrichmentRecord(e model.Enrichment) enrichmentRecord {
	r := enrichmentRecord{
		OverallFit:       e.OverallFit,
		BalancedScore:    e.Balanced(),
		KeyStrengths:     nonNil(e.KeyStrengths),
		PotentialGaps:    nonNil(e.PotentialGaps),
		ExcitementFactor: e.ExcitementFactor,
		Summary:          e.Summary,
		WouldRecommend:   e.WouldRecommend,
		Failed:           e.Failed,
	}
	if !e.AnalyzedAt.IsZero() {
		r.AnalysisDate = e.AnalyzedAt.UTC().Format(time.RFC3339)
	}
	switch s := e.Score.(type) {
	case model.DetailedScore:
		r.SkillsMatch = s.SkillsMatch
		r.InterestAlignment = s.InterestAlignment
		r.ExperienceLevelMatch = &s.ExperienceLevel
		r.RoleCompatibility = &s.RoleCompatibility
	case model.LegacyScore:
		r.SkillsMatch = s.SkillsMatch
		r.InterestAlignment = s.InterestAlignment
		r.ExperienceMatch = &s.ExperienceMatch
	}
	return r
}

// fromEnrichmentRecord picks the score variant by the presence of
// role_compatibility, which only the detailed schema writes.
func fromEnrichmentRecord(r enrichmentRecord) model.Enrichment {
	e := model.Enrichment{
		OverallFit:       r.OverallFit,
		KeyStrengths:     r.KeyStrengths,
		PotentialGaps:    r.PotentialGaps,
		ExcitementFactor: r.ExcitementFactor,
		Summary:          r.Summary,
		WouldRecommend:   r.WouldRecommend,
		Failed:           r.Failed,
	}
	if t, ok := parseTime(r.AnalysisDate); ok {
		e.AnalyzedAt = t
	}

	if r.RoleCompatibility != nil {
		exp := r.ExperienceLevelMatch
		if exp == nil {
			exp = r.ExperienceMatch
		}
		e.Score = model.DetailedScore{
			SkillsMatch:       r.SkillsMatch,
			ExperienceLevel:   derefFloat(exp),
			RoleCompatibility: *r.RoleCompatibility,
			InterestAlignment: r.InterestAlignment,
		}
	} else {
		e.Score = model.LegacyScore{
			SkillsMatch:       r.SkillsMatch,
			ExperienceMatch:   derefFloat(r.ExperienceMatch),
			InterestAlignment: r.InterestAlignment,
		}
	}

	// Older fallback records have no flag, only the fixed summary.
	if !e.Failed && e.OverallFit == 0 && strings.HasPrefix(e.Summary, model.FallbackGap) {
		e.Failed = true
	}
	return e
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
