package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/amishk599/fitwatch/internal/model"
)

// DescriptionBudget is the number of description characters sent per posting.
const DescriptionBudget = 1500

const notSpecified = "Not specified"

// LLMScorer implements model.Scorer using an LLM, one call per batch.
type LLMScorer struct {
	provider LLMProvider
	tmpl     *template.Template
	logger   *slog.Logger
	now      func() time.Time
}

// NewLLMScorer creates a scorer that rates postings with LLM-generated fit analyses.
func NewLLMScorer(provider LLMProvider, tmpl *template.Template, logger *slog.Logger) *LLMScorer {
	return &LLMScorer{
		provider: provider,
		tmpl:     tmpl,
		logger:   logger,
		now:      time.Now,
	}
}

type promptJob struct {
	Number      int
	Company     string
	Title       string
	Location    string
	Team        string
	Description string
}

type promptData struct {
	Resume string
	Count  int
	Jobs   []promptJob
}

// ScoreBatch sends every posting in one prompt. The returned slice holds
// whatever the model produced, which may differ in length from postings.
func (s *LLMScorer) ScoreBatch(ctx context.Context, resume string, postings []model.Posting) ([]model.Enrichment, error) {
	if len(postings) == 0 {
		return nil, nil
	}

	prompt, err := s.render(resume, postings)
	if err != nil {
		return nil, err
	}

	raw, err := s.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm complete: %w", err)
	}

	analyses, err := parseAnalyses(raw)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("unparseable llm response", "response", truncate(raw, 500))
		}
		return nil, fmt.Errorf("parse analyses: %w", err)
	}

	at := s.now().UTC()
	out := make([]model.Enrichment, len(analyses))
	for i, a := range analyses {
		out[i] = a.toEnrichment(at)
	}
	return out, nil
}

func (s *LLMScorer) render(resume string, postings []model.Posting) (string, error) {
	data := promptData{Resume: resume, Count: len(postings)}
	for i, p := range postings {
		data.Jobs = append(data.Jobs, promptJob{
			Number:      i + 1,
			Company:     strings.ToUpper(orNotSpecified(p.Company)),
			Title:       p.Title,
			Location:    orNotSpecified(p.Location),
			Team:        orNotSpecified(p.Team),
			Description: truncate(p.Description, DescriptionBudget),
		})
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// rawAnalysis is the JSON shape of one element returned by the LLM.
type rawAnalysis struct {
	SkillsMatch          float64  `json:"skills_match"`
	ExperienceLevelMatch float64  `json:"experience_level_match"`
	RoleCompatibility    float64  `json:"role_compatibility"`
	InterestAlignment    float64  `json:"interest_alignment"`
	OverallFit           float64  `json:"overall_fit"`
	KeyStrengths         []string `json:"key_strengths"`
	PotentialGaps        []string `json:"potential_gaps"`
	ExcitementFactor     string   `json:"excitement_factor"`
	Summary              string   `json:"one_line_summary"`
	WouldRecommend       bool     `json:"would_recommend"`
}

func (a rawAnalysis) toEnrichment(at time.Time) model.Enrichment {
	return model.Enrichment{
		Score: model.DetailedScore{
			SkillsMatch:       model.ClampScore(a.SkillsMatch),
			ExperienceLevel:   model.ClampScore(a.ExperienceLevelMatch),
			RoleCompatibility: model.ClampScore(a.RoleCompatibility),
			InterestAlignment: model.ClampScore(a.InterestAlignment),
		},
		OverallFit:       model.ClampScore(a.OverallFit),
		KeyStrengths:     a.KeyStrengths,
		PotentialGaps:    a.PotentialGaps,
		ExcitementFactor: a.ExcitementFactor,
		Summary:          a.Summary,
		WouldRecommend:   a.WouldRecommend,
		AnalyzedAt:       at,
	}
}

var errNoArray = errors.New("no JSON array in response")

// parseAnalyses accepts a bare JSON array, an object wrapping it under
// "analyses", or either of those inside markdown fences or prose.
func parseAnalyses(raw string) ([]rawAnalysis, error) {
	text := strings.TrimSpace(stripFences(raw))

	var list []rawAnalysis
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Analyses []rawAnalysis `json:"analyses"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err == nil && wrapped.Analyses != nil {
		return wrapped.Analyses, nil
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, errNoArray
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &list); err != nil {
		return nil, fmt.Errorf("unmarshal analyses JSON: %w", err)
	}
	return list, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the language tag line
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

// truncate cuts s to max characters and marks the cut with "...".
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}
