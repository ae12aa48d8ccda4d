package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/fit_analysis.md
var fitAnalysisPromptRaw string

// FitAnalysisTemplate is the parsed prompt template for batch fit analysis.
// Parsed once at package init; reused on every ScoreBatch call.
var FitAnalysisTemplate = template.Must(template.New("fit_analysis").Parse(fitAnalysisPromptRaw))
