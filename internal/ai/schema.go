package ai

// analysisItemSchema describes one scored posting in the batch response.
var analysisItemSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"skills_match":           map[string]any{"type": "number"},
		"experience_level_match": map[string]any{"type": "number"},
		"role_compatibility":     map[string]any{"type": "number"},
		"interest_alignment":     map[string]any{"type": "number"},
		"overall_fit":            map[string]any{"type": "number"},
		"key_strengths": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"potential_gaps": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"excitement_factor": map[string]any{"type": "string"},
		"one_line_summary":  map[string]any{"type": "string"},
		"would_recommend":   map[string]any{"type": "boolean"},
	},
	"required": []string{
		"skills_match", "experience_level_match", "role_compatibility",
		"interest_alignment", "overall_fit", "key_strengths", "potential_gaps",
		"excitement_factor", "one_line_summary", "would_recommend",
	},
}

// batchAnalysisSchema is enforced server-side via OpenAI structured outputs.
// Structured outputs need an object root, so the array is wrapped.
var batchAnalysisSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"analyses": map[string]any{
			"type":  "array",
			"items": analysisItemSchema,
		},
	},
	"required": []string{"analyses"},
}
