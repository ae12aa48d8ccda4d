package ai

import "context"

// LLMProvider sends a prompt to an LLM and returns the raw text response.
// Used only by LLMScorer; not exported to the rest of the system.
type LLMProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// systemPrompt is shared by every provider.
const systemPrompt = "You are an expert career advisor who scores job postings against a candidate résumé. " +
	"Respond only with the requested JSON."

// DefaultMaxTokens bounds the response size of one batch call.
const DefaultMaxTokens = 4000
