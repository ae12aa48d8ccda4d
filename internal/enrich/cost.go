package enrich

// Token pricing used for the pre-run estimate, in USD per million tokens.
const (
	inputPricePerMillion  = 3.0
	outputPricePerMillion = 15.0

	basePromptTokens  = 2000 // résumé plus instructions
	tokensPerPosting  = 1000 // truncated description and fields
	outputTokensBatch = 800
)

// EstimateCost returns a rough USD cost for scoring n postings in batches
// of batchSize.
func EstimateCost(n, batchSize int) float64 {
	if n <= 0 {
		return 0
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var input, output int
	for remaining := n; remaining > 0; remaining -= batchSize {
		size := min(batchSize, remaining)
		input += basePromptTokens + tokensPerPosting*size
		output += outputTokensBatch
	}
	return float64(input)/1e6*inputPricePerMillion + float64(output)/1e6*outputPricePerMillion
}

// Batches returns how many scoring calls n postings need.
func Batches(n, batchSize int) int {
	if n <= 0 {
		return 0
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return (n + batchSize - 1) / batchSize
}
