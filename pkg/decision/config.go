package decision

// Config carries the pipeline's named thresholds.
type Config struct {
	// FilterRelevanceThreshold is the minimum relevance score for a search
	// hit to be considered at all.
	FilterRelevanceThreshold float64
	// AnswerableRelevanceThreshold is the minimum top score required to
	// proceed to answer generation. Configured separately from the filter
	// cut, default equal to it.
	AnswerableRelevanceThreshold float64
	// TopK is the number of policy hits requested from semantic search.
	TopK int
}

func DefaultConfig() Config {
	return Config{
		FilterRelevanceThreshold:     0.75,
		AnswerableRelevanceThreshold: 0.75,
		TopK:                         20,
	}
}
