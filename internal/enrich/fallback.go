package enrich

// Fallback is the response attached when enrichment is disabled or the
// provider fails after retries. Lists are empty rather than nil so report
// consumers never see null.
func Fallback() *Response {
	return &Response{
		Insights:  []Insight{},
		Impacts:   []Impact{},
		Summaries: []Summary{},
		AIEnabled: false,
	}
}
