// Package enrich layers optional AI interpretation on top of a finished
// deterministic comparison. The deterministic result is always the source
// of truth: enrichment may label and summarize it but never adds or
// removes changes, and any provider failure degrades to the empty
// fallback response.
package enrich

import (
	"context"
	"fmt"
)

// Insight is one AI label for a deterministic change.
type Insight struct {
	ChangeID         string   `json:"change_id"`
	SemanticLabel    string   `json:"semantic_label"`
	RiskDirection    string   `json:"risk_direction"`
	Explanation      string   `json:"explanation"`
	Confidence       float64  `json:"confidence"`
	CitationsToFacts []string `json:"citations_to_facts"`
}

// Impact is one AI-suggested ripple from a change to another clause.
type Impact struct {
	TriggerChangeID  string  `json:"trigger_change_id"`
	ImpactedClauseID string  `json:"impacted_clause_id"`
	ImpactSummary    string  `json:"impact_summary"`
	WhyLinked        string  `json:"why_linked"`
	Confidence       float64 `json:"confidence"`
}

// Summary is one themed bullet list over the comparison.
type Summary struct {
	Type             string   `json:"type"` // executive, negotiation, economics, definitions
	Bullets          []string `json:"bullets"`
	BackingChangeIDs []string `json:"backing_change_ids"`
}

// Response is the full enrichment layer attached to a run.
type Response struct {
	Insights  []Insight `json:"insights"`
	Impacts   []Impact  `json:"impacts"`
	Summaries []Summary `json:"summaries"`
	AIEnabled bool      `json:"ai_enabled"`
	RawText   string    `json:"raw_text,omitempty"`
}

// Provider produces an enrichment response for a comparison payload.
type Provider interface {
	Submit(ctx context.Context, payload *Payload) (*Response, error)
}

// RetryableError indicates a transient provider failure worth retrying.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
