package enrich

import (
	"github.com/dgallion1/changesense/internal/compare"
	"github.com/dgallion1/changesense/internal/depgraph"
)

// Payload size caps. The provider sees a bounded digest of the
// comparison, never the full documents.
const (
	maxPayloadChanges  = 25
	maxPayloadFindings = 25
	maxPayloadImpacts  = 10
	maxPayloadEdges    = 50
	maxSnippetLen      = 400
)

// ChangeFact is one deterministic change as presented to the provider.
type ChangeFact struct {
	ChangeID    string   `json:"change_id"`
	Heading     string   `json:"heading,omitempty"`
	Before      string   `json:"before"`
	After       string   `json:"after"`
	MovedBlocks []string `json:"moved_blocks,omitempty"`
}

// FindingFact is one materiality finding as presented to the provider.
type FindingFact struct {
	ClauseID  string `json:"clause_id"`
	Category  string `json:"category"`
	Severity  string `json:"severity"`
	Rationale string `json:"rationale"`
}

// ImpactFact is one term-impact report as presented to the provider.
type ImpactFact struct {
	TermChanged       string   `json:"term_changed"`
	AffectedClauseIDs []string `json:"affected_clause_ids"`
}

// Payload is the bounded fact digest handed to a Provider.
type Payload struct {
	Changes  []ChangeFact   `json:"changes"`
	Findings []FindingFact  `json:"materiality"`
	Impacts  []ImpactFact   `json:"impact_reports"`
	Edges    []depgraph.Edge `json:"dependency_edges"`
	Stats    compare.Stats  `json:"stats"`
}

// BuildPayload digests a comparison result, truncating each list to its
// cap and each text snippet to maxSnippetLen bytes. Lists keep result
// order, so the digest is as deterministic as the result itself.
func BuildPayload(res *compare.Result) *Payload {
	p := &Payload{
		Changes:  []ChangeFact{},
		Findings: []FindingFact{},
		Impacts:  []ImpactFact{},
		Edges:    []depgraph.Edge{},
		Stats:    res.Stats,
	}

	for _, cs := range res.Changes {
		if len(p.Changes) == maxPayloadChanges {
			break
		}
		p.Changes = append(p.Changes, ChangeFact{
			ChangeID:    cs.ClauseID,
			Heading:     cs.Heading,
			Before:      snippet(cs.BeforeText),
			After:       snippet(cs.AfterText),
			MovedBlocks: cs.MovedBlocks,
		})
	}

	for _, f := range res.Findings {
		if len(p.Findings) == maxPayloadFindings {
			break
		}
		p.Findings = append(p.Findings, FindingFact{
			ClauseID:  f.ClauseID,
			Category:  f.Category,
			Severity:  f.Severity,
			Rationale: f.Rationale,
		})
	}

	for _, r := range res.ImpactReports {
		if len(p.Impacts) == maxPayloadImpacts {
			break
		}
		ids := make([]string, 0, len(r.AffectedClauses))
		for _, a := range r.AffectedClauses {
			ids = append(ids, a.ClauseID)
		}
		p.Impacts = append(p.Impacts, ImpactFact{TermChanged: r.TermChanged, AffectedClauseIDs: ids})
	}

	for _, e := range res.Graph.Edges {
		if len(p.Edges) == maxPayloadEdges {
			break
		}
		p.Edges = append(p.Edges, e)
	}

	return p
}

func snippet(s string) string {
	if len(s) <= maxSnippetLen {
		return s
	}
	return s[:maxSnippetLen] + "..."
}
