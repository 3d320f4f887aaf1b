// Package compare runs the full deterministic comparison pipeline over
// two ingested document versions. Run is a pure function of its inputs
// (modulo the audit timestamp): no global or cached state is touched, so
// any number of comparisons may execute concurrently.
package compare

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/changesense/internal/align"
	"github.com/dgallion1/changesense/internal/audit"
	"github.com/dgallion1/changesense/internal/clause"
	"github.com/dgallion1/changesense/internal/depgraph"
	"github.com/dgallion1/changesense/internal/diff"
	"github.com/dgallion1/changesense/internal/ingest"
	"github.com/dgallion1/changesense/internal/integrity"
	"github.com/dgallion1/changesense/internal/rules"
)

// Stats summarizes a comparison for quick triage.
type Stats struct {
	ModifiedCount        int `json:"modified_count"`
	AddedCount           int `json:"added_count"`
	DeletedCount         int `json:"deleted_count"`
	HighRiskCount        int `json:"high_risk_count"`
	ObligationShiftCount int `json:"obligation_shift_count"`
}

// Result is the immutable output graph of one comparison.
type Result struct {
	TreeA            *clause.Tree            `json:"clause_tree_a"`
	TreeB            *clause.Tree            `json:"clause_tree_b"`
	Alignment        align.Map               `json:"alignment"`
	Changes          []diff.ChangeSet        `json:"changes"`
	Findings         []rules.Finding         `json:"materiality"`
	RiskSummaries    []rules.RiskSummary     `json:"risk_summaries"`
	NumericDeltas    []rules.NumericDelta    `json:"numeric_deltas"`
	Graph            depgraph.Graph          `json:"dependency_graph"`
	ImpactReports    []depgraph.ImpactReport `json:"impact_reports"`
	IntegrityAlerts  []integrity.Alert       `json:"integrity_alerts"`
	Audit            audit.Entry             `json:"audit_log"`
	AddedClauseIDs   []string                `json:"added_clause_ids"`
	DeletedClauseIDs []string                `json:"deleted_clause_ids"`
	Stats            Stats                   `json:"stats"`
}

// Run compares docA (old) against docB (new).
func Run(docA, docB *ingest.Document) *Result {
	treeA := clause.Build(docA.Blocks)
	treeB := clause.Build(docB.Blocks)

	alignment := align.Align(treeA, treeB)

	res := &Result{
		TreeA:            treeA,
		TreeB:            treeB,
		Alignment:        alignment,
		Changes:          []diff.ChangeSet{},
		Findings:         []rules.Finding{},
		RiskSummaries:    []rules.RiskSummary{},
		NumericDeltas:    []rules.NumericDelta{},
		ImpactReports:    []depgraph.ImpactReport{},
		IntegrityAlerts:  []integrity.Alert{},
		AddedClauseIDs:   []string{},
		DeletedClauseIDs: []string{},
	}

	for _, entry := range alignment.Entries {
		if len(entry.NewClauseIDs) == 0 {
			res.DeletedClauseIDs = append(res.DeletedClauseIDs, entry.OldClauseID)
			continue
		}

		old := treeA.Lookup(entry.OldClauseID)
		beforeText := old.Text

		// Split/merge entries diff against the new texts concatenated in
		// ranked order.
		parts := make([]string, 0, len(entry.NewClauseIDs))
		for _, id := range entry.NewClauseIDs {
			parts = append(parts, treeB.Lookup(id).Text)
		}
		afterText := strings.Join(parts, "\n")

		if beforeText == afterText && !entry.MoveDetected {
			continue
		}

		target := treeB.Lookup(entry.NewClauseIDs[0])
		cs := diff.Clause(beforeText, afterText)
		cs.ClauseID = target.ClauseID
		cs.Heading = headingOf(target)
		if entry.MoveDetected {
			cs.MovedBlocks = []string{entry.OldClauseID}
		}
		if beforeText != afterText {
			cs.SentenceChanges = diff.Sentences(beforeText, afterText)
			wd := diff.Words(beforeText, afterText)
			cs.WordDiff = &wd

			res.Findings = append(res.Findings, rules.Apply(cs.ClauseID, beforeText, afterText)...)
			res.RiskSummaries = append(res.RiskSummaries, rules.Summarize(cs.ClauseID, cs.Heading, beforeText, afterText))
			res.NumericDeltas = append(res.NumericDeltas, rules.NumericDeltas(cs.ClauseID, beforeText, afterText)...)
		}
		res.Changes = append(res.Changes, cs)
	}

	used := alignment.UsedTargets()
	for _, b := range treeB.Clauses() {
		if !used[b.ClauseID] {
			res.AddedClauseIDs = append(res.AddedClauseIDs, b.ClauseID)
		}
	}

	res.Changes = append(res.Changes, tableChanges(docA, docB)...)

	afterClauses := treeB.Clauses()
	usage := depgraph.TermIndex(afterClauses, treeB.DefinedTerms)
	refs := depgraph.CrossRefs(afterClauses)
	links := depgraph.NumericLinks(afterClauses)
	res.Graph = depgraph.BuildGraph(afterClauses, usage, refs, links)
	res.ImpactReports = depgraph.ImpactReports(definitionChanges(treeA, treeB), usage)

	res.IntegrityAlerts = integrity.Scan(res.Changes)

	clauseTexts := make(map[string]string, len(afterClauses))
	for _, c := range afterClauses {
		clauseTexts[c.ClauseID] = c.Text
	}
	res.Audit = audit.Build(docB.Text(), clauseTexts)

	res.Stats = Stats{
		ModifiedCount: len(res.Changes),
		AddedCount:    len(res.AddedClauseIDs),
		DeletedCount:  len(res.DeletedClauseIDs),
	}
	for _, s := range res.RiskSummaries {
		if len(s.RiskTags) > 0 {
			res.Stats.HighRiskCount++
		}
		if len(s.ObligationShifts) > 0 {
			res.Stats.ObligationShiftCount++
		}
	}

	return res
}

// tableChanges diffs table cells per table index across the two block
// sequences, emitting one synthetic change set per changed table.
func tableChanges(docA, docB *ingest.Document) []diff.ChangeSet {
	beforeTables := docA.TableCellBlocks()
	afterTables := docB.TableCellBlocks()

	indexSet := make(map[int]bool)
	for t := range beforeTables {
		indexSet[t] = true
	}
	for t := range afterTables {
		indexSet[t] = true
	}
	indexes := make([]int, 0, len(indexSet))
	for t := range indexSet {
		indexes = append(indexes, t)
	}
	sort.Ints(indexes)

	var out []diff.ChangeSet
	for _, t := range indexes {
		cellChanges := diff.Tables(toCells(beforeTables[t]), toCells(afterTables[t]))
		if len(cellChanges) == 0 {
			continue
		}
		out = append(out, diff.ChangeSet{
			ClauseID:         fmt.Sprintf("table-%d", t),
			Insertions:       []diff.ChangeSpan{},
			Deletions:        []diff.ChangeSpan{},
			Substitutions:    []diff.ChangeSpan{},
			MovedBlocks:      []string{},
			TableCellChanges: cellChanges,
		})
	}
	return out
}

func toCells(blocks []ingest.Block) []diff.TableCell {
	cells := make([]diff.TableCell, 0, len(blocks))
	for _, b := range blocks {
		cells = append(cells, diff.TableCell{Row: b.Span.Row, Col: b.Span.Col, Text: b.Text})
	}
	return cells
}

// definitionChanges finds defined terms whose definition text differs
// between versions. Terms are matched case-insensitively; order follows
// the new version's term index.
func definitionChanges(treeA, treeB *clause.Tree) []depgraph.DefinitionChange {
	byTerm := make(map[string]clause.DefinedTerm, len(treeA.DefinedTerms))
	for _, t := range treeA.DefinedTerms {
		byTerm[strings.ToLower(t.Term)] = t
	}
	var changes []depgraph.DefinitionChange
	for _, b := range treeB.DefinedTerms {
		a, ok := byTerm[strings.ToLower(b.Term)]
		if !ok || a.Definition == b.Definition {
			continue
		}
		changes = append(changes, depgraph.DefinitionChange{
			Term:   b.Term,
			Before: a.Definition,
			After:  b.Definition,
		})
	}
	return changes
}

func headingOf(n *clause.Node) string {
	if _, title, ok := clause.ParseHeading(n.Text); ok {
		return title
	}
	return n.Label
}
