// Package depgraph links defined terms, cross references, and numeric
// literals to the clauses that use them, and ranks the clauses impacted
// when a defined term's definition changes.
package depgraph

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/changesense/internal/clause"
	"github.com/dgallion1/changesense/internal/diff"
)

var (
	sectionRefRe = regexp.MustCompile(`(?i)section\s+([\d.()a-zA-Z]+)`)
	currencyRe   = regexp.MustCompile(`\$\s?\d[\d,]*(?:\.\d+)?`)
)

// Edge is one tagged dependency.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"edge_type"` // term, cross_ref, numeric
}

// Graph is the combined dependency graph over the new-version clause set.
type Graph struct {
	Nodes []string `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

// TermUsage counts how often a defined term occurs in a clause.
type TermUsage struct {
	Term     string `json:"term"`
	ClauseID string `json:"clause_id"`
	Count    int    `json:"count"`
}

// CrossRef is one "section N" style reference found in a clause.
type CrossRef struct {
	FromClauseID string `json:"from_clause_id"`
	ToClausePath string `json:"to_clause_path"`
}

// NumericLink ties a currency literal to the clause containing it.
type NumericLink struct {
	Value    string `json:"value"`
	ClauseID string `json:"clause_id"`
}

// ImpactedClause is one ranked user of a changed term.
type ImpactedClause struct {
	ClauseID        string  `json:"clause_id"`
	ImportanceScore float64 `json:"importance_score"`
}

// ImpactReport lists the clauses affected by one definition change,
// ranked by raw occurrence count.
type ImpactReport struct {
	TermChanged     string           `json:"term_changed"`
	DefinitionDiff  diff.ChangeSpan  `json:"definition_diff"`
	AffectedClauses []ImpactedClause `json:"affected_clauses"`
}

// DefinitionChange records a defined term whose definition text differs
// between versions.
type DefinitionChange struct {
	Term   string `json:"term"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// TermIndex counts case-insensitive substring occurrences of each defined
// term per clause. Terms and clauses are visited in declared/document
// order, so output ordering is stable.
func TermIndex(clauses []*clause.Node, terms []clause.DefinedTerm) []TermUsage {
	var usage []TermUsage
	for _, term := range terms {
		needle := strings.ToLower(term.Term)
		if needle == "" {
			continue
		}
		for _, c := range clauses {
			count := strings.Count(strings.ToLower(c.Text), needle)
			if count > 0 {
				usage = append(usage, TermUsage{Term: term.Term, ClauseID: c.ClauseID, Count: count})
			}
		}
	}
	return usage
}

// CrossRefs finds "section <token>" references per clause.
func CrossRefs(clauses []*clause.Node) []CrossRef {
	var refs []CrossRef
	for _, c := range clauses {
		for _, m := range sectionRefRe.FindAllStringSubmatch(c.Text, -1) {
			refs = append(refs, CrossRef{FromClauseID: c.ClauseID, ToClausePath: m[1]})
		}
	}
	return refs
}

// NumericLinks ties each currency literal to its containing clause.
func NumericLinks(clauses []*clause.Node) []NumericLink {
	var links []NumericLink
	for _, c := range clauses {
		for _, m := range currencyRe.FindAllString(c.Text, -1) {
			links = append(links, NumericLink{Value: m, ClauseID: c.ClauseID})
		}
	}
	return links
}

// BuildGraph combines the three edge families into one graph.
func BuildGraph(clauses []*clause.Node, usage []TermUsage, refs []CrossRef, links []NumericLink) Graph {
	nodes := make([]string, 0, len(clauses))
	for _, c := range clauses {
		nodes = append(nodes, c.ClauseID)
	}
	edges := make([]Edge, 0, len(usage)+len(refs)+len(links))
	for _, u := range usage {
		edges = append(edges, Edge{Source: u.Term, Target: u.ClauseID, Type: "term"})
	}
	for _, r := range refs {
		edges = append(edges, Edge{Source: r.FromClauseID, Target: r.ToClausePath, Type: "cross_ref"})
	}
	for _, l := range links {
		edges = append(edges, Edge{Source: l.Value, Target: l.ClauseID, Type: "numeric"})
	}
	return Graph{Nodes: nodes, Edges: edges}
}

// ImpactReports ranks the users of each changed term by occurrence count,
// descending; ties preserve encounter order.
func ImpactReports(changes []DefinitionChange, usage []TermUsage) []ImpactReport {
	byTerm := make(map[string][]TermUsage)
	for _, u := range usage {
		key := strings.ToLower(u.Term)
		byTerm[key] = append(byTerm[key], u)
	}

	reports := make([]ImpactReport, 0, len(changes))
	for _, change := range changes {
		users := byTerm[strings.ToLower(change.Term)]
		affected := make([]ImpactedClause, 0, len(users))
		for _, u := range users {
			affected = append(affected, ImpactedClause{ClauseID: u.ClauseID, ImportanceScore: float64(u.Count)})
		}
		sort.SliceStable(affected, func(i, j int) bool {
			return affected[i].ImportanceScore > affected[j].ImportanceScore
		})
		reports = append(reports, ImpactReport{
			TermChanged:     change.Term,
			DefinitionDiff:  diff.ChangeSpan{Before: change.Before, After: change.After},
			AffectedClauses: affected,
		})
	}
	return reports
}
