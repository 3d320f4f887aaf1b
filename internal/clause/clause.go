// Package clause builds the clause tree and defined-term index that the
// aligner and diff engine operate on.
package clause

import "github.com/dgallion1/changesense/internal/ingest"

// Node is one segmented clause. The root node (ClauseID "root") is
// structural only and never appears in alignment or diff output.
type Node struct {
	ClauseID string            `json:"clause_id"`
	Type     string            `json:"type"` // section, definition, table, table_row, exhibit
	Label    string            `json:"label"`
	Path     string            `json:"path"`
	Text     string            `json:"text"`
	Tokens   []string          `json:"text_tokens"`
	Span     ingest.SourceSpan `json:"source_span"`
	Children []*Node           `json:"children"`
}

// DefinedTerm is a contract-defined vocabulary entry.
type DefinedTerm struct {
	Term       string `json:"term"`
	ClauseID   string `json:"definition_clause_id"`
	Definition string `json:"definition_text"`
}

// Tree is the immutable clause tree for one document version.
type Tree struct {
	Root         *Node         `json:"root"`
	DefinedTerms []DefinedTerm `json:"defined_terms"`

	index map[string]*Node
}

// Lookup returns the node with the given clause id, or nil.
func (t *Tree) Lookup(clauseID string) *Node {
	return t.index[clauseID]
}

// Clauses returns all non-root nodes in document order.
func (t *Tree) Clauses() []*Node {
	var nodes []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.ClauseID != "root" {
			nodes = append(nodes, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	if t.Root != nil {
		walk(t.Root)
	}
	return nodes
}

func (t *Tree) buildIndex() {
	t.index = make(map[string]*Node)
	var walk func(n *Node)
	walk = func(n *Node) {
		t.index[n.ClauseID] = n
		for _, c := range n.Children {
			walk(c)
		}
	}
	if t.Root != nil {
		walk(t.Root)
	}
}
