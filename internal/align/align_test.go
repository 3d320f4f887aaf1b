package align

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dgallion1/changesense/internal/clause"
	"github.com/dgallion1/changesense/internal/ingest"
)

func buildTree(t *testing.T, paragraphs ...string) *clause.Tree {
	t.Helper()
	blocks := make([]ingest.Block, 0, len(paragraphs))
	for _, p := range paragraphs {
		blocks = append(blocks, ingest.Block{Type: "paragraph", Text: p, Span: ingest.NoSpan()})
	}
	return clause.Build(blocks)
}

// manualTree builds a tree from preconstructed nodes, bypassing the
// segmenter, for tests that need exact token vectors.
func manualTree(nodes ...*clause.Node) *clause.Tree {
	root := &clause.Node{ClauseID: "root", Type: "section", Label: "root", Path: "root", Children: nodes}
	return &clause.Tree{Root: root}
}

func tokenNode(id, label string, tokens []string) *clause.Node {
	return &clause.Node{
		ClauseID: id,
		Type:     "section",
		Label:    label,
		Path:     label,
		Text:     strings.Join(tokens, " "),
		Tokens:   tokens,
	}
}

func namedTokens(prefix string, n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("%s%02d", prefix, i))
	}
	return out
}

func TestAlign_SelfAlignment(t *testing.T) {
	doc := []string{
		"1. Definitions. Terms used herein have assigned meanings.",
		"2. Payment Terms. Buyer shall pay $500 within 30 days.",
		"3. Termination. Either party may terminate on notice.",
	}
	tree := buildTree(t, doc...)
	other := buildTree(t, doc...)

	m := Align(tree, other)
	if len(m.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(m.Entries))
	}
	for _, e := range m.Entries {
		if len(e.NewClauseIDs) != 1 {
			t.Fatalf("entry %s: expected single target, got %v", e.OldClauseID, e.NewClauseIDs)
		}
		if e.Reasons[0].Method != "title_exact" {
			t.Errorf("entry %s: expected title_exact, got %q", e.OldClauseID, e.Reasons[0].Method)
		}
		if e.Confidence != 1.0 {
			t.Errorf("entry %s: expected confidence 1.0, got %v", e.OldClauseID, e.Confidence)
		}
		if e.MoveDetected {
			t.Errorf("entry %s: self-alignment must not report a move", e.OldClauseID)
		}
	}
}

func TestAlign_TargetsAreInjective(t *testing.T) {
	// Two identical old clauses compete for one new clause; only one may
	// claim it.
	a := manualTree(
		tokenNode("clause-1", "p1", namedTokens("core", 20)),
		tokenNode("clause-2", "p2", namedTokens("core", 20)),
	)
	b := manualTree(
		tokenNode("clause-1", "q1", namedTokens("core", 20)),
	)

	m := Align(a, b)
	claimed := map[string]int{}
	for _, e := range m.Entries {
		for _, id := range e.NewClauseIDs {
			claimed[id]++
		}
	}
	for id, n := range claimed {
		if n > 1 {
			t.Errorf("target %s claimed %d times", id, n)
		}
	}

	matched := 0
	for _, e := range m.Entries {
		if len(e.NewClauseIDs) > 0 {
			matched++
		}
	}
	if matched != 1 {
		t.Errorf("expected exactly one matched entry, got %d", matched)
	}
}

func TestAlign_RenumberingIsNotAMove(t *testing.T) {
	a := buildTree(t, "3. Payment Terms. Buyer shall pay the Purchase Price at Closing.")
	b := buildTree(t, "4. Payment Terms. Buyer shall pay the Purchase Price at Closing.")

	m := Align(a, b)
	e := m.Entries[0]
	if e.Reasons[0].Method != "title_exact" {
		t.Fatalf("expected title_exact, got %q", e.Reasons[0].Method)
	}
	if e.MoveDetected {
		t.Error("pure renumbering must not be a move")
	}
}

func TestAlign_MoveDetected(t *testing.T) {
	// Same body, no extractable headings, different paths.
	a := manualTree(tokenNode("clause-1", "a-5", namedTokens("body", 20)))
	b := manualTree(tokenNode("clause-1", "b-2", namedTokens("body", 20)))

	m := Align(a, b)
	e := m.Entries[0]
	if len(e.NewClauseIDs) != 1 {
		t.Fatalf("expected a match, got %v", e.NewClauseIDs)
	}
	if !e.MoveDetected {
		t.Error("expected move detection for relocated content")
	}
}

func TestAlign_FuzzyTitleMatch(t *testing.T) {
	a := buildTree(t, "2. Indemnification Procedures. Seller shall defend all claims.")
	b := buildTree(t, "2. Indemnification Procedure. Seller shall defend all claims arising.")

	m := Align(a, b)
	e := m.Entries[0]
	if len(e.NewClauseIDs) != 1 {
		t.Fatalf("expected a match, got %v", e.NewClauseIDs)
	}
	method := e.Reasons[0].Method
	if method != "label_or_heading_fuzzy" {
		t.Errorf("expected label_or_heading_fuzzy, got %q", method)
	}
	if e.Confidence < fuzzyThreshold {
		t.Errorf("confidence %v below fuzzy threshold", e.Confidence)
	}
}

// cosineBoundary builds a pair whose cosine is exactly 11/20 = 0.55: the
// old clause has 25 distinct tokens, the new 16, sharing `shared` of
// them. Shared tokens sit at the tail so the fuzzy stage's head windows
// stay disjoint.
func cosineBoundaryPair(shared int) (*clause.Tree, *clause.Tree) {
	aTokens := append(namedTokens("alpha", 25-shared), namedTokens("core", shared)...)
	bTokens := append(namedTokens("bravo", 16-shared), namedTokens("core", shared)...)
	a := manualTree(tokenNode("clause-1", "zz1", aTokens))
	b := manualTree(tokenNode("clause-1", "qq9", bTokens))
	return a, b
}

func TestAlign_CosineAtThreshold(t *testing.T) {
	a, b := cosineBoundaryPair(11) // 11 / (5*4) = 0.55
	m := Align(a, b)
	e := m.Entries[0]
	if len(e.NewClauseIDs) != 1 {
		t.Fatalf("expected match at threshold, got %v", e.NewClauseIDs)
	}
	if e.Reasons[0].Method != "semantic_cosine" {
		t.Errorf("expected semantic_cosine, got %q", e.Reasons[0].Method)
	}
	if e.Confidence < 0.549 || e.Confidence > 0.551 {
		t.Errorf("expected confidence 0.55, got %v", e.Confidence)
	}
}

func TestAlign_CosineBelowThresholdFallsToSplitMerge(t *testing.T) {
	a, b := cosineBoundaryPair(10) // 0.50: below cosine, above split/merge
	m := Align(a, b)
	e := m.Entries[0]
	if len(e.NewClauseIDs) != 1 {
		t.Fatalf("expected split/merge match, got %v", e.NewClauseIDs)
	}
	if e.Reasons[0].Method != "split_merge" {
		t.Errorf("expected split_merge, got %q", e.Reasons[0].Method)
	}
}

func TestAlign_NoCandidateYieldsDeletion(t *testing.T) {
	a, b := cosineBoundaryPair(8) // 0.40: below every loose threshold
	m := Align(a, b)
	e := m.Entries[0]
	if len(e.NewClauseIDs) != 0 {
		t.Fatalf("expected deletion entry, got %v", e.NewClauseIDs)
	}
	if e.Confidence != 0 {
		t.Errorf("expected zero confidence, got %v", e.Confidence)
	}
}

func TestAlign_SplitClaimsAtMostTwoTargets(t *testing.T) {
	// One old clause overlapping three new fragments. Each fragment
	// shares 12 of the old clause's 30 tokens, putting its cosine at
	// 12/sqrt(600) = 0.49: past the split/merge bar but under the cosine
	// stage's. The cap keeps the two best.
	combined := namedTokens("frag", 30)
	frag := func(id, label, junk string, start int) *clause.Node {
		tokens := append(namedTokens(junk, 8), combined[start:start+12]...)
		return tokenNode(id, label, tokens)
	}
	a := manualTree(tokenNode("clause-1", "zz1", combined))
	b := manualTree(
		frag("clause-1", "qa1", "xa", 0),
		frag("clause-2", "qb2", "xb", 9),
		frag("clause-3", "qc3", "xc", 18),
	)

	m := Align(a, b)
	e := m.Entries[0]
	if e.Reasons[0].Method != "split_merge" {
		t.Fatalf("expected split_merge, got %q", e.Reasons[0].Method)
	}
	if len(e.NewClauseIDs) != splitMergeCap {
		t.Errorf("expected %d targets, got %d", splitMergeCap, len(e.NewClauseIDs))
	}
}

func TestUsedTargets(t *testing.T) {
	m := Map{Entries: []Entry{
		{OldClauseID: "clause-1", NewClauseIDs: []string{"clause-1", "clause-2"}},
		{OldClauseID: "clause-2", NewClauseIDs: []string{}},
	}}
	used := m.UsedTargets()
	if !used["clause-1"] || !used["clause-2"] {
		t.Errorf("expected both targets used, got %v", used)
	}
	if len(used) != 2 {
		t.Errorf("expected 2 used targets, got %d", len(used))
	}
}

func TestCosine_EmptyVectors(t *testing.T) {
	if c := cosine(nil, map[string]int{"a": 1}); c != 0 {
		t.Errorf("expected 0 for empty vector, got %v", c)
	}
}
