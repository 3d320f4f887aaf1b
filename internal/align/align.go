// Package align matches clauses between two document versions despite
// renumbering, reordering, and splits. Four stages run from strict to
// loose over a single shared set of already-claimed new-version clauses:
// exact title match, fuzzy title/lead-token match, cosine similarity over
// term-frequency vectors, and finally split/merge detection.
package align

import (
	"sort"

	"github.com/dgallion1/changesense/internal/clause"
)

const (
	// Stage acceptance thresholds, strict to loose.
	fuzzyThreshold      = 0.70
	cosineThreshold     = 0.55
	splitMergeThreshold = 0.45

	// A split/merge entry claims at most this many new-version clauses.
	splitMergeCap = 2
)

// Reason records which stage matched a pair and how strongly.
type Reason struct {
	Method string  `json:"method"`
	Score  float64 `json:"score"`
}

// Entry maps one old-version clause to zero, one, or two new-version
// clauses. An empty target list signals a deletion.
type Entry struct {
	OldClauseID  string   `json:"old_clause_id"`
	NewClauseIDs []string `json:"new_clause_ids"`
	Confidence   float64  `json:"confidence"`
	Reasons      []Reason `json:"reasons"`
	MoveDetected bool     `json:"move_detected"`
}

// Map is the ordered alignment, one entry per old-version clause.
type Map struct {
	Entries []Entry `json:"entries"`
}

// UsedTargets returns the set of new-version clause ids claimed by any
// entry.
func (m Map) UsedTargets() map[string]bool {
	used := make(map[string]bool)
	for _, e := range m.Entries {
		for _, id := range e.NewClauseIDs {
			used[id] = true
		}
	}
	return used
}

// Align matches the clauses of treeA (old) against treeB (new).
// The "used" set is local to this call; concurrent alignments never share
// state.
func Align(treeA, treeB *clause.Tree) Map {
	aNodes := treeA.Clauses()
	bNodes := treeB.Clauses()

	entries := make([]*Entry, len(aNodes))
	used := make(map[string]bool)

	bind := func(i int, a, b *clause.Node, method string, score float64) {
		used[b.ClauseID] = true
		entries[i] = &Entry{
			OldClauseID:  a.ClauseID,
			NewClauseIDs: []string{b.ClauseID},
			Confidence:   score,
			Reasons:      []Reason{{Method: method, Score: score}},
			MoveDetected: moveDetected(a, b),
		}
	}

	// Stage 1: exact title match, eager first-fit over candidate lists.
	byKey := make(map[string][]*clause.Node)
	for _, b := range bNodes {
		k := titleKey(b)
		byKey[k] = append(byKey[k], b)
	}
	var remaining []int
	for i, a := range aNodes {
		matched := false
		for _, cand := range byKey[titleKey(a)] {
			if used[cand.ClauseID] {
				continue
			}
			bind(i, a, cand, "title_exact", 1.0)
			matched = true
			break
		}
		if !matched {
			remaining = append(remaining, i)
		}
	}

	// Stage 2: fuzzy similarity over titles and the first 12 body tokens.
	var unfuzzed []int
	for _, i := range remaining {
		a := aNodes[i]
		aTitle := titleOf(a)
		aHead := headTokens(a)
		bestScore := 0.0
		var best *clause.Node
		for _, b := range bNodes {
			if used[b.ClauseID] {
				continue
			}
			score := similarity(aTitle, titleOf(b))
			if s := similarity(aHead, headTokens(b)); s > score {
				score = s
			}
			if score > bestScore {
				bestScore = score
				best = b
			}
		}
		if best != nil && bestScore >= fuzzyThreshold {
			bind(i, a, best, "label_or_heading_fuzzy", bestScore)
		} else {
			unfuzzed = append(unfuzzed, i)
		}
	}

	// Stage 3: cosine similarity over term-frequency vectors.
	var unmatched []int
	for _, i := range unfuzzed {
		a := aNodes[i]
		aVec := bagVector(a)
		bestScore := 0.0
		var best *clause.Node
		for _, b := range bNodes {
			if used[b.ClauseID] {
				continue
			}
			score := cosine(aVec, bagVector(b))
			if score > bestScore {
				bestScore = score
				best = b
			}
		}
		if best != nil && bestScore >= cosineThreshold {
			bind(i, a, best, "semantic_cosine", bestScore)
		} else {
			unmatched = append(unmatched, i)
		}
	}

	// Stage 4: split/merge detection, else an explicit deletion entry.
	for _, i := range unmatched {
		a := aNodes[i]
		aVec := bagVector(a)
		type scored struct {
			score float64
			node  *clause.Node
		}
		var candidates []scored
		for _, b := range bNodes {
			if used[b.ClauseID] {
				continue
			}
			if score := cosine(aVec, bagVector(b)); score >= splitMergeThreshold {
				candidates = append(candidates, scored{score, b})
			}
		}
		sort.SliceStable(candidates, func(x, y int) bool {
			return candidates[x].score > candidates[y].score
		})
		if len(candidates) == 0 {
			entries[i] = &Entry{
				OldClauseID:  a.ClauseID,
				NewClauseIDs: []string{},
				Confidence:   0,
				Reasons:      []Reason{},
			}
			continue
		}
		if len(candidates) > splitMergeCap {
			candidates = candidates[:splitMergeCap]
		}
		ids := make([]string, 0, len(candidates))
		for _, c := range candidates {
			ids = append(ids, c.node.ClauseID)
			used[c.node.ClauseID] = true
		}
		entries[i] = &Entry{
			OldClauseID:  a.ClauseID,
			NewClauseIDs: ids,
			Confidence:   candidates[0].score,
			Reasons:      []Reason{{Method: "split_merge", Score: candidates[0].score}},
		}
	}

	out := Map{Entries: make([]Entry, len(entries))}
	for i, e := range entries {
		out.Entries[i] = *e
	}
	return out
}

// moveDetected reports whether a matched clause changed position. Pure
// renumbering — same normalized title under a different numbering token —
// is not a move.
func moveDetected(a, b *clause.Node) bool {
	if a.Path == b.Path {
		return false
	}
	_, aTitle, aOK := clause.ParseHeading(a.Text)
	_, bTitle, bOK := clause.ParseHeading(b.Text)
	if aOK && bOK && normalize(aTitle) != "" && normalize(aTitle) == normalize(bTitle) {
		return false
	}
	return true
}
