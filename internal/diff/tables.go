package diff

import "sort"

// TableCell is one positioned cell of a table version.
type TableCell struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Text string `json:"text"`
}

// TableCellChange reports a cell present in only one version
// (addition/deletion) or present in both with differing text.
type TableCellChange struct {
	Row    int     `json:"row"`
	Col    int     `json:"col"`
	Before *string `json:"before"`
	After  *string `json:"after"`
}

// Tables diffs two cell sets keyed by (row, col). Keys are visited in
// sorted order so output is reproducible.
func Tables(before, after []TableCell) []TableCellChange {
	type key struct{ row, col int }
	beforeMap := make(map[key]string, len(before))
	afterMap := make(map[key]string, len(after))
	seen := make(map[key]bool)
	var keys []key

	for _, c := range before {
		k := key{c.Row, c.Col}
		beforeMap[k] = c.Text
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, c := range after {
		k := key{c.Row, c.Col}
		afterMap[k] = c.Text
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].row != keys[j].row {
			return keys[i].row < keys[j].row
		}
		return keys[i].col < keys[j].col
	})

	var changes []TableCellChange
	for _, k := range keys {
		b, hasBefore := beforeMap[k]
		a, hasAfter := afterMap[k]
		switch {
		case hasBefore && !hasAfter:
			changes = append(changes, TableCellChange{Row: k.row, Col: k.col, Before: &b})
		case !hasBefore && hasAfter:
			changes = append(changes, TableCellChange{Row: k.row, Col: k.col, After: &a})
		case b != a:
			bv, av := b, a
			changes = append(changes, TableCellChange{Row: k.row, Col: k.col, Before: &bv, After: &av})
		}
	}
	return changes
}
