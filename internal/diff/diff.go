// Package diff computes token, word, sentence, and table-cell level
// change spans for aligned clause pairs. Sequence alignment uses the
// difflib SequenceMatcher port, so opcode semantics match the classic
// longest-common-subsequence behavior exactly.
package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dgallion1/changesense/internal/clause"
)

// ChangeSpan is a contiguous edit. Token offsets index the legal-token
// sequence the span was computed against.
type ChangeSpan struct {
	Before     string `json:"before"`
	After      string `json:"after"`
	TokenStart int    `json:"token_start"`
	TokenEnd   int    `json:"token_end"`
}

// ChangeSet holds every change computed for one aligned clause pair.
// Immutable once produced.
type ChangeSet struct {
	ClauseID         string            `json:"clause_id"`
	Heading          string            `json:"heading,omitempty"`
	BeforeText       string            `json:"before_text"`
	AfterText        string            `json:"after_text"`
	Insertions       []ChangeSpan      `json:"insertions"`
	Deletions        []ChangeSpan      `json:"deletions"`
	Substitutions    []ChangeSpan      `json:"substitutions"`
	MovedBlocks      []string          `json:"moved_blocks"`
	TableCellChanges []TableCellChange `json:"table_cell_changes"`
	SentenceChanges  []ChangeSpan      `json:"sentence_changes,omitempty"`
	WordDiff         *WordDiff         `json:"word_diff,omitempty"`
}

// Clause computes the token-level diff of a clause pair using the legal
// tokenizer. Empty inputs yield empty span lists, never an error.
func Clause(beforeText, afterText string) ChangeSet {
	before := clause.Tokenize(beforeText)
	after := clause.Tokenize(afterText)

	cs := ChangeSet{
		BeforeText:       beforeText,
		AfterText:        afterText,
		Insertions:       []ChangeSpan{},
		Deletions:        []ChangeSpan{},
		Substitutions:    []ChangeSpan{},
		MovedBlocks:      []string{},
		TableCellChanges: []TableCellChange{},
	}

	m := difflib.NewMatcher(before, after)
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'i':
			cs.Insertions = append(cs.Insertions, ChangeSpan{
				After:      strings.Join(after[op.J1:op.J2], " "),
				TokenStart: op.J1,
				TokenEnd:   op.J2,
			})
		case 'd':
			cs.Deletions = append(cs.Deletions, ChangeSpan{
				Before:     strings.Join(before[op.I1:op.I2], " "),
				TokenStart: op.I1,
				TokenEnd:   op.I2,
			})
		case 'r':
			cs.Substitutions = append(cs.Substitutions, ChangeSpan{
				Before:     strings.Join(before[op.I1:op.I2], " "),
				After:      strings.Join(after[op.J1:op.J2], " "),
				TokenStart: op.J1,
				TokenEnd:   op.J2,
			})
		}
	}
	return cs
}

// Sentences reports the non-equal spans of a sentence-level diff.
func Sentences(before, after string) []ChangeSpan {
	bSent := clause.SplitSentences(before)
	aSent := clause.SplitSentences(after)

	var changes []ChangeSpan
	m := difflib.NewMatcher(bSent, aSent)
	for _, op := range m.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		changes = append(changes, ChangeSpan{
			Before: strings.Join(bSent[op.I1:op.I2], " "),
			After:  strings.Join(aSent[op.J1:op.J2], " "),
		})
	}
	return changes
}
