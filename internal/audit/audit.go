// Package audit fingerprints what was compared. The hashes and stage
// version tags make a comparison reproducible and tamper-evident; this
// is not a security control.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Stage version tags. Bump whenever the corresponding algorithm's
// observable behavior changes, so non-reproducible comparisons across
// versions are detectable.
const (
	ParserVersion    = "docx-pdf-v1"
	DiffVersion      = "token-sentence-v1"
	RulesVersion     = "ma-mvp-v1"
	AlignmentVersion = "align-v1"
)

// Entry is the audit record for one comparison.
type Entry struct {
	DocHash          string            `json:"doc_hash"`
	ClauseHashes     map[string]string `json:"clause_hashes"`
	ParserVersion    string            `json:"parser_version"`
	DiffVersion      string            `json:"diff_version"`
	RulesVersion     string            `json:"rules_version"`
	AlignmentVersion string            `json:"alignment_version"`
	Timestamp        string            `json:"timestamp"`
}

// HashText returns the hex SHA-256 of text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Build fingerprints the full after-document text and each after-clause
// individually.
func Build(docText string, clauseTexts map[string]string) Entry {
	clauseHashes := make(map[string]string, len(clauseTexts))
	for id, text := range clauseTexts {
		clauseHashes[id] = HashText(text)
	}
	return Entry{
		DocHash:          HashText(docText),
		ClauseHashes:     clauseHashes,
		ParserVersion:    ParserVersion,
		DiffVersion:      DiffVersion,
		RulesVersion:     RulesVersion,
		AlignmentVersion: AlignmentVersion,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}
}
