package diff

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// wordTokenRe keeps words, whitespace runs, and punctuation as separate
// tokens so the original text can be reconstructed byte-for-byte.
var wordTokenRe = regexp.MustCompile(`\w+|\s+|[^\w\s]`)

// WordSpan is one display token with its byte offset in the source text.
type WordSpan struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
	Type   string `json:"type"` // added, removed, unchanged
}

// WordDiff carries word-level spans for both sides of a clause pair.
// Unlike the legal-token diff it preserves literal spacing, so it is the
// basis for exact-text rendering.
type WordDiff struct {
	BeforeSpans []WordSpan `json:"before_spans"`
	AfterSpans  []WordSpan `json:"after_spans"`
}

// Words computes a word-level diff with character offsets.
func Words(before, after string) WordDiff {
	beforeWords := wordTokenRe.FindAllString(before, -1)
	afterWords := wordTokenRe.FindAllString(after, -1)

	isJunk := func(s string) bool {
		return s != "" && strings.TrimSpace(s) == ""
	}
	m := difflib.NewMatcherWithJunk(beforeWords, afterWords, true, isJunk)

	wd := WordDiff{BeforeSpans: []WordSpan{}, AfterSpans: []WordSpan{}}
	beforePos := 0
	afterPos := 0

	for _, op := range m.GetOpCodes() {
		for _, w := range beforeWords[op.I1:op.I2] {
			if op.Tag != 'i' {
				typ := "unchanged"
				if op.Tag == 'd' || op.Tag == 'r' {
					typ = "removed"
				}
				wd.BeforeSpans = append(wd.BeforeSpans, WordSpan{Text: w, Offset: beforePos, Type: typ})
			}
			beforePos += len(w)
		}
		for _, w := range afterWords[op.J1:op.J2] {
			if op.Tag != 'd' {
				typ := "unchanged"
				if op.Tag == 'i' || op.Tag == 'r' {
					typ = "added"
				}
				wd.AfterSpans = append(wd.AfterSpans, WordSpan{Text: w, Offset: afterPos, Type: typ})
			}
			afterPos += len(w)
		}
	}
	return wd
}
