// Package rules flags legally material changes in modified clauses.
// Detection is pattern- and lexicon-based, intentionally conservative:
// every finding cites the exact before/after text that triggered it.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/changesense/internal/diff"
)

// Finding is one flagged, legally significant textual change.
type Finding struct {
	ClauseID  string          `json:"clause_id"`
	Category  string          `json:"category"`
	Severity  string          `json:"severity"` // low, medium, high
	Rationale string          `json:"rationale"`
	Span      diff.ChangeSpan `json:"exact_diff_span"`
}

// modalShifts is evaluated in declared order so output ordering is
// deterministic.
var modalShifts = []struct {
	From, To, Rationale string
}{
	{"may", "shall", "Obligation strengthened"},
	{"may", "must", "Obligation strengthened"},
	{"may", "will", "Obligation strengthened"},
	{"shall", "may", "Obligation weakened"},
	{"must", "may", "Obligation weakened"},
	{"will", "may", "Obligation weakened"},
}

// keyTerms maps lowercase trigger phrases to their materiality category,
// in declared order.
var keyTerms = []struct {
	Needle, Category string
}{
	{"mae", "MAE"},
	{"material adverse effect", "MAE"},
	{"closing conditions", "Closing Conditions"},
	{"termination", "Termination Rights"},
	{"drop-dead", "Termination Rights"},
	{"sandbagging", "Non-reliance/Sandbagging"},
	{"non-reliance", "Non-reliance/Sandbagging"},
	{"disclosure schedule", "Disclosure Schedule"},
	{"affiliate", "Definitions"},
	{"knowledge", "Definitions"},
	{"permitted liens", "Definitions"},
	{"material", "Definitions"},
}

var (
	currencyRe = regexp.MustCompile(`\$\s?\d[\d,]*(?:\.\d+)?`)
	percentRe  = regexp.MustCompile(`\b\d+(?:\.\d+)?%`)
	dateRe     = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b`)
	durationRe = regexp.MustCompile(`(?i)\b\d+\s+(?:days?|months?|years?)\b`)

	modalWordRe = map[string]*regexp.Regexp{}
)

func init() {
	for _, m := range []string{"may", "shall", "must", "will", "should"} {
		modalWordRe[m] = regexp.MustCompile(`\b` + m + `\b`)
	}
}

func hasModal(text, modal string) bool {
	return modalWordRe[modal].MatchString(text)
}

// Apply runs all four detectors over a modified clause pair. Detectors
// are independent and non-exclusive: several findings may fire for the
// same pair.
func Apply(clauseID, before, after string) []Finding {
	var findings []Finding
	findings = append(findings, findModalShifts(clauseID, before, after)...)
	findings = append(findings, findNumeric(clauseID, before, after)...)
	findings = append(findings, findTime(clauseID, before, after)...)
	findings = append(findings, findKeyTerms(clauseID, before, after)...)
	return findings
}

func findModalShifts(clauseID, before, after string) []Finding {
	b := strings.ToLower(before)
	a := strings.ToLower(after)

	var findings []Finding
	for _, shift := range modalShifts {
		if hasModal(b, shift.From) && hasModal(a, shift.To) && !hasModal(a, shift.From) {
			findings = append(findings, Finding{
				ClauseID:  clauseID,
				Category:  "Obligation Strength",
				Severity:  "high",
				Rationale: shift.Rationale,
				Span:      diff.ChangeSpan{Before: before, After: after},
			})
		}
	}
	return findings
}

func findNumeric(clauseID, before, after string) []Finding {
	var findings []Finding
	if !equalStrings(currencyRe.FindAllString(before, -1), currencyRe.FindAllString(after, -1)) {
		findings = append(findings, Finding{
			ClauseID:  clauseID,
			Category:  "Numeric Threshold",
			Severity:  "high",
			Rationale: "Currency amount changed",
			Span:      diff.ChangeSpan{Before: before, After: after},
		})
	}
	if !equalStrings(percentRe.FindAllString(before, -1), percentRe.FindAllString(after, -1)) {
		findings = append(findings, Finding{
			ClauseID:  clauseID,
			Category:  "Numeric Threshold",
			Severity:  "medium",
			Rationale: "Percentage threshold changed",
			Span:      diff.ChangeSpan{Before: before, After: after},
		})
	}
	return findings
}

func findTime(clauseID, before, after string) []Finding {
	var findings []Finding
	if !equalStrings(dateRe.FindAllString(before, -1), dateRe.FindAllString(after, -1)) {
		findings = append(findings, Finding{
			ClauseID:  clauseID,
			Category:  "Time Period",
			Severity:  "high",
			Rationale: "Date changed",
			Span:      diff.ChangeSpan{Before: before, After: after},
		})
	}
	if !equalStrings(durationRe.FindAllString(before, -1), durationRe.FindAllString(after, -1)) {
		findings = append(findings, Finding{
			ClauseID:  clauseID,
			Category:  "Time Period",
			Severity:  "medium",
			Rationale: "Duration window changed",
			Span:      diff.ChangeSpan{Before: before, After: after},
		})
	}
	return findings
}

func findKeyTerms(clauseID, before, after string) []Finding {
	if before == after {
		return nil
	}
	combined := strings.ToLower(before + " " + after)
	var findings []Finding
	for _, kt := range keyTerms {
		if strings.Contains(combined, kt.Needle) {
			findings = append(findings, Finding{
				ClauseID:  clauseID,
				Category:  kt.Category,
				Severity:  "medium",
				Rationale: fmt.Sprintf("Change detected in %s language", kt.Category),
				Span:      diff.ChangeSpan{Before: before, After: after},
			})
		}
	}
	return findings
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
