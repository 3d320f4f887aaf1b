package rules

import (
	"sort"
	"strings"
)

// obligationShiftMap labels modal-pair transitions for the summary
// classifier. Keys are (from, to).
var obligationShiftMap = map[[2]string]string{
	{"may", "shall"}:    "Permission tightened to obligation",
	{"may", "must"}:     "Permission tightened to obligation",
	{"should", "shall"}: "Advisory hardened to obligation",
	{"should", "must"}:  "Advisory hardened to obligation",
	{"shall", "may"}:    "Obligation softened to permission",
	{"must", "may"}:     "Obligation softened to permission",
}

var modalOrder = []string{"may", "shall", "must", "will", "should"}

// ObligationShift is one modal transition found by the classifier.
type ObligationShift struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// ValueChange reports whether an extracted literal set changed.
type ValueChange struct {
	Before  []string `json:"before"`
	After   []string `json:"after"`
	Changed bool     `json:"changed"`
}

// RiskSummary is the quick-filter classification of one modified clause.
type RiskSummary struct {
	ClauseID         string            `json:"clause_id"`
	Heading          string            `json:"heading,omitempty"`
	RiskTags         []string          `json:"risk_tags"`
	ObligationShifts []ObligationShift `json:"obligation_shifts"`
	Numbers          ValueChange       `json:"numeric"`
	Dates            ValueChange       `json:"dates"`
}

// Summarize extracts modal, numeric, and date sets for a clause pair and
// reports whether each changed. It is a cheap filter over the full rule
// detectors.
func Summarize(clauseID, heading, before, after string) RiskSummary {
	beforeModals := extractModals(before)
	afterModals := extractModals(after)

	var shifts []ObligationShift
	for _, b := range beforeModals {
		for _, a := range afterModals {
			if b == a {
				continue
			}
			if reason, ok := obligationShiftMap[[2]string{b, a}]; ok {
				shifts = append(shifts, ObligationShift{From: b, To: a, Reason: reason})
			}
		}
	}

	numbers := valueChange(numericLiterals(before), numericLiterals(after))
	dates := valueChange(dateRe.FindAllString(before, -1), dateRe.FindAllString(after, -1))

	tags := []string{}
	if len(shifts) > 0 {
		tags = append(tags, "obligation_shift")
	}
	if numbers.Changed {
		tags = append(tags, "numeric_change")
	}
	if dates.Changed {
		tags = append(tags, "date_change")
	}

	return RiskSummary{
		ClauseID:         clauseID,
		Heading:          heading,
		RiskTags:         tags,
		ObligationShifts: shifts,
		Numbers:          numbers,
		Dates:            dates,
	}
}

// extractModals returns the modal verbs present as whole words, in fixed
// declared order.
func extractModals(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, m := range modalOrder {
		if hasModal(lower, m) {
			found = append(found, m)
		}
	}
	return found
}

func valueChange(before, after []string) ValueChange {
	b := sortedUnique(before)
	a := sortedUnique(after)
	return ValueChange{Before: b, After: a, Changed: !equalStrings(b, a)}
}

func sortedUnique(vals []string) []string {
	seen := make(map[string]bool, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
