package rules

import (
	"strconv"
	"strings"

	"github.com/dgallion1/changesense/internal/diff"
)

// NumericDelta captures the first changed numeric literal in a clause
// pair. Normalized is nil when the literal does not parse as a number
// (dates, for instance); the delta is still reported.
type NumericDelta struct {
	ClauseID    string          `json:"clause_id"`
	ValueBefore *string         `json:"value_before"`
	ValueAfter  *string         `json:"value_after"`
	Normalized  *float64        `json:"normalized"`
	Unit        string          `json:"unit,omitempty"`
	Span        diff.ChangeSpan `json:"span"`
}

// NumericDeltas extracts numeric literal changes between two clause
// versions. Currency, percentage, duration, and date literals are all
// considered, in that order.
func NumericDeltas(clauseID, before, after string) []NumericDelta {
	bVals := numericLiterals(before)
	aVals := numericLiterals(after)
	if equalStrings(bVals, aVals) {
		return nil
	}

	delta := NumericDelta{
		ClauseID: clauseID,
		Span:     diff.ChangeSpan{Before: before, After: after},
	}
	if len(bVals) > 0 {
		delta.ValueBefore = &bVals[0]
	}
	if len(aVals) > 0 {
		delta.ValueAfter = &aVals[0]
	}

	ref := delta.ValueBefore
	if ref == nil {
		ref = delta.ValueAfter
	}
	if ref != nil {
		switch {
		case strings.Contains(*ref, "$"):
			delta.Unit = "currency"
		case strings.Contains(*ref, "%"):
			delta.Unit = "percent"
		default:
			delta.Unit = "duration"
		}
	}

	norm := delta.ValueAfter
	if norm == nil {
		norm = delta.ValueBefore
	}
	if norm != nil {
		if v, ok := normalizeLiteral(*norm); ok {
			delta.Normalized = &v
		}
	}
	return []NumericDelta{delta}
}

func numericLiterals(text string) []string {
	var vals []string
	vals = append(vals, currencyRe.FindAllString(text, -1)...)
	vals = append(vals, percentRe.FindAllString(text, -1)...)
	vals = append(vals, durationRe.FindAllString(text, -1)...)
	vals = append(vals, dateRe.FindAllString(text, -1)...)
	return vals
}

func normalizeLiteral(value string) (float64, bool) {
	cleaned := strings.NewReplacer("$", "", ",", "", "%", "").Replace(value)
	cleaned = strings.TrimSpace(cleaned)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
