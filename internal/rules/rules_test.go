package rules

import (
	"testing"
)

func findByCategory(findings []Finding, category string) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Category == category {
			out = append(out, f)
		}
	}
	return out
}

func TestApply_ModalShiftMayToShall(t *testing.T) {
	findings := Apply("clause-1",
		"The Buyer may assign this Agreement.",
		"The Buyer shall assign this Agreement.",
	)
	shifts := findByCategory(findings, "Obligation Strength")
	if len(shifts) != 1 {
		t.Fatalf("expected 1 obligation finding, got %d", len(shifts))
	}
	f := shifts[0]
	if f.Severity != "high" {
		t.Errorf("expected high severity, got %q", f.Severity)
	}
	if f.Rationale != "Obligation strengthened" {
		t.Errorf("unexpected rationale %q", f.Rationale)
	}
	if f.ClauseID != "clause-1" {
		t.Errorf("unexpected clause id %q", f.ClauseID)
	}
}

func TestApply_ModalShiftRequiresDisappearance(t *testing.T) {
	// "may" survives alongside the new "shall": not a shift.
	findings := Apply("clause-1",
		"The Buyer may assign this Agreement.",
		"The Buyer may assign and shall notify the Seller.",
	)
	if shifts := findByCategory(findings, "Obligation Strength"); len(shifts) != 0 {
		t.Errorf("expected no obligation findings when the old modal survives, got %+v", shifts)
	}
}

func TestApply_ModalShiftWeakened(t *testing.T) {
	findings := Apply("clause-1",
		"The Seller must deliver the disclosure schedule.",
		"The Seller may deliver the disclosure schedule.",
	)
	shifts := findByCategory(findings, "Obligation Strength")
	if len(shifts) != 1 {
		t.Fatalf("expected 1 obligation finding, got %d", len(shifts))
	}
	if shifts[0].Rationale != "Obligation weakened" {
		t.Errorf("unexpected rationale %q", shifts[0].Rationale)
	}
}

func TestApply_ModalWholeWordOnly(t *testing.T) {
	// "dismay" and "willful" must not read as modals.
	findings := Apply("clause-1",
		"To the dismay of the parties, conduct continues.",
		"Willful conduct shall be excluded.",
	)
	if shifts := findByCategory(findings, "Obligation Strength"); len(shifts) != 0 {
		t.Errorf("expected no modal findings from substrings, got %+v", shifts)
	}
}

func TestApply_CurrencyChange(t *testing.T) {
	findings := Apply("clause-2",
		"Buyer shall pay $500 at Closing.",
		"Buyer shall pay $750 at Closing.",
	)
	numeric := findByCategory(findings, "Numeric Threshold")
	if len(numeric) != 1 {
		t.Fatalf("expected 1 numeric finding, got %d", len(numeric))
	}
	if numeric[0].Severity != "high" {
		t.Errorf("expected high severity for currency, got %q", numeric[0].Severity)
	}
}

func TestApply_PercentChange(t *testing.T) {
	findings := Apply("clause-2",
		"A basket of 1.5% of the Purchase Price applies.",
		"A basket of 2% of the Purchase Price applies.",
	)
	numeric := findByCategory(findings, "Numeric Threshold")
	if len(numeric) != 1 {
		t.Fatalf("expected 1 numeric finding, got %d", len(numeric))
	}
	if numeric[0].Severity != "medium" {
		t.Errorf("expected medium severity for percentage, got %q", numeric[0].Severity)
	}
}

func TestApply_DateAndDurationChanges(t *testing.T) {
	findings := Apply("clause-3",
		"Closing occurs on 2025-03-01, within 30 days of signing.",
		"Closing occurs on 2025-06-01, within 45 days of signing.",
	)
	timeFindings := findByCategory(findings, "Time Period")
	if len(timeFindings) != 2 {
		t.Fatalf("expected date and duration findings, got %d", len(timeFindings))
	}
	if timeFindings[0].Severity != "high" || timeFindings[0].Rationale != "Date changed" {
		t.Errorf("unexpected date finding %+v", timeFindings[0])
	}
	if timeFindings[1].Severity != "medium" || timeFindings[1].Rationale != "Duration window changed" {
		t.Errorf("unexpected duration finding %+v", timeFindings[1])
	}
}

func TestApply_KeyTermLanguage(t *testing.T) {
	findings := Apply("clause-4",
		"A Material Adverse Effect excludes general economic conditions.",
		"A Material Adverse Effect excludes pandemics and economic conditions.",
	)
	mae := findByCategory(findings, "MAE")
	if len(mae) == 0 {
		t.Fatal("expected an MAE finding")
	}
	if mae[0].Severity != "medium" {
		t.Errorf("expected medium severity, got %q", mae[0].Severity)
	}
}

func TestApply_KeyTermsNeedActualChange(t *testing.T) {
	text := "Termination rights survive Closing."
	if findings := Apply("clause-4", text, text); len(findings) != 0 {
		t.Errorf("expected no findings for identical text, got %+v", findings)
	}
}

func TestNumericDeltas_Currency(t *testing.T) {
	deltas := NumericDeltas("clause-2",
		"Buyer shall pay $1,500.50 at Closing.",
		"Buyer shall pay $2,000 at Closing.",
	)
	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta, got %d", len(deltas))
	}
	d := deltas[0]
	if d.ValueBefore == nil || *d.ValueBefore != "$1,500.50" {
		t.Errorf("unexpected before value %+v", d.ValueBefore)
	}
	if d.ValueAfter == nil || *d.ValueAfter != "$2,000" {
		t.Errorf("unexpected after value %+v", d.ValueAfter)
	}
	if d.Unit != "currency" {
		t.Errorf("expected currency unit, got %q", d.Unit)
	}
	if d.Normalized == nil || *d.Normalized != 2000 {
		t.Errorf("expected normalized 2000, got %+v", d.Normalized)
	}
}

func TestNumericDeltas_DateDoesNotNormalize(t *testing.T) {
	deltas := NumericDeltas("clause-3",
		"Outside date is 2025-03-01.",
		"Outside date is 2025-06-01.",
	)
	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta, got %d", len(deltas))
	}
	if deltas[0].Normalized != nil {
		t.Errorf("expected nil normalized value for a date, got %v", *deltas[0].Normalized)
	}
}

func TestNumericDeltas_NoChange(t *testing.T) {
	text := "Buyer shall pay $500 within 30 days."
	if deltas := NumericDeltas("clause-2", text, text); deltas != nil {
		t.Errorf("expected nil for unchanged literals, got %+v", deltas)
	}
}

func TestSummarize_ObligationShiftTag(t *testing.T) {
	s := Summarize("clause-1", "Assignment",
		"The Buyer may assign this Agreement.",
		"The Buyer shall assign this Agreement.",
	)
	if len(s.ObligationShifts) != 1 {
		t.Fatalf("expected 1 shift, got %d", len(s.ObligationShifts))
	}
	shift := s.ObligationShifts[0]
	if shift.From != "may" || shift.To != "shall" {
		t.Errorf("unexpected shift %+v", shift)
	}
	if shift.Reason != "Permission tightened to obligation" {
		t.Errorf("unexpected reason %q", shift.Reason)
	}
	if len(s.RiskTags) != 1 || s.RiskTags[0] != "obligation_shift" {
		t.Errorf("unexpected tags %v", s.RiskTags)
	}
}

func TestSummarize_NumericAndDateTags(t *testing.T) {
	s := Summarize("clause-2", "Payment",
		"Pay $500 by 2025-03-01.",
		"Pay $750 by 2025-06-01.",
	)
	if !s.Numbers.Changed {
		t.Error("expected numeric change")
	}
	if !s.Dates.Changed {
		t.Error("expected date change")
	}
	wantTags := map[string]bool{"numeric_change": true, "date_change": true}
	for _, tag := range s.RiskTags {
		if !wantTags[tag] {
			t.Errorf("unexpected tag %q", tag)
		}
		delete(wantTags, tag)
	}
	if len(wantTags) != 0 {
		t.Errorf("missing tags: %v", wantTags)
	}
}

func TestSummarize_CleanChange(t *testing.T) {
	s := Summarize("clause-5", "Notices",
		"Notices go to counsel by mail.",
		"Notices go to counsel by email.",
	)
	if len(s.RiskTags) != 0 {
		t.Errorf("expected no risk tags, got %v", s.RiskTags)
	}
	if len(s.ObligationShifts) != 0 {
		t.Errorf("expected no shifts, got %+v", s.ObligationShifts)
	}
}
