package export

import (
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/changesense/internal/compare"
	"github.com/dgallion1/changesense/internal/enrich"
	"github.com/dgallion1/changesense/internal/integrity"
	"github.com/dgallion1/changesense/internal/pipeline"
	"github.com/dgallion1/changesense/internal/rules"
	"github.com/dgallion1/changesense/internal/runstore"
)

func sampleRun() runstore.Run {
	return runstore.Run{
		ID:        "run-42",
		FilenameA: "v1.docx",
		FilenameB: "v2.docx",
		DocHashA:  "aaaaaaaaaaaaaaaaaaaaaaaa",
		DocHashB:  "bbbbbbbbbbbbbbbbbbbbbbbb",
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func sampleRecord() *pipeline.RunRecord {
	res := &compare.Result{}
	res.Stats = compare.Stats{ModifiedCount: 2, AddedCount: 1, DeletedCount: 1, HighRiskCount: 1}
	res.Findings = []rules.Finding{
		{ClauseID: "clause-2", Category: "Numeric Threshold", Severity: "high", Rationale: "Currency amount changed"},
	}
	res.IntegrityAlerts = []integrity.Alert{
		{ClauseID: "clause-3", AlertType: "moved_content", Rationale: "Content moved between sections"},
	}
	res.Audit.ParserVersion = "docx-pdf-v1"
	res.Audit.DiffVersion = "token-sentence-v1"
	res.Audit.RulesVersion = "ma-mvp-v1"
	res.Audit.AlignmentVersion = "align-v1"
	return &pipeline.RunRecord{Result: res}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleRun(), sampleRecord())

	for _, want := range []string{
		"# ChangeSense Verification Report",
		"run-42",
		"v1.docx",
		"Total Clauses Modified: 2",
		"High Risk Changes: 1",
		"**Numeric Threshold** (high) in `clause-2`",
		"moved_content",
		"## Verification Statement",
		"parser `docx-pdf-v1`",
		"alignment `align-v1`",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// Hashes shortened for readability.
	if strings.Contains(md, "aaaaaaaaaaaaaaaaaaaaaaaa") {
		t.Error("expected doc hash truncated in report")
	}
	if !strings.Contains(md, "aaaaaaaaaaaa") {
		t.Error("expected short hash prefix in report")
	}
}

func TestMarkdown_OmitsEmptySections(t *testing.T) {
	record := &pipeline.RunRecord{Result: &compare.Result{}}
	md := Markdown(sampleRun(), record)
	if strings.Contains(md, "## Materiality Findings") {
		t.Error("empty findings must not render a section")
	}
	if strings.Contains(md, "## AI Interpretation") {
		t.Error("missing enrichment must not render an AI section")
	}
	if !strings.Contains(md, "## Summary Stats") {
		t.Error("stats section must always render")
	}
}

func TestMarkdown_AISection(t *testing.T) {
	record := sampleRecord()
	record.Enrichment = &enrich.Response{
		AIEnabled: true,
		Summaries: []enrich.Summary{
			{Type: "executive", Bullets: []string{"Purchase price likely increased."}},
		},
		Insights: []enrich.Insight{
			{ChangeID: "clause-2", SemanticLabel: "payment increase", RiskDirection: "buyer_unfavorable", Confidence: 0.8},
		},
	}
	md := Markdown(sampleRun(), record)
	if !strings.Contains(md, "## AI Interpretation") {
		t.Fatal("expected AI section")
	}
	if !strings.Contains(md, "### Executive") {
		t.Error("expected title-cased summary heading")
	}
	if !strings.Contains(md, "payment increase") {
		t.Error("expected insight rendered")
	}

	record.Enrichment = enrich.Fallback()
	md = Markdown(sampleRun(), record)
	if strings.Contains(md, "## AI Interpretation") {
		t.Error("fallback enrichment must not render an AI section")
	}
}

func TestHTMLReport(t *testing.T) {
	html, err := HTMLReport(sampleRun(), sampleRecord())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	s := string(html)
	if !strings.Contains(s, "<!DOCTYPE html>") {
		t.Error("expected full HTML document")
	}
	if !strings.Contains(s, "<h1") {
		t.Error("expected rendered markdown headings")
	}
	if !strings.Contains(s, "ChangeSense Verification Report") {
		t.Error("expected report title")
	}
}
