// Package export renders a stored comparison run as a human-readable
// report. The report body is assembled as markdown and converted to HTML,
// so the same text works in terminals, tickets, and browsers.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/dgallion1/changesense/internal/pipeline"
	"github.com/dgallion1/changesense/internal/runstore"
)

const htmlShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>ChangeSense Verification Report</title>
<style>
body { font-family: sans-serif; max-width: 60em; margin: 2em auto; padding: 0 1em; color: #222; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.3em 0.6em; }
code { background: #f4f4f4; padding: 0.1em 0.3em; }
</style>
</head>
<body>
%s
</body>
</html>
`

// Markdown builds the report body for one run.
func Markdown(run runstore.Run, record *pipeline.RunRecord) string {
	var b strings.Builder

	b.WriteString("# ChangeSense Verification Report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", run.ID)
	fmt.Fprintf(&b, "- Version A: %s (`%s`)\n", run.FilenameA, shortHash(run.DocHashA))
	fmt.Fprintf(&b, "- Version B: %s (`%s`)\n", run.FilenameB, shortHash(run.DocHashB))
	fmt.Fprintf(&b, "- Compared: %s\n\n", run.CreatedAt.UTC().Format(time.RFC3339))

	stats := record.Stats
	b.WriteString("## Summary Stats\n\n")
	fmt.Fprintf(&b, "- Total Clauses Modified: %d\n", stats.ModifiedCount)
	fmt.Fprintf(&b, "- Added Clauses: %d\n", stats.AddedCount)
	fmt.Fprintf(&b, "- Deleted Clauses: %d\n", stats.DeletedCount)
	fmt.Fprintf(&b, "- High Risk Changes: %d\n", stats.HighRiskCount)
	fmt.Fprintf(&b, "- Obligation Shifts: %d\n\n", stats.ObligationShiftCount)

	if len(record.Findings) > 0 {
		b.WriteString("## Materiality Findings\n\n")
		for _, f := range record.Findings {
			fmt.Fprintf(&b, "- **%s** (%s) in `%s`: %s\n", f.Category, f.Severity, f.ClauseID, f.Rationale)
		}
		b.WriteString("\n")
	}

	if len(record.ImpactReports) > 0 {
		b.WriteString("## Definition Impact\n\n")
		for _, r := range record.ImpactReports {
			ids := make([]string, 0, len(r.AffectedClauses))
			for _, a := range r.AffectedClauses {
				ids = append(ids, a.ClauseID)
			}
			fmt.Fprintf(&b, "- %q changed; affects: %s\n", r.TermChanged, strings.Join(ids, ", "))
		}
		b.WriteString("\n")
	}

	if len(record.IntegrityAlerts) > 0 {
		b.WriteString("## Integrity Alerts\n\n")
		for _, a := range record.IntegrityAlerts {
			fmt.Fprintf(&b, "- `%s` %s: %s\n", a.ClauseID, a.AlertType, a.Rationale)
		}
		b.WriteString("\n")
	}

	if record.Enrichment != nil && record.Enrichment.AIEnabled {
		b.WriteString("## AI Interpretation\n\n")
		for _, sum := range record.Enrichment.Summaries {
			fmt.Fprintf(&b, "### %s\n\n", titleCase(sum.Type))
			for _, bullet := range sum.Bullets {
				fmt.Fprintf(&b, "- %s\n", bullet)
			}
			b.WriteString("\n")
		}
		for _, in := range record.Enrichment.Insights {
			fmt.Fprintf(&b, "- `%s`: %s (%s, confidence %.2f)\n", in.ChangeID, in.SemanticLabel, in.RiskDirection, in.Confidence)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Verification Statement\n\n")
	b.WriteString("Clause-level deterministic verification completed.\n\n")
	fmt.Fprintf(&b, "Pipeline versions: parser `%s`, diff `%s`, rules `%s`, alignment `%s`.\n",
		record.Audit.ParserVersion, record.Audit.DiffVersion,
		record.Audit.RulesVersion, record.Audit.AlignmentVersion)

	return b.String()
}

// HTMLReport renders the run report as a standalone HTML page.
func HTMLReport(run runstore.Run, record *pipeline.RunRecord) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(run, record)), &body); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return []byte(fmt.Sprintf(htmlShell, body.String())), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
