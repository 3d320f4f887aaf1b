// Package integrity flags suspicious edit patterns: large edits with no
// tracking metadata and content relocated between sections. Alerts are
// advisory and never block downstream processing.
package integrity

import (
	"strings"

	"github.com/dgallion1/changesense/internal/diff"
)

// Combined inserted+deleted word count above which an edit is considered
// large enough to warrant review.
const largeChangeWordBudget = 40

// Alert is one integrity flag for a clause.
type Alert struct {
	ClauseID  string `json:"clause_id"`
	AlertType string `json:"alert_type"`
	Rationale string `json:"rationale"`
}

// Scan inspects every change set. Multiple alerts may fire per clause.
func Scan(changes []diff.ChangeSet) []Alert {
	var alerts []Alert
	for _, change := range changes {
		words := 0
		for _, span := range change.Insertions {
			words += len(strings.Fields(span.After))
		}
		for _, span := range change.Deletions {
			words += len(strings.Fields(span.Before))
		}
		if words > largeChangeWordBudget {
			alerts = append(alerts, Alert{
				ClauseID:  change.ClauseID,
				AlertType: "large_untracked_change",
				Rationale: "Large insertion/deletion without explicit tracking metadata",
			})
		}
		if len(change.MovedBlocks) > 0 {
			alerts = append(alerts, Alert{
				ClauseID:  change.ClauseID,
				AlertType: "moved_content",
				Rationale: "Content moved between sections",
			})
		}
	}
	return alerts
}
