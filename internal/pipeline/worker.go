package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/changesense/internal/audit"
	"github.com/dgallion1/changesense/internal/compare"
	"github.com/dgallion1/changesense/internal/enrich"
	"github.com/dgallion1/changesense/internal/ingest"
	"github.com/dgallion1/changesense/internal/runstore"
)

// Worker processes a single comparison job.
type Worker struct {
	provider enrich.Provider
	runs     *runstore.Store
	log      *slog.Logger

	enrichTimeout time.Duration
}

func NewWorker(provider enrich.Provider, runs *runstore.Store, log *slog.Logger, enrichTimeout time.Duration) *Worker {
	return &Worker{
		provider:      provider,
		runs:          runs,
		log:           log,
		enrichTimeout: enrichTimeout,
	}
}

// RunRecord is the persisted shape of one finished comparison: the
// deterministic result plus whatever enrichment was attached.
type RunRecord struct {
	*compare.Result
	Enrichment *enrich.Response `json:"enrichment"`
}

// Process runs the full comparison pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)

	// Phase 1: Parse both versions.
	job.SetStatus(StatusParsing, "parsing")
	dataA, dataB := job.FileData()

	docA, err := ingest.ParseUpload(job.FilenameA, bytes.NewReader(dataA))
	if err != nil {
		log.Error("parse failed", "version", "a", "filename", job.FilenameA, "error", err)
		job.AddError(fmt.Sprintf("parse %s: %s", job.FilenameA, err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	docB, err := ingest.ParseUpload(job.FilenameB, bytes.NewReader(dataB))
	if err != nil {
		log.Error("parse failed", "version", "b", "filename", job.FilenameB, "error", err)
		job.AddError(fmt.Sprintf("parse %s: %s", job.FilenameB, err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.clearFileData()

	// Phase 2: Deterministic comparison.
	job.SetStatus(StatusComparing, "comparing")
	result := compare.Run(docA, docB)
	log.Info("comparison complete",
		"modified", result.Stats.ModifiedCount,
		"added", result.Stats.AddedCount,
		"deleted", result.Stats.DeletedCount)

	// Phase 3: Optional AI enrichment. Any failure after retries falls
	// back to the empty response; the deterministic result always ships.
	job.SetStatus(StatusEnriching, "enriching")
	enrichment := w.enrichResult(ctx, log, result)

	// Phase 4: Persist the run.
	job.SetStatus(StatusStoring, "storing")
	record := RunRecord{Result: result, Enrichment: enrichment}
	blob, err := json.Marshal(record)
	if err != nil {
		log.Error("marshal run failed", "error", err)
		job.AddError(fmt.Sprintf("marshal run: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	runID := uuid.NewString()
	run := runstore.Run{
		ID:        runID,
		FilenameA: job.FilenameA,
		FilenameB: job.FilenameB,
		DocHashA:  audit.HashText(docA.Text()),
		DocHashB:  result.Audit.DocHash,
		CreatedAt: time.Now().UTC(),
		Result:    blob,
	}
	if err := w.runs.Put(run); err != nil {
		log.Error("store run failed", "run_id", runID, "error", err)
		job.AddError(fmt.Sprintf("store run: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	job.SetRunID(runID)
	job.SetStatus(StatusCompleted, "done")
	log.Info("run stored", "run_id", runID)
}

// enrichResult submits the bounded fact digest with retries. A nil
// provider means enrichment is disabled.
func (w *Worker) enrichResult(ctx context.Context, log *slog.Logger, result *compare.Result) *enrich.Response {
	if w.provider == nil {
		return enrich.Fallback()
	}

	payload := enrich.BuildPayload(result)

	var resp *enrich.Response
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, w.enrichTimeout)
		resp, lastErr = w.provider.Submit(callCtx, payload)
		cancel()
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable enrichment error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			log.Error("enrichment canceled, using fallback", "error", ctx.Err())
			return enrich.Fallback()
		}
	}
	if lastErr != nil {
		log.Error("enrichment failed, using fallback", "error", lastErr)
		return enrich.Fallback()
	}
	return resp
}
