package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/changesense/internal/export"
	"github.com/dgallion1/changesense/internal/pipeline"
	"github.com/dgallion1/changesense/internal/runstore"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := s.orchestrator.RunStore().List(limit)
	if err != nil {
		s.log.Error("list runs failed", "error", err)
		jsonError(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []runstore.Run{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if err := s.orchestrator.RunStore().Delete(runID); err != nil {
		if errors.Is(err, runstore.ErrNotFound) {
			jsonError(w, "run not found", http.StatusNotFound)
			return
		}
		s.log.Error("delete run failed", "run_id", runID, "error", err)
		jsonError(w, "failed to delete run", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"deleted": runID})
}

func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	var record pipeline.RunRecord
	if err := json.Unmarshal(run.Result, &record); err != nil {
		s.log.Error("decode stored run failed", "run_id", run.ID, "error", err)
		jsonError(w, "stored run is unreadable", http.StatusInternalServerError)
		return
	}

	page, err := export.HTMLReport(*run, &record)
	if err != nil {
		s.log.Error("render report failed", "run_id", run.ID, "error", err)
		jsonError(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*runstore.Run, bool) {
	runID := chi.URLParam(r, "runID")
	run, err := s.orchestrator.RunStore().Get(runID)
	if err != nil {
		if errors.Is(err, runstore.ErrNotFound) {
			jsonError(w, "run not found", http.StatusNotFound)
			return nil, false
		}
		s.log.Error("get run failed", "run_id", runID, "error", err)
		jsonError(w, "failed to load run", http.StatusInternalServerError)
		return nil, false
	}
	return run, true
}
