package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/changesense/internal/config"
	"github.com/dgallion1/changesense/internal/pipeline"
	"github.com/dgallion1/changesense/internal/runstore"
)

const testAPIKey = "test-api-key"

func newTestServer(t *testing.T) (*Server, *pipeline.Orchestrator) {
	t.Helper()

	runs, err := runstore.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open run store: %v", err)
	}
	t.Cleanup(func() { runs.Close() })

	cfg := config.Config{
		APIKey:         testAPIKey,
		WorkerCount:    1,
		MaxQueueSize:   8,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
		EnrichTimeout:  time.Second,
		DBPath:         "unused",
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, nil, runs, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	return NewServer(orch, log, cfg), orch
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	return req
}

func multipartUpload(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".txt")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

func TestHealthIsPublic(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with bad token, got %d", rec.Code)
	}
}

func TestCompareFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartUpload(t, map[string]string{
		"version_a": "1. Payment. Buyer shall pay $500 at Closing.",
		"version_b": "1. Payment. Buyer shall pay $750 at Closing.",
	})
	req := authed(httptest.NewRequest(http.MethodPost, "/api/compare", body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode accept body: %v", err)
	}
	if accepted.JobID == "" || !strings.Contains(accepted.PollURL, accepted.JobID) {
		t.Fatalf("unexpected accept body %+v", accepted)
	}

	// Poll until the worker finishes.
	var snap pipeline.JobSnapshot
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec = httptest.NewRecorder()
		srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, accepted.PollURL, nil)))
		if rec.Code != http.StatusOK {
			t.Fatalf("status poll returned %d", rec.Code)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, last snapshot %+v", snap)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("job failed: %+v", snap)
	}
	if snap.RunID == "" {
		t.Fatal("completed job carries no run id")
	}

	// The stored run is retrievable, renderable, and deletable.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/runs/"+snap.RunID, nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("get run returned %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/runs/"+snap.RunID+"/report", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("report returned %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected report content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "ChangeSense Verification Report") {
		t.Error("report missing title")
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/runs", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("list runs returned %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), snap.RunID) {
		t.Error("run list missing stored run")
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodDelete, "/api/runs/"+snap.RunID, nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete run returned %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/runs/"+snap.RunID, nil)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestCompareRejectsUnsupportedType(t *testing.T) {
	srv, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("version_a", "contract.exe")
	fw.Write([]byte("binary"))
	fw, _ = mw.CreateFormFile("version_b", "v2.txt")
	fw.Write([]byte("text"))
	mw.Close()

	req := authed(httptest.NewRequest(http.MethodPost, "/api/compare", &body))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported type, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unsupported file type") {
		t.Errorf("unexpected error body %q", rec.Body.String())
	}
}

func TestCompareRequiresBothVersions(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartUpload(t, map[string]string{
		"version_a": "only one side",
	})
	req := authed(httptest.NewRequest(http.MethodPost, "/api/compare", body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing file, got %d", rec.Code)
	}
}

func TestStatusUnknownJob(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/compare/unknown/status", nil)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"contract.docx", "contract.docx"},
		{"../../etc/passwd", "passwd"},
		{"dir/file.txt", "file.txt"},
		{"", "unnamed"},
	}
	for _, c := range cases {
		if got := sanitizeFilename(c.in); got != c.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
