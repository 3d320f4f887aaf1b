package runstore

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(id string, createdAt time.Time) Run {
	return Run{
		ID:        id,
		FilenameA: "v1.docx",
		FilenameB: "v2.docx",
		DocHashA:  "hash-a",
		DocHashB:  "hash-b",
		CreatedAt: createdAt,
		Result:    json.RawMessage(`{"stats":{"modified_count":2}}`),
	}
}

func TestStore_PutGet(t *testing.T) {
	s := openTemp(t)
	in := sampleRun("run-1", time.Now())
	if err := s.Put(in); err != nil {
		t.Fatalf("put: %v", err)
	}

	out, err := s.Get("run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.FilenameA != "v1.docx" || out.FilenameB != "v2.docx" {
		t.Errorf("unexpected filenames %q / %q", out.FilenameA, out.FilenameB)
	}
	if out.DocHashB != "hash-b" {
		t.Errorf("unexpected hash %q", out.DocHashB)
	}
	if string(out.Result) != string(in.Result) {
		t.Errorf("result blob mismatch:\n got %s\nwant %s", out.Result, in.Result)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := openTemp(t)
	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_PutReplaces(t *testing.T) {
	s := openTemp(t)
	run := sampleRun("run-1", time.Now())
	if err := s.Put(run); err != nil {
		t.Fatalf("put: %v", err)
	}
	run.Result = json.RawMessage(`{"stats":{"modified_count":9}}`)
	if err := s.Put(run); err != nil {
		t.Fatalf("re-put: %v", err)
	}

	out, err := s.Get("run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(out.Result) != string(run.Result) {
		t.Errorf("expected replaced blob, got %s", out.Result)
	}

	runs, err := s.List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected single row after replace, got %d", len(runs))
	}
}

func TestStore_ListNewestFirstWithoutBlobs(t *testing.T) {
	s := openTemp(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-old", "run-mid", "run-new"} {
		if err := s.Put(sampleRun(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	runs, err := s.List(2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected limit applied, got %d runs", len(runs))
	}
	if runs[0].ID != "run-new" || runs[1].ID != "run-mid" {
		t.Errorf("unexpected order: %s, %s", runs[0].ID, runs[1].ID)
	}
	if len(runs[0].Result) != 0 {
		t.Error("list must not carry result blobs")
	}
}

func TestStore_Delete(t *testing.T) {
	s := openTemp(t)
	if err := s.Put(sampleRun("run-1", time.Now())); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Delete("run-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get("run-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected run gone, got %v", err)
	}
	if err := s.Delete("run-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
