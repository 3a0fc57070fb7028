package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"subject-tutor/internal/library"
)

type fakeLoader struct {
	calls   int
	sources []library.Source
	err     error
}

func (f *fakeLoader) IngestAll(_ context.Context, sources []library.Source) (library.Report, error) {
	f.calls++
	f.sources = sources
	return library.Report{Succeeded: len(sources)}, f.err
}

type fakeClearer struct {
	cleared bool
	err     error
}

func (f *fakeClearer) ClearAll(context.Context) error {
	f.cleared = f.err == nil
	return f.err
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return path
}

func newSyncIndexHandler(loader LibraryIngester, clearer Clearer, manifest string) *IndexHandler {
	h := NewIndexHandler(loader, clearer, manifest)
	h.run = func(f func()) { f() }
	return h
}

func TestIndexHandler_ServeHTTP(t *testing.T) {
	manifest := writeManifest(t, "documents:\n  - subject: dbms\n    path: a.pdf\n  - subject: ml\n    url: https://example.com/ml\n")

	tests := []struct {
		name        string
		method      string
		query       string
		manifest    string
		clearErr    error
		wantStatus  int
		wantCalls   int
		wantCleared bool
	}{
		{name: "accepted", method: http.MethodPost, manifest: manifest, wantStatus: http.StatusAccepted, wantCalls: 1},
		{name: "force clears first", method: http.MethodPost, query: "?force=true", manifest: manifest, wantStatus: http.StatusAccepted, wantCalls: 1, wantCleared: true},
		{name: "clear failure skips ingestion", method: http.MethodPost, query: "?force=true", manifest: manifest, clearErr: errors.New("locked"), wantStatus: http.StatusAccepted},
		{name: "method not allowed", method: http.MethodGet, manifest: manifest, wantStatus: http.StatusMethodNotAllowed},
		{name: "no manifest configured", method: http.MethodPost, wantStatus: http.StatusNotFound},
		{name: "invalid manifest", method: http.MethodPost, manifest: writeManifest(t, "documents:\n  - subject: nope\n    path: a.pdf\n"), wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &fakeLoader{}
			clearer := &fakeClearer{err: tt.clearErr}
			handler := newSyncIndexHandler(loader, clearer, tt.manifest)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, "/api/v1/library/index"+tt.query, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if loader.calls != tt.wantCalls {
				t.Errorf("IngestAll() calls = %d, want %d", loader.calls, tt.wantCalls)
			}
			if clearer.cleared != tt.wantCleared {
				t.Errorf("cleared = %v, want %v", clearer.cleared, tt.wantCleared)
			}
			if tt.wantStatus == http.StatusAccepted {
				var resp IndexResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.Status != "accepted" || resp.Sources != 2 {
					t.Errorf("response = %+v", resp)
				}
			}
		})
	}
}
