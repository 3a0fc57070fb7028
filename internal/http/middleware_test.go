package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subject-tutor/internal/contextutil"
)

func TestLoggerMiddleware_CarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	var captured context.Context
	handler := middleware.RequestID(LoggerMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Context()
		contextutil.LoggerFromContext(r.Context()).InfoContext(r.Context(), "answering")
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.NotNil(t, captured)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotSame(t, slog.Default(), contextutil.LoggerFromContext(captured))
	assert.Contains(t, buf.String(), "request_id=req-42")
	assert.Contains(t, buf.String(), "path=/api/chat")
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		statusCode int
		shouldLog  bool
	}{
		{"chat request", http.MethodPost, "/api/chat", http.StatusOK, true},
		{"failed upload", http.MethodPost, "/api/documents/pdf", http.StatusRequestEntityTooLarge, true},
		{"health check skipped", http.MethodGet, "/api/health", http.StatusOK, false},
		{"versioned health check skipped", http.MethodGet, "/api/v1/health", http.StatusOK, false},
		{"unhealthy check logged", http.MethodGet, "/api/health", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req = req.WithContext(contextutil.WithLogger(req.Context(), logger))
			w := httptest.NewRecorder()
			RequestLogger(handler).ServeHTTP(w, req)

			assert.Equal(t, tt.statusCode, w.Code)
			assert.Equal(t, tt.shouldLog, buf.Len() > 0, "log output: %q", buf.String())
		})
	}
}

func TestResponseWriter_DefaultsToOK(t *testing.T) {
	var buf bytes.Buffer
	req := httptest.NewRequest(http.MethodGet, "/api/subjects", nil)
	req = req.WithContext(contextutil.WithLogger(req.Context(), slog.New(slog.NewTextHandler(&buf, nil))))

	RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"subjects":[]}`))
	})).ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), "status=200")
}

func TestCORS(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{"preflight", http.MethodOptions, "http://localhost:5173", http.StatusNoContent, "http://localhost:5173"},
		{"upload with origin", http.MethodPost, "http://localhost:5173", http.StatusCreated, "http://localhost:5173"},
		{"no origin", http.MethodDelete, "", http.StatusCreated, "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/documents", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
		})
	}
}
