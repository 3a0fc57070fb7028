package handlers

import (
	"context"
	"net/http"

	"subject-tutor/internal/contextutil"
	"subject-tutor/internal/library"
)

// LibraryIngester ingests manifest sources. *library.Loader satisfies it.
type LibraryIngester interface {
	IngestAll(ctx context.Context, sources []library.Source) (library.Report, error)
}

// Clearer empties the document collection.
type Clearer interface {
	ClearAll(ctx context.Context) error
}

// IndexHandler handles HTTP requests for re-ingesting the seed library.
type IndexHandler struct {
	loader       LibraryIngester
	clearer      Clearer
	manifestPath string
	run          func(func())
}

// NewIndexHandler creates a new IndexHandler. An empty manifestPath disables the endpoint.
func NewIndexHandler(loader LibraryIngester, clearer Clearer, manifestPath string) *IndexHandler {
	return &IndexHandler{
		loader:       loader,
		clearer:      clearer,
		manifestPath: manifestPath,
		run:          func(f func()) { go f() },
	}
}

// IndexResponse represents the response from the index endpoint.
//
// swagger:model IndexResponse
type IndexResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Sources int    `json:"sources"`
}

// ServeHTTP handles HTTP requests for re-ingesting the library manifest.
//
// swagger:route POST /api/v1/library/index indexLibrary
//
// # Re-ingest the seed library
//
// The manifest is validated synchronously and ingested in the background.
// Use `force=true` to clear the collection first.
//
// ---
// produces:
// - application/json
// responses:
//
//	'202':
//	  description: Ingestion started
//	  schema:
//	    "$ref": "#/definitions/IndexResponse"
//	'400':
//	  description: Invalid manifest
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'404':
//	  description: No manifest configured
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if h.manifestPath == "" {
		writeError(w, http.StatusNotFound, "No library manifest configured")
		return
	}

	sources, err := library.LoadManifest(h.manifestPath)
	if err != nil {
		logger.WarnContext(ctx, "failed to load manifest", "path", h.manifestPath, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	force := r.URL.Query().Get("force") == "true"
	if force {
		logger.InfoContext(ctx, "force re-ingestion triggered via API", "sources", len(sources))
	} else {
		logger.InfoContext(ctx, "re-ingestion triggered via API", "sources", len(sources))
	}

	// Detach from the request so ingestion outlives the response.
	indexCtx := context.WithoutCancel(ctx)
	h.run(func() {
		if force {
			if err := h.clearer.ClearAll(indexCtx); err != nil {
				logger.ErrorContext(indexCtx, "failed to clear existing documents", "error", err)
				return
			}
		}
		if _, err := h.loader.IngestAll(indexCtx, sources); err != nil {
			logger.ErrorContext(indexCtx, "re-ingestion completed with errors", "error", err)
		} else {
			logger.InfoContext(indexCtx, "re-ingestion completed successfully")
		}
	})

	message := "Ingestion started. Check server logs for progress."
	if force {
		message = "Force re-ingestion started (all existing documents cleared). Check server logs for progress."
	}
	writeJSON(w, ctx, http.StatusAccepted, IndexResponse{
		Message: message,
		Status:  "accepted",
		Sources: len(sources),
	})
}
