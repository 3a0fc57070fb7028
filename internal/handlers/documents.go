package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"subject-tutor/internal/contextutil"
	"subject-tutor/internal/corpus"
	"subject-tutor/internal/extract"
	"subject-tutor/internal/service"
)

// DocumentIngester stores extracted documents. *indexer.Pipeline satisfies it.
type DocumentIngester interface {
	IngestPDF(ctx context.Context, name string, subject corpus.Subject, pages []corpus.Page) (corpus.DocumentMetadata, error)
	IngestURL(ctx context.Context, rawURL string, subject corpus.Subject, text string) (corpus.DocumentMetadata, error)
	Documents(ctx context.Context, subject corpus.Subject) ([]corpus.DocumentMetadata, error)
	ClearAll(ctx context.Context) error
}

// WebFetcher downloads a web page. *extract.Fetcher satisfies it.
type WebFetcher interface {
	Fetch(ctx context.Context, rawURL string) (extract.WebPage, error)
}

// DocumentsHandler handles uploads, listing and reset of the document collection.
type DocumentsHandler struct {
	ingester       DocumentIngester
	fetcher        WebFetcher
	chatService    service.ChatService
	maxUploadBytes int64
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(ingester DocumentIngester, fetcher WebFetcher, chatService service.ChatService, maxUploadBytes int64) *DocumentsHandler {
	return &DocumentsHandler{
		ingester:       ingester,
		fetcher:        fetcher,
		chatService:    chatService,
		maxUploadBytes: maxUploadBytes,
	}
}

// AddURLRequest is the payload for adding a web page.
//
// swagger:model AddURLRequest
type AddURLRequest struct {
	URL     string `json:"url"`
	Subject string `json:"subject"`
}

// DocumentListResponse lists stored documents.
//
// swagger:model DocumentListResponse
type DocumentListResponse struct {
	Documents []corpus.DocumentMetadata `json:"documents"`
}

// ResetResponse confirms a reset.
//
// swagger:model ResetResponse
type ResetResponse struct {
	Status string `json:"status"`
}

// UploadPDF ingests a multipart PDF upload.
//
// swagger:route POST /api/v1/documents/pdf uploadPDF
//
// # Upload a PDF
//
// Multipart form with a `file` part and a `subject` field.
//
// ---
// consumes:
// - multipart/form-data
// produces:
// - application/json
// responses:
//
//	'201':
//	  description: Stored document
//	'400':
//	  description: Missing file, unknown subject or unreadable PDF
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'413':
//	  description: Upload too large
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *DocumentsHandler) UploadPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	subject, err := corpus.ParseSubject(r.FormValue("subject"))
	if err != nil {
		handleServiceError(w, ctx, err, "Invalid subject")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "Only PDF files are supported")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	pages, err := extract.ExtractPDF(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		logger.WarnContext(ctx, "failed to extract pdf", "file", header.Filename, "error", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Could not read PDF: %v", err))
		return
	}

	doc, err := h.ingester.IngestPDF(ctx, filepath.Base(header.Filename), subject, pages)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to store document")
		return
	}
	writeJSON(w, ctx, http.StatusCreated, doc)
}

// AddURL fetches a web page and ingests its text.
//
// swagger:route POST /api/v1/documents/url addURL
//
// # Add a web page
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'201':
//	  description: Stored document
//	'400':
//	  description: Invalid URL, unknown subject or unsupported content
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: The page could not be fetched
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *DocumentsHandler) AddURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AddURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	subject, err := corpus.ParseSubject(req.Subject)
	if err != nil {
		handleServiceError(w, ctx, err, "Invalid subject")
		return
	}
	if _, err := extract.ValidateURL(req.URL); err != nil {
		handleServiceError(w, ctx, err, "Invalid URL")
		return
	}

	page, err := h.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		if !errors.Is(err, extract.ErrUnsupportedContent) && !errors.Is(err, extract.ErrContentTooLarge) {
			err = errors.Join(service.ErrExternalService, err)
		}
		handleServiceError(w, ctx, err, "Failed to fetch URL")
		return
	}

	doc, err := h.ingester.IngestURL(ctx, page.URL, subject, page.Text)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to store document")
		return
	}
	writeJSON(w, ctx, http.StatusCreated, doc)
}

// List returns stored documents, optionally filtered by ?subject=.
//
// swagger:route GET /api/v1/documents listDocuments
//
// # List documents
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Stored documents in ingestion order
//	  schema:
//	    "$ref": "#/definitions/DocumentListResponse"
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var subject corpus.Subject
	if raw := r.URL.Query().Get("subject"); raw != "" {
		parsed, err := corpus.ParseSubject(raw)
		if err != nil {
			handleServiceError(w, ctx, err, "Invalid subject")
			return
		}
		subject = parsed
	}

	docs, err := h.ingester.Documents(ctx, subject)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list documents")
		return
	}
	if docs == nil {
		docs = []corpus.DocumentMetadata{}
	}
	writeJSON(w, ctx, http.StatusOK, DocumentListResponse{Documents: docs})
}

// Reset removes every document and chunk and clears the chat history.
//
// swagger:route DELETE /api/v1/documents resetDocuments
//
// # Reset the collection
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Collection and history cleared
//	  schema:
//	    "$ref": "#/definitions/ResetResponse"
func (h *DocumentsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.ingester.ClearAll(ctx); err != nil {
		handleServiceError(w, ctx, err, "Failed to clear documents")
		return
	}
	h.chatService.Reset(ctx)
	writeJSON(w, ctx, http.StatusOK, ResetResponse{Status: "cleared"})
}
