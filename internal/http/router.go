package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"subject-tutor/internal/handlers"
	"subject-tutor/internal/service"
)

// Collection is the document store as seen by the HTTP layer.
// *indexer.Pipeline satisfies it.
type Collection interface {
	handlers.DocumentIngester
	handlers.StatsProvider
}

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService    service.ChatService
	Collection     Collection
	Fetcher        handlers.WebFetcher
	Library        handlers.LibraryIngester
	ManifestPath   string
	DB             handlers.Pinger
	MaxUploadBytes int64
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	documentsHandler := handlers.NewDocumentsHandler(deps.Collection, deps.Fetcher, deps.ChatService, deps.MaxUploadBytes)
	subjectsHandler := handlers.NewSubjectsHandler(deps.Collection, deps.ChatService)
	indexHandler := handlers.NewIndexHandler(deps.Library, deps.Collection, deps.ManifestPath)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/chat", chatHandler)
			r.Get("/chat/history", chatHandler.History)

			r.Route("/documents", func(r chi.Router) {
				r.Get("/", documentsHandler.List)
				r.Delete("/", documentsHandler.Reset)
				r.Post("/pdf", documentsHandler.UploadPDF)
				r.Post("/url", documentsHandler.AddURL)
			})

			r.Method(http.MethodGet, "/subjects", subjectsHandler)
			r.Method(http.MethodPost, "/library/index", indexHandler)
		})
	})

	return r
}
