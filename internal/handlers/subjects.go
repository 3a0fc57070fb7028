package handlers

import (
	"context"
	"net/http"

	"subject-tutor/internal/indexer"
	"subject-tutor/internal/service"
)

// StatsProvider reports per-subject collection statistics. *indexer.Pipeline satisfies it.
type StatsProvider interface {
	AllSubjectStats(ctx context.Context) ([]indexer.SubjectStats, error)
}

// SubjectsHandler serves the subject list with collection statistics.
type SubjectsHandler struct {
	stats       StatsProvider
	chatService service.ChatService
}

// NewSubjectsHandler creates a new SubjectsHandler.
func NewSubjectsHandler(stats StatsProvider, chatService service.ChatService) *SubjectsHandler {
	return &SubjectsHandler{
		stats:       stats,
		chatService: chatService,
	}
}

// SubjectsResponse lists every subject.
//
// swagger:model SubjectsResponse
type SubjectsResponse struct {
	Subjects       []indexer.SubjectStats `json:"subjects"`
	QuestionsAsked int                    `json:"questions_asked"`
}

// ServeHTTP returns subject statistics.
//
// swagger:route GET /api/v1/subjects listSubjects
//
// # Subjects and statistics
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Every subject with document and chunk counts
//	  schema:
//	    "$ref": "#/definitions/SubjectsResponse"
func (h *SubjectsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.stats.AllSubjectStats(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to compute subject statistics")
		return
	}
	writeJSON(w, ctx, http.StatusOK, SubjectsResponse{
		Subjects:       stats,
		QuestionsAsked: h.chatService.QuestionsAsked(ctx),
	})
}
