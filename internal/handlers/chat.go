package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"subject-tutor/internal/contextutil"
	"subject-tutor/internal/corpus"
	"subject-tutor/internal/service"
)

// ChatHandler handles HTTP requests for chat.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// ChatRequest represents the HTTP request payload for chat.
//
// swagger:model ChatRequest
type ChatRequest struct {
	// The student's question
	Message string `json:"message"`

	// Subject display name or slug (e.g. "DBMS", "ml")
	Subject string `json:"subject"`

	// Optional number of chunks to retrieve (1-20, default 4)
	K int `json:"k,omitempty"`
}

// SourceResponse is a cited chunk in the HTTP response.
//
// swagger:model SourceResponse
type SourceResponse struct {
	SourceName string            `json:"source_name"`
	SourceType corpus.SourceType `json:"source_type"`
	PageNumber int               `json:"page_number,omitempty"`
	URL        string            `json:"url,omitempty"`
	Text       string            `json:"text"`
	Score      float64           `json:"score"`
}

// MessageResponse is one chat message.
//
// swagger:model MessageResponse
type MessageResponse struct {
	ID        string           `json:"id"`
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Subject   corpus.Subject   `json:"subject"`
	Sources   []SourceResponse `json:"sources,omitempty"`
	Abstained bool             `json:"abstained,omitempty"`
	Timestamp string           `json:"timestamp"`
}

// ChatResponse represents the HTTP response payload for chat.
//
// swagger:model ChatResponse
type ChatResponse struct {
	Message MessageResponse `json:"message"`
}

// HistoryResponse lists the conversation so far.
//
// swagger:model HistoryResponse
type HistoryResponse struct {
	Messages []MessageResponse `json:"messages"`
}

// ServeHTTP handles HTTP requests for chat.
//
// swagger:route POST /api/v1/chat askQuestion
//
// # Ask a subject question
//
// Retrieves the best matching chunks for the subject and answers from them.
// When nothing matches, the answer abstains and no sources are returned.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Assistant message with cited sources
//	  schema:
//	    "$ref": "#/definitions/ChatResponse"
//	'400':
//	  description: Empty message, unknown subject or k out of range
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: LLM service error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svcResp, err := h.chatService.Ask(ctx, service.ChatRequest{
		Message: req.Message,
		Subject: req.Subject,
		K:       req.K,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process chat request")
		return
	}

	writeJSON(w, ctx, http.StatusOK, ChatResponse{Message: toMessageResponse(svcResp.Message)})
}

// History returns the conversation history.
//
// swagger:route GET /api/v1/chat/history chatHistory
//
// # Conversation history
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Messages in order
//	  schema:
//	    "$ref": "#/definitions/HistoryResponse"
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	history := h.chatService.History(ctx)
	messages := make([]MessageResponse, len(history))
	for i, m := range history {
		messages[i] = toMessageResponse(m)
	}
	writeJSON(w, ctx, http.StatusOK, HistoryResponse{Messages: messages})
}

func toMessageResponse(m service.ChatMessage) MessageResponse {
	var sources []SourceResponse
	for _, c := range m.Sources {
		sources = append(sources, SourceResponse{
			SourceName: c.SourceName,
			SourceType: c.SourceType,
			PageNumber: c.PageNumber,
			URL:        c.URL,
			Text:       c.Text,
			Score:      c.Score,
		})
	}
	return MessageResponse{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		Subject:   m.Subject,
		Sources:   sources,
		Abstained: m.Abstained,
		Timestamp: m.Timestamp.Format(time.RFC3339),
	}
}
