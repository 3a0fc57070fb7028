package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService subject-tutor/internal/service ChatService

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"subject-tutor/internal/contextutil"
	"subject-tutor/internal/corpus"
	"subject-tutor/internal/rag"
)

// Roles of chat history entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// maxK bounds the per-request chunk override.
const maxK = 20

// ChatRequest represents a chat request in the domain layer.
type ChatRequest struct {
	Message string `validate:"required"`
	// Subject is a display name or slug; see corpus.ParseSubject.
	Subject string `validate:"required"`
	// K optionally overrides the number of retrieved chunks.
	K int
}

// ChatMessage is one entry of the conversation history.
type ChatMessage struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Subject   corpus.Subject `json:"subject"`
	Sources   []corpus.Chunk `json:"sources,omitempty"`
	Abstained bool           `json:"abstained,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ChatResponse represents a chat response in the domain layer.
type ChatResponse struct {
	Message ChatMessage
}

// ChatService answers subject questions and keeps the conversation history.
type ChatService interface {
	// Ask validates the request, answers it and appends both turns to the history.
	Ask(ctx context.Context, req ChatRequest) (ChatResponse, error)
	// History returns a copy of the conversation in order.
	History(ctx context.Context) []ChatMessage
	// QuestionsAsked returns the number of successfully answered questions.
	QuestionsAsked(ctx context.Context) int
	// Reset clears the history and the question counter.
	Reset(ctx context.Context)
}

// chatService implements ChatService.
type chatService struct {
	engine rag.Engine
	now    func() time.Time

	mu        sync.RWMutex
	history   []ChatMessage
	questions int
}

// NewChatService creates a new ChatService.
func NewChatService(engine rag.Engine) ChatService {
	return &chatService{
		engine: engine,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Ask processes a chat request.
func (s *chatService) Ask(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	// Business validation
	message := strings.TrimSpace(req.Message)
	if message == "" {
		logger.WarnContext(ctx, "empty message in chat request")
		return ChatResponse{}, invalidField("message", "cannot be empty")
	}
	subject, err := corpus.ParseSubject(req.Subject)
	if err != nil {
		logger.WarnContext(ctx, "unknown subject in chat request", "subject", req.Subject)
		return ChatResponse{}, invalidField("subject", "must be one of %s", subjectNames())
	}
	if req.K < 0 || req.K > maxK {
		return ChatResponse{}, invalidField("k", "must be between 0 and %d", maxK)
	}

	resp, err := s.engine.Ask(ctx, rag.AskRequest{
		Question: message,
		Subject:  subject,
		K:        req.K,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to answer question", "error", err)
		if errors.Is(err, rag.ErrGeneration) {
			return ChatResponse{}, externalError(err, "failed to get LLM response")
		}
		return ChatResponse{}, WrapError(err, "failed to answer question")
	}

	now := s.now()
	question := ChatMessage{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   message,
		Subject:   subject,
		Timestamp: now,
	}
	answer := ChatMessage{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   resp.Answer,
		Subject:   subject,
		Sources:   resp.Sources,
		Abstained: resp.Abstained,
		Timestamp: now,
	}

	s.mu.Lock()
	s.history = append(s.history, question, answer)
	s.questions++
	s.mu.Unlock()

	logger.InfoContext(ctx, "chat request processed successfully",
		"subject", subject,
		"message_length", len(message),
		"reply_length", len(resp.Answer),
		"sources", len(resp.Sources),
		"abstained", resp.Abstained,
	)
	return ChatResponse{Message: answer}, nil
}

// History returns a copy of the conversation.
func (s *chatService) History(_ context.Context) []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// QuestionsAsked returns the question counter.
func (s *chatService) QuestionsAsked(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questions
}

// Reset clears history and counter.
func (s *chatService) Reset(ctx context.Context) {
	s.mu.Lock()
	s.history = nil
	s.questions = 0
	s.mu.Unlock()
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "chat history reset")
}

func subjectNames() string {
	subjects := corpus.Subjects()
	names := make([]string, len(subjects))
	for i, s := range subjects {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
