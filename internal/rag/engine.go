package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_answer_generator.go -package=mocks subject-tutor/internal/rag AnswerGenerator
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks subject-tutor/internal/rag Engine

import (
	"context"
	"errors"
	"fmt"

	"subject-tutor/internal/contextutil"
	"subject-tutor/internal/corpus"
	"subject-tutor/internal/llm"
	"subject-tutor/internal/storage"
)

// ErrGeneration wraps failures of the answer generator.
var ErrGeneration = errors.New("answer generation failed")

// AnswerGenerator produces a reply for a prepared message list.
// *llm.Client satisfies it.
type AnswerGenerator interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// Engine provides RAG (Retrieval-Augmented Generation) functionality.
type Engine interface {
	// Ask answers a question using RAG by retrieving relevant chunks and generating an answer.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
	// Retrieve returns the ranked chunks for a question without generating an answer.
	Retrieve(ctx context.Context, req AskRequest) ([]corpus.Chunk, error)
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	chunks    storage.ChunkStore
	generator AnswerGenerator
	topK      int
}

// NewEngine creates a new RAG engine. topK is used when a request does not set K.
func NewEngine(chunks storage.ChunkStore, generator AnswerGenerator, topK int) Engine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &ragEngine{
		chunks:    chunks,
		generator: generator,
		topK:      topK,
	}
}

// Retrieve snapshots the subject's chunks and ranks them against the question.
func (e *ragEngine) Retrieve(ctx context.Context, req AskRequest) ([]corpus.Chunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	k := req.K
	if k <= 0 {
		k = e.topK
	}

	snapshot, err := e.chunks.ListBySubject(ctx, req.Subject)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load chunks", "subject", req.Subject, "error", err)
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	results := Retrieve(req.Question, snapshot, req.Subject, k)

	logger.InfoContext(ctx, "retrieval completed",
		"subject", req.Subject,
		"candidates", len(snapshot),
		"results_count", len(results),
		"k", k,
	)
	if len(results) > 0 {
		logger.DebugContext(ctx, "top retrieval result", "chunk_id", results[0].ID, "score", results[0].Score)
	}
	return results, nil
}

// Ask answers a question using RAG.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	logger.InfoContext(ctx, "RAG query started",
		"question_length", len(req.Question),
		"subject", req.Subject,
		"k", req.K,
	)

	sources, err := e.Retrieve(ctx, req)
	if err != nil {
		return AskResponse{}, err
	}

	if len(sources) == 0 {
		logger.InfoContext(ctx, "no relevant chunks found, abstaining")
		return AskResponse{
			Answer:    AbstainAnswer,
			Sources:   []corpus.Chunk{},
			Abstained: true,
			Reason:    ReasonNoRelevantContext,
		}, nil
	}

	messages := BuildMessages(req.Question, req.Subject, sources)
	logger.DebugContext(ctx, "LLM messages", "system_prompt", messages[0].Content, "user_message_length", len(messages[1].Content))

	answer, err := e.generator.ChatWithMessages(ctx, messages, llm.ChatParams{})
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return AskResponse{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	if answer == "" {
		answer = AbstainAnswer
	}

	logger.InfoContext(ctx, "RAG query completed", "chunks_used", len(sources), "answer_length", len(answer))

	return AskResponse{
		Answer:  answer,
		Sources: sources,
	}, nil
}
