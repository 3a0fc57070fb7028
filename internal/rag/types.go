package rag

import "subject-tutor/internal/corpus"

// AbstainAnswer is returned verbatim when the context cannot answer the question.
const AbstainAnswer = "I'm not sure from the provided context."

// Reasons reported when the engine answers without consulting the model.
const (
	ReasonNoRelevantContext = "no_relevant_context"
)

// AskRequest represents a RAG query request.
type AskRequest struct {
	// Question is the user's question to answer.
	Question string `json:"question"`
	// Subject restricts retrieval to one subject's chunks.
	Subject corpus.Subject `json:"subject"`
	// K optionally overrides the number of chunks handed to the model.
	K int `json:"k,omitempty"`
}

// AskResponse represents the response from a RAG query.
type AskResponse struct {
	// Answer is the generated answer, or AbstainAnswer.
	Answer string `json:"answer"`
	// Sources are scored copies of the chunks the answer was grounded on, best first.
	Sources []corpus.Chunk `json:"sources"`
	// Abstained is true when no model call was made.
	Abstained bool `json:"abstained,omitempty"`
	// Reason explains an abstention.
	Reason string `json:"reason,omitempty"`
}
