package rag

import (
	"fmt"
	"strings"

	"subject-tutor/internal/corpus"
	"subject-tutor/internal/llm"
)

// FormatContext renders retrieved chunks as numbered source blocks separated by blank lines.
func FormatContext(chunks []corpus.Chunk) string {
	if len(chunks) == 0 {
		return "No relevant documents found."
	}

	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Source %d: %s", i+1, c.SourceName)
		switch c.SourceType {
		case corpus.SourceTypePDF:
			if c.PageNumber > 0 {
				fmt.Fprintf(&b, ", Page %d", c.PageNumber)
			}
		case corpus.SourceTypeURL:
			if c.URL != "" {
				fmt.Fprintf(&b, ", %s", c.URL)
			}
		}
		b.WriteString("] ")
		b.WriteString(c.Text)
	}
	return b.String()
}

// systemPrompt returns the tutor instructions for one subject.
func systemPrompt(subject corpus.Subject) string {
	return fmt.Sprintf(`You are a specialized academic tutor for the subject: %s.
Use the provided context to answer the user's question accurately.
RULES:
1. ONLY use information from the provided context.
2. If the context is insufficient to answer the question, strictly respond with: "%s"
3. Do not use outside knowledge.
4. Keep the tone academic, clear, and concise.
5. If relevant, mention technical terms but explain them simply if they appear in the context.
6. Cite sources by their number, e.g. [Source 2].`, subject, AbstainAnswer)
}

// BuildMessages assembles the system and user messages for one question.
func BuildMessages(question string, subject corpus.Subject, chunks []corpus.Chunk) []llm.Message {
	user := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", FormatContext(chunks), question)
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt(subject)},
		{Role: llm.RoleUser, Content: user},
	}
}
