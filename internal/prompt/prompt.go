// Package prompt renders retrieved chunks and a question into the grounding
// prompt sent to the chat model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/seanblong/papersearch/pkg/models"
)

// NoContextSentinel replaces the context when retrieval produced nothing,
// so the model is told explicitly rather than handed an empty string.
const NoContextSentinel = "No relevant documents found in the knowledge base."

const template = `You are a research assistant specializing in academic papers. Your task is to answer questions using the provided research paper excerpts.

Research Paper Context:
%s

User Question: %s

Guidelines:
1. Base your answer primarily on the provided context
2. If the context is insufficient, explicitly state what information is missing
3. When citing findings, mention the paper title if available in the metadata
4. Explain technical concepts clearly for general understanding
5. Provide specific examples or evidence from the papers when possible
6. If multiple papers discuss the same topic, synthesize their perspectives

Detailed Answer:`

var separator = strings.Repeat("=", 50)

// Context concatenates result texts in retrieval order, each annotated with
// its relevance score to three decimals and closed with a separator line.
func Context(results []models.SearchResult) string {
	if len(results) == 0 {
		return NoContextSentinel
	}

	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "[Relevance: %.3f]\nTitle: %s\n%s\n%s\n", r.Score, r.Chunk.Paper.Title, r.Chunk.Text, separator)
	}
	return b.String()
}

// Render fills the fixed template with the assembled context and question.
func Render(question string, results []models.SearchResult) string {
	return fmt.Sprintf(template, Context(results), question)
}
