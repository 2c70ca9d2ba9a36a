// Package rag ties retrieval, prompt assembly, and answer generation into
// one question-answering pipeline.
package rag

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/seanblong/papersearch/internal/ai"
	"github.com/seanblong/papersearch/internal/prompt"
	"github.com/seanblong/papersearch/pkg/models"
)

// Retriever yields the chunks most relevant to a question, best first.
// An empty result means no grounding is available, not an error.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) []models.SearchResult
}

// Service answers questions against the paper index.
type Service struct {
	Retriever Retriever
	Client    ai.Client
	TopK      int
}

func NewService(r Retriever, c ai.Client, topK int) *Service {
	if topK <= 0 {
		topK = 4
	}
	return &Service{Retriever: r, Client: c, TopK: topK}
}

// Answer runs retrieval, prompt assembly, and generation for one question.
// The returned Prediction never panics the interactive surface: on failure
// Answer holds a user-facing apology and Failure carries the typed reason,
// which callers must inspect instead of matching the answer text. Tokens
// stream to sink when one is supplied.
func (s *Service) Answer(ctx context.Context, question string, sink ai.TokenSink) models.Prediction {
	results := s.Retriever.Retrieve(ctx, question, s.TopK)
	renderedContext := prompt.Context(results)

	if err := ctx.Err(); err != nil {
		return failed(models.FailureRetrieval, err, results, renderedContext)
	}

	answer, err := s.Client.Generate(ctx, prompt.Render(question, results), sink)
	if err != nil {
		log.Warn().Err(err).Str("question", question).Msg("generation failed")
		return failed(models.FailureGeneration, err, results, renderedContext)
	}

	return models.Prediction{
		Answer:  answer,
		Sources: results,
		Context: renderedContext,
	}
}

func failed(kind models.FailureKind, err error, sources []models.SearchResult, context string) models.Prediction {
	return models.Prediction{
		Answer:  fmt.Sprintf("Sorry, I encountered an error: %v", err),
		Sources: sources,
		Context: context,
		Failure: &models.Failure{Kind: kind, Message: err.Error()},
	}
}
