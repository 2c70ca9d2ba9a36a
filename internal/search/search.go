package search

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/seanblong/papersearch/internal/ai"
	"github.com/seanblong/papersearch/internal/store"
	"github.com/seanblong/papersearch/pkg/models"
)

// DefaultTopK is how many chunks a question retrieves by default.
const DefaultTopK = 4

// Service retrieves the chunks most relevant to a question.
type Service struct {
	Client ai.Client
	Store  store.ChunkStore
}

// NewService creates a new retrieval service with the provided AI client and store
func NewService(client ai.Client, store store.ChunkStore) *Service {
	return &Service{
		Client: client,
		Store:  store,
	}
}

// Retrieve returns the top-k results ordered by descending relevance. Any
// failure (embedding, store, empty index) logs a warning and yields an
// empty slice; the caller treats empty results as "no grounding available".
func (s *Service) Retrieve(ctx context.Context, query string, k int) []models.SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SearchResult{}
	}
	if k <= 0 {
		k = DefaultTopK
	}

	vec, err := s.Client.Embed(query)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("query embedding failed, returning no results")
		return []models.SearchResult{}
	}

	res, err := s.Store.Search(ctx, vec, k)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("vector search failed, returning no results")
		return []models.SearchResult{}
	}
	if res == nil {
		res = []models.SearchResult{}
	}
	return res
}
