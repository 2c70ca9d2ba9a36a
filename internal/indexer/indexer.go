package indexer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/seanblong/papersearch/internal/ai"
	"github.com/seanblong/papersearch/internal/store"
	"github.com/seanblong/papersearch/pkg/models"
)

// DefaultBatchSize is how many chunks are embedded and upserted per request.
const DefaultBatchSize = 32

// Indexer embeds chunks and writes them to the vector store in batches.
type Indexer struct {
	Store     store.ChunkStore
	Client    ai.Client
	BatchSize int
}

// New creates a new Indexer instance.
func New(s store.ChunkStore, client ai.Client, batchSize int) *Indexer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Indexer{
		Store:     s,
		Client:    client,
		BatchSize: batchSize,
	}
}

// Run indexes chunks batch by batch and returns the ids written, in input
// order. Batching only groups requests; it carries no transactional
// guarantee. A failed batch aborts the run: earlier batches stay committed
// and their ids are returned alongside the error, so the caller can see the
// partial state.
func (ix *Indexer) Run(ctx context.Context, chunks []models.Chunk) ([]string, error) {
	ids := make([]string, 0, len(chunks))

	for start := 0; start < len(chunks); start += ix.BatchSize {
		end := start + ix.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vecs, err := ix.Client.EmbedBatch(texts)
		if err != nil {
			return ids, fmt.Errorf("embed batch %d-%d: %w", start, end-1, err)
		}

		if err := ix.Store.UpsertChunks(ctx, batch, vecs); err != nil {
			return ids, fmt.Errorf("upsert batch %d-%d: %w", start, end-1, err)
		}

		for _, c := range batch {
			ids = append(ids, c.ID)
		}
		log.Info().Int("from", start).Int("to", end-1).Int("total", len(chunks)).Msg("indexed batch")
	}

	return ids, nil
}
