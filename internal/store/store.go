package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/seanblong/papersearch/pkg/models"
)

// Store keeps paper chunks and their embeddings in Postgres with pgvector.
type Store struct {
	pool *pgxpool.Pool
}

// ChunkStore defines the methods that the Store must implement.
type ChunkStore interface {
	Migrate(ctx context.Context, dim int) error
	UpsertChunks(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error
	Search(ctx context.Context, vec []float32, k int) ([]models.SearchResult, error)
	Count(ctx context.Context) (int, error)
}

// New creates a new Store instance connected to the given database URL.
func New(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{pool: p}, nil
}

func (s *Store) Close() { s.pool.Close() }

// Migrate applies necessary database migrations and schema setup.
func (s *Store) Migrate(ctx context.Context, dim int) error {
	q := `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS paper_chunks (
  id             TEXT PRIMARY KEY,
  paper_id       TEXT NOT NULL DEFAULT '',
  chunk_index    INT NOT NULL DEFAULT 0,
  title          TEXT NOT NULL DEFAULT '',
  authors        TEXT[] NOT NULL DEFAULT '{}',
  published      TEXT NOT NULL DEFAULT '',
  url            TEXT NOT NULL DEFAULT '',
  url_pdf        TEXT NOT NULL DEFAULT '',
  venue          TEXT NOT NULL DEFAULT '',
  citation_count INT NOT NULL DEFAULT 0,
  content        TEXT NOT NULL,
  embedding      vector(%d),
  created_at     TIMESTAMP WITH TIME ZONE DEFAULT now()
);

CREATE INDEX IF NOT EXISTS paper_chunks_paper_idx
  ON paper_chunks (paper_id);

CREATE INDEX IF NOT EXISTS paper_chunks_embedding_idx
  ON paper_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`
	_, err := s.pool.Exec(ctx, fmt.Sprintf(q, dim))
	return err
}

// UpsertChunks writes one batch of chunks and their vectors in a single
// round trip. Chunk ids are deterministic, so re-indexing updates in place.
func (s *Store) UpsertChunks(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}

	const q = `
		INSERT INTO paper_chunks (
			id, paper_id, chunk_index, title, authors, published,
			url, url_pdf, venue, citation_count, content, embedding, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())
		ON CONFLICT (id) DO UPDATE SET
			title          = EXCLUDED.title,
			authors        = EXCLUDED.authors,
			published      = EXCLUDED.published,
			url            = EXCLUDED.url,
			url_pdf        = EXCLUDED.url_pdf,
			venue          = EXCLUDED.venue,
			citation_count = EXCLUDED.citation_count,
			content        = EXCLUDED.content,
			embedding      = EXCLUDED.embedding,
			created_at     = paper_chunks.created_at;`

	b := &pgx.Batch{}
	for i, c := range chunks {
		authors := c.Paper.Authors
		if authors == nil {
			authors = []string{}
		}
		b.Queue(q,
			c.ID, c.Paper.ID, c.Index, c.Paper.Title, authors, c.Paper.Published,
			c.Paper.URL, c.Paper.PDFURL, c.Paper.Venue, c.Paper.CitationCount,
			c.Text, pgvector.NewVector(vectors[i]),
		)
	}
	return s.pool.SendBatch(ctx, b).Close()
}

// Search returns the k nearest chunks by cosine similarity, highest score
// first. Score is 1 - cosine distance, clamped into [0, 1] by the query.
func (s *Store) Search(ctx context.Context, vec []float32, k int) ([]models.SearchResult, error) {
	const q = `
SELECT id, paper_id, chunk_index, title, authors, published,
       url, url_pdf, venue, citation_count, content, created_at,
       LEAST(GREATEST(1.0 - (embedding <=> $1), 0), 1) AS score
FROM paper_chunks
WHERE embedding IS NOT NULL
ORDER BY embedding <=> $1
LIMIT $2;`

	rows, err := s.pool.Query(ctx, q, pgvector.NewVector(vec), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SearchResult
	for rows.Next() {
		var c models.Chunk
		var score float64
		if err := rows.Scan(
			&c.ID, &c.Paper.ID, &c.Index, &c.Paper.Title, &c.Paper.Authors, &c.Paper.Published,
			&c.Paper.URL, &c.Paper.PDFURL, &c.Paper.Venue, &c.Paper.CitationCount,
			&c.Text, &c.CreatedAt, &score,
		); err != nil {
			return nil, err
		}
		out = append(out, models.SearchResult{Chunk: c, Score: score})
	}
	return out, rows.Err()
}

// Count reports how many chunks are indexed. Used as a connectivity and
// non-empty-index check before starting the interactive loop.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, "SELECT count(*) FROM paper_chunks").Scan(&n)
	return n, err
}

// Ping checks the database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
