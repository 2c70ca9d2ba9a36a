package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/seanblong/papersearch/internal/ai"
	"github.com/seanblong/papersearch/pkg/models"
)

// MockAIClient implements the ai.Client interface for testing
type MockAIClient struct {
	EmbedBatchFunc func(texts []string) ([][]float32, error)
}

func (m *MockAIClient) Embed(text string) ([]float32, error) { return []float32{0.1}, nil }

func (m *MockAIClient) EmbedBatch(texts []string) ([][]float32, error) {
	if m.EmbedBatchFunc != nil {
		return m.EmbedBatchFunc(texts)
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1}
	}
	return out, nil
}

func (m *MockAIClient) Generate(context.Context, string, ai.TokenSink) (string, error) {
	return "", nil
}

func (m *MockAIClient) Dim() int { return 1 }

// MockChunkStore implements the store.ChunkStore interface for testing
type MockChunkStore struct {
	UpsertChunksFunc func(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error
	upserts          [][]models.Chunk
}

func (m *MockChunkStore) Migrate(context.Context, int) error { return nil }

func (m *MockChunkStore) UpsertChunks(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if m.UpsertChunksFunc != nil {
		if err := m.UpsertChunksFunc(ctx, chunks, vectors); err != nil {
			return err
		}
	}
	m.upserts = append(m.upserts, chunks)
	return nil
}

func (m *MockChunkStore) Search(context.Context, []float32, int) ([]models.SearchResult, error) {
	return nil, nil
}

func (m *MockChunkStore) Count(context.Context) (int, error) { return 0, nil }

func makeChunks(n int) []models.Chunk {
	chunks := make([]models.Chunk, n)
	for i := range chunks {
		chunks[i] = models.Chunk{
			ID:   fmt.Sprintf("chunk-%d", i),
			Text: fmt.Sprintf("chunk text %d", i),
		}
	}
	return chunks
}

func TestNew(t *testing.T) {
	t.Run("non-positive batch size uses the default", func(t *testing.T) {
		for _, size := range []int{0, -5} {
			ix := New(&MockChunkStore{}, &MockAIClient{}, size)
			if ix.BatchSize != DefaultBatchSize {
				t.Errorf("Expected batch size %d for input %d, got %d", DefaultBatchSize, size, ix.BatchSize)
			}
		}
	})

	t.Run("explicit batch size is kept", func(t *testing.T) {
		ix := New(&MockChunkStore{}, &MockAIClient{}, 7)
		if ix.BatchSize != 7 {
			t.Errorf("Expected batch size 7, got %d", ix.BatchSize)
		}
	})
}

func TestIndexer_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("ids come back in input order", func(t *testing.T) {
		st := &MockChunkStore{}
		ix := New(st, &MockAIClient{}, 4)

		chunks := makeChunks(10)
		ids, err := ix.Run(ctx, chunks)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(ids) != 10 {
			t.Fatalf("Expected 10 ids, got %d", len(ids))
		}
		for i, id := range ids {
			if want := fmt.Sprintf("chunk-%d", i); id != want {
				t.Errorf("Expected id %s at position %d, got %s", want, i, id)
			}
		}
	})

	t.Run("chunks are grouped into batches of the configured size", func(t *testing.T) {
		var batchSizes []int
		client := &MockAIClient{EmbedBatchFunc: func(texts []string) ([][]float32, error) {
			batchSizes = append(batchSizes, len(texts))
			out := make([][]float32, len(texts))
			for i := range out {
				out[i] = []float32{0.1}
			}
			return out, nil
		}}
		st := &MockChunkStore{}
		ix := New(st, client, 4)

		if _, err := ix.Run(ctx, makeChunks(10)); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		want := []int{4, 4, 2}
		if len(batchSizes) != len(want) {
			t.Fatalf("Expected %d embed calls, got %v", len(want), batchSizes)
		}
		for i := range want {
			if batchSizes[i] != want[i] {
				t.Errorf("Expected batch %d of size %d, got %d", i, want[i], batchSizes[i])
			}
		}
		if len(st.upserts) != 3 {
			t.Errorf("Expected 3 upsert calls, got %d", len(st.upserts))
		}
	})

	t.Run("empty input indexes nothing", func(t *testing.T) {
		st := &MockChunkStore{}
		ix := New(st, &MockAIClient{}, 4)

		ids, err := ix.Run(ctx, nil)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("Expected no ids, got %d", len(ids))
		}
		if len(st.upserts) != 0 {
			t.Errorf("Expected no upserts, got %d", len(st.upserts))
		}
	})

	t.Run("embedding failure aborts with the ids committed so far", func(t *testing.T) {
		calls := 0
		client := &MockAIClient{EmbedBatchFunc: func(texts []string) ([][]float32, error) {
			calls++
			if calls == 3 {
				return nil, errors.New("embedding backend down")
			}
			out := make([][]float32, len(texts))
			for i := range out {
				out[i] = []float32{0.1}
			}
			return out, nil
		}}
		st := &MockChunkStore{}
		ix := New(st, client, 4)

		ids, err := ix.Run(ctx, makeChunks(12))
		if err == nil {
			t.Fatal("Expected error from failed batch")
		}
		if !strings.Contains(err.Error(), "embed batch 8-11") {
			t.Errorf("Expected error to name the failed batch, got: %v", err)
		}
		// The first two batches committed; their ids are reported.
		if len(ids) != 8 {
			t.Fatalf("Expected 8 committed ids, got %d", len(ids))
		}
		for i, id := range ids {
			if want := fmt.Sprintf("chunk-%d", i); id != want {
				t.Errorf("Expected id %s at position %d, got %s", want, i, id)
			}
		}
	})

	t.Run("upsert failure aborts with the ids committed so far", func(t *testing.T) {
		calls := 0
		st := &MockChunkStore{UpsertChunksFunc: func(_ context.Context, chunks []models.Chunk, vectors [][]float32) error {
			calls++
			if calls == 2 {
				return errors.New("database unreachable")
			}
			return nil
		}}
		ix := New(st, &MockAIClient{}, 5)

		ids, err := ix.Run(ctx, makeChunks(12))
		if err == nil {
			t.Fatal("Expected error from failed upsert")
		}
		if !strings.Contains(err.Error(), "upsert batch 5-9") {
			t.Errorf("Expected error to name the failed batch, got: %v", err)
		}
		if len(ids) != 5 {
			t.Errorf("Expected 5 committed ids, got %d", len(ids))
		}
	})

	t.Run("vectors align with their chunks", func(t *testing.T) {
		var got [][]float32
		st := &MockChunkStore{UpsertChunksFunc: func(_ context.Context, chunks []models.Chunk, vectors [][]float32) error {
			if len(chunks) != len(vectors) {
				t.Errorf("Expected %d vectors for %d chunks", len(chunks), len(chunks))
			}
			got = append(got, vectors...)
			return nil
		}}
		client := &MockAIClient{EmbedBatchFunc: func(texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i := range out {
				out[i] = []float32{float32(len(texts[i]))}
			}
			return out, nil
		}}
		ix := New(st, client, 3)

		chunks := makeChunks(5)
		if _, err := ix.Run(ctx, chunks); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(got) != 5 {
			t.Fatalf("Expected 5 vectors, got %d", len(got))
		}
		for i, v := range got {
			if v[0] != float32(len(chunks[i].Text)) {
				t.Errorf("Vector %d does not correspond to its chunk", i)
			}
		}
	})
}
