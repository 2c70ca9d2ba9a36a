package chunker

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/seanblong/papersearch/pkg/models"
)

const (
	// DefaultChunkSize bounds a chunk's length in bytes, overlap included.
	DefaultChunkSize = 1200
	// DefaultChunkOverlap is how much of a chunk's tail is repeated at the
	// start of the next one, measured on the final text.
	DefaultChunkOverlap = 200
)

// DefaultSeparators are tried in order of preference: paragraph break, line
// break, sentence end, bare period, single space.
func DefaultSeparators() []string {
	return []string{"\n\n", "\n", ". ", ".", " "}
}

// Splitter divides text into overlapping chunks. The first separator that
// breaks a piece into units no longer than ChunkSize is used; oversized
// units recurse on the next separator. A unit no separator can break may
// exceed ChunkSize, which is the one allowed size-bound exception.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

func NewSplitter() *Splitter {
	return &Splitter{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Separators:   DefaultSeparators(),
	}
}

// Split returns the chunks of text in document order. Joining the chunks
// with each one's leading overlap removed reproduces text exactly.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	units := s.units(text, 0)

	var chunks []string
	base := "" // overlap prefix carried into cur
	cur := ""
	for _, u := range units {
		if cur != base && len(cur)+len(u) > s.ChunkSize {
			chunks = append(chunks, cur)
			// Carry the tail of the finished chunk, trimmed so the next
			// unit still fits the size budget.
			ov := s.ChunkOverlap
			if room := s.ChunkSize - len(u); room < ov {
				ov = room
			}
			if ov < 0 {
				ov = 0
			}
			if ov > len(cur) {
				ov = len(cur)
			}
			base = cur[len(cur)-ov:]
			cur = base
		}
		cur += u
	}
	if cur != base {
		chunks = append(chunks, cur)
	}
	return chunks
}

// units recursively breaks text into separator-bounded pieces of at most
// ChunkSize bytes, keeping each separator attached to the piece before it
// so concatenation is lossless.
func (s *Splitter) units(text string, sepIdx int) []string {
	if len(text) <= s.ChunkSize || sepIdx >= len(s.Separators) {
		return []string{text}
	}

	parts := strings.SplitAfter(text, s.Separators[sepIdx])
	if len(parts) == 1 {
		return s.units(text, sepIdx+1)
	}

	var out []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		if len(p) > s.ChunkSize {
			out = append(out, s.units(p, sepIdx+1)...)
		} else {
			out = append(out, p)
		}
	}
	return out
}

// SplitPapers chunks every paper abstract, dropping papers without one. A
// positive maxChunks caps the output deterministically, keeping the
// earliest chunks in encounter order. Returns an empty slice when nothing
// survives; the caller decides whether that aborts the run.
func (s *Splitter) SplitPapers(papers []models.Paper, maxChunks int) []models.Chunk {
	chunks := []models.Chunk{}
	for _, p := range papers {
		if strings.TrimSpace(p.Abstract) == "" {
			continue
		}
		for i, text := range s.Split(p.Abstract) {
			chunks = append(chunks, models.Chunk{
				ID:    chunkID(p, i),
				Text:  text,
				Index: i,
				Paper: p,
			})
		}
	}
	if maxChunks > 0 && len(chunks) > maxChunks {
		chunks = chunks[:maxChunks]
	}
	return chunks
}

// chunkID is deterministic so re-indexing the same paper upserts in place.
func chunkID(p models.Paper, idx int) string {
	h := sha1.Sum([]byte(fmt.Sprintf("%s|%s#%d", p.ID, p.Title, idx)))
	return hex.EncodeToString(h[:])
}
