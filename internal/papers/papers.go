package papers

import (
	"context"
	"errors"

	"github.com/seanblong/papersearch/pkg/models"
)

// Source fetches paper metadata and abstracts for a search query. All
// implementations return the same Paper shape so downstream code never cares
// which provider produced a record.
//
// Fetch is fail-soft for transient provider trouble: exhausted retries yield
// whatever was accumulated (possibly nothing) and a nil error. A non-nil
// error means the call itself was invalid.
type Source interface {
	Fetch(ctx context.Context, query string, maxResults int) ([]models.Paper, error)
}

// Kind selects a Source implementation.
type Kind string

const (
	KindPapersWithCode  Kind = "paperswithcode"
	KindSemanticScholar Kind = "semanticscholar"
	KindDir             Kind = "dir"
)

// NewSource creates a paper source. dir is only used by KindDir.
func NewSource(kind Kind, dir string) (Source, error) {
	switch kind {
	case KindPapersWithCode:
		return NewPapersWithCodeSource(), nil
	case KindSemanticScholar:
		return NewSemanticScholarSource(), nil
	case KindDir:
		if dir == "" {
			return nil, errors.New("papers directory is required for the dir source")
		}
		return NewDirSource(dir), nil
	default:
		return nil, errors.New("unsupported paper source: " + string(kind))
	}
}
