package papers

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog/log"
	"github.com/seanblong/papersearch/pkg/models"
)

// DirSource reads previously exported paper records from JSON files under a
// directory, for offline re-indexing without hitting a search API. Each
// .json file holds either a single paper object or an array of them. The
// query filters on title/abstract substring; an empty query matches all.
type DirSource struct {
	root string
}

func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

func (s *DirSource) Fetch(ctx context.Context, query string, maxResults int) ([]models.Paper, error) {
	var papers []models.Paper
	q := strings.ToLower(strings.TrimSpace(query))

	err := godirwalk.Walk(s.root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if de.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
				return nil
			}

			b, err := os.ReadFile(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("failed to read paper file")
				return nil
			}

			for _, p := range decodePapers(b) {
				if !matches(p, q) {
					continue
				}
				papers = append(papers, p)
				if len(papers) >= maxResults {
					return errEnough
				}
			}
			return nil
		},
	})
	if err != nil && !errors.Is(err, errEnough) {
		return nil, err
	}
	return papers, nil
}

// errEnough stops the walk early once maxResults is reached.
var errEnough = errors.New("enough papers collected")

func decodePapers(b []byte) []models.Paper {
	var many []models.Paper
	if err := json.Unmarshal(b, &many); err == nil {
		return many
	}
	var one models.Paper
	if err := json.Unmarshal(b, &one); err == nil && (one.Title != "" || one.Abstract != "") {
		return []models.Paper{one}
	}
	return nil
}

func matches(p models.Paper, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Abstract), q)
}
