package papers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/seanblong/papersearch/pkg/models"
)

const (
	s2BaseURL = "https://api.semanticscholar.org/graph/v1"

	// API maximum per request.
	s2PageLimit = 100

	s2Fields = "paperId,title,abstract,authors,year,citationCount,url,openAccessPdf,publicationDate,venue,externalIds"
)

// SemanticScholarSource queries the Semantic Scholar Graph API. Pagination
// is offset/limit; a page shorter than the requested limit means no more
// data. Records are normalized into the same Paper shape the Papers with
// Code source produces.
type SemanticScholarSource struct {
	baseURL    string
	http       *http.Client
	maxRetries int
	sleep      func(time.Duration)
}

func NewSemanticScholarSource() *SemanticScholarSource {
	return &SemanticScholarSource{
		baseURL:    s2BaseURL,
		http:       &http.Client{Timeout: 30 * time.Second},
		maxRetries: defaultMaxRetries,
		sleep:      time.Sleep,
	}
}

type s2Paper struct {
	PaperID       string `json:"paperId"`
	Title         string `json:"title"`
	Abstract      string `json:"abstract"`
	URL           string `json:"url"`
	Venue         string `json:"venue"`
	Year          int    `json:"year"`
	CitationCount int    `json:"citationCount"`
	PubDate       string `json:"publicationDate"`
	Authors       []struct {
		Name string `json:"name"`
	} `json:"authors"`
	OpenAccessPDF *struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
	ExternalIDs map[string]any `json:"externalIds"`
}

type s2Page struct {
	Total int       `json:"total"`
	Data  []s2Paper `json:"data"`
}

// Fetch retrieves up to maxResults papers, stopping when a page comes back
// short or the target is reached. The first request carries the retry
// policy; a failure on a later request stops accumulation and returns what
// we have.
func (s *SemanticScholarSource) Fetch(ctx context.Context, query string, maxResults int) ([]models.Paper, error) {
	if maxResults <= 0 {
		return nil, errors.New("maxResults must be positive")
	}

	limit := s2PageLimit
	if maxResults < limit {
		limit = maxResults
	}

	first, ok := s.searchWithRetry(ctx, query, 0, limit)
	if !ok {
		return []models.Paper{}, nil
	}

	all := first.Data
	offset := limit

	for len(all) < maxResults && len(first.Data) == s2PageLimit {
		remaining := maxResults - len(all)
		if remaining > s2PageLimit {
			remaining = s2PageLimit
		}

		pg, err := s.search(ctx, query, offset, remaining)
		if err != nil {
			log.Warn().Err(err).Int("offset", offset).Msg("fetch failed, stopping with partial results")
			break
		}
		if len(pg.Data) == 0 {
			break
		}
		all = append(all, pg.Data...)
		offset += s2PageLimit
		s.sleep(500 * time.Millisecond)
	}

	if len(all) > maxResults {
		all = all[:maxResults]
	}

	out := make([]models.Paper, 0, len(all))
	for _, p := range all {
		out = append(out, p.normalize())
	}
	return out, nil
}

func (s *SemanticScholarSource) searchWithRetry(ctx context.Context, query string, offset, limit int) (s2Page, bool) {
	rateLimitRetries := 0
	for attempt := 0; attempt < s.maxRetries; {
		pg, err := s.search(ctx, query, offset, limit)
		if err == nil {
			return pg, true
		}

		if errors.Is(err, errRateLimited) {
			rateLimitRetries++
			if rateLimitRetries > s.maxRetries {
				return s2Page{}, false
			}
			log.Warn().Msg("rate limited, waiting before retry")
			s.sleep(rateLimitDelay)
			continue
		}

		log.Warn().Err(err).Int("attempt", attempt+1).Msg("request failed")
		attempt++
		if attempt < s.maxRetries {
			s.sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}
	}
	log.Warn().Msg("max retries reached, the API may be temporarily unavailable")
	return s2Page{}, false
}

func (s *SemanticScholarSource) search(ctx context.Context, query string, offset, limit int) (s2Page, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("fields", s2Fields)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	u := fmt.Sprintf("%s/paper/search?%s", s.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return s2Page{}, err
	}
	req.Header.Set("User-Agent", "papersearch/1.0 (academic research tool)")

	resp, err := s.http.Do(req)
	if err != nil {
		return s2Page{}, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close response body")
		}
	}()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return s2Page{}, errRateLimited
	case resp.StatusCode == http.StatusForbidden:
		return s2Page{}, errors.New("access forbidden, an API key may be required for higher limits")
	case resp.StatusCode != http.StatusOK:
		return s2Page{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var pg s2Page
	if err := json.NewDecoder(resp.Body).Decode(&pg); err != nil {
		return s2Page{}, err
	}
	return pg, nil
}

// normalize maps a Semantic Scholar record into the shared Paper shape:
// author objects flatten to names, the open-access PDF object to a plain
// URL, and publicationDate falls back to the year.
func (p s2Paper) normalize() models.Paper {
	var arxivID string
	if v, ok := p.ExternalIDs["ArXiv"].(string); ok {
		arxivID = v
	}

	var pdfURL string
	if p.OpenAccessPDF != nil {
		pdfURL = p.OpenAccessPDF.URL
	}

	authors := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	published := p.PubDate
	if published == "" && p.Year != 0 {
		published = strconv.Itoa(p.Year)
	}

	return models.Paper{
		ID:            p.PaperID,
		ArxivID:       arxivID,
		Title:         p.Title,
		Abstract:      p.Abstract,
		Authors:       authors,
		Published:     published,
		URL:           p.URL,
		PDFURL:        pdfURL,
		Venue:         p.Venue,
		CitationCount: p.CitationCount,
	}
}
