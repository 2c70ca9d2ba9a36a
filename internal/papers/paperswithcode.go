package papers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/seanblong/papersearch/pkg/models"
)

const (
	pwcBaseURL  = "https://paperswithcode.com/api/v1"
	pwcPageSize = 10

	defaultMaxRetries = 3
	rateLimitDelay    = 5 * time.Second
	pageThrottle      = 100 * time.Millisecond
)

// PapersWithCodeSource queries the Papers with Code search API. Pages are
// numbered from 1 and hold pwcPageSize records each.
type PapersWithCodeSource struct {
	baseURL    string
	http       *http.Client
	maxRetries int
	sleep      func(time.Duration)
}

func NewPapersWithCodeSource() *PapersWithCodeSource {
	return &PapersWithCodeSource{
		baseURL:    pwcBaseURL,
		http:       &http.Client{Timeout: 30 * time.Second},
		maxRetries: defaultMaxRetries,
		sleep:      time.Sleep,
	}
}

type pwcPage struct {
	Count   int            `json:"count"`
	Results []models.Paper `json:"results"`
}

// Fetch retrieves up to maxResults papers. The first page decides whether
// more requests are needed; remaining pages are fetched sequentially in
// increasing page order, stopping early once maxResults is reached. Retry
// exhaustion on the first page returns an empty slice; a failed later page
// is skipped.
func (s *PapersWithCodeSource) Fetch(ctx context.Context, query string, maxResults int) ([]models.Paper, error) {
	if maxResults <= 0 {
		return nil, errors.New("maxResults must be positive")
	}

	first, ok := s.fetchPageWithRetry(ctx, query, 1)
	if !ok {
		return []models.Paper{}, nil
	}

	results := first.Results
	if len(results) >= maxResults {
		return results[:maxResults], nil
	}

	totalPages := ceilDiv(first.Count, pwcPageSize)
	additional := ceilDiv(maxResults-len(results), pwcPageSize)
	lastPage := 1 + additional
	if lastPage > totalPages {
		lastPage = totalPages
	}

	log.Info().Int("count", first.Count).Int("pages", lastPage-1).
		Str("query", query).Msg("fetching additional pages")

	for page := 2; page <= lastPage; page++ {
		pg, err := s.fetchPage(ctx, query, page)
		if err != nil {
			log.Warn().Err(err).Int("page", page).Msg("page fetch failed, skipping")
			continue
		}
		results = append(results, pg.Results...)
		if len(results) >= maxResults {
			break
		}
		// Be respectful to the API between pages.
		s.sleep(pageThrottle)
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// fetchPageWithRetry applies the retry policy for the first request:
// exponential backoff (2^attempt seconds) on transport errors and HTTP 500,
// a fixed delay on HTTP 429 that does not consume a retry attempt. Reports
// ok=false once retries are exhausted.
func (s *PapersWithCodeSource) fetchPageWithRetry(ctx context.Context, query string, page int) (pwcPage, bool) {
	rateLimitRetries := 0
	for attempt := 0; attempt < s.maxRetries; {
		pg, err := s.fetchPage(ctx, query, page)
		if err == nil {
			return pg, true
		}

		if errors.Is(err, errRateLimited) {
			rateLimitRetries++
			if rateLimitRetries > s.maxRetries {
				log.Warn().Int("page", page).Msg("rate limited repeatedly, giving up")
				return pwcPage{}, false
			}
			log.Warn().Int("page", page).Msg("rate limited, waiting before retry")
			s.sleep(rateLimitDelay)
			continue
		}

		log.Warn().Err(err).Int("attempt", attempt+1).Int("page", page).Msg("request failed")
		attempt++
		if attempt < s.maxRetries {
			s.sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}
	}
	log.Warn().Int("page", page).Msg("max retries reached, the API may be temporarily unavailable")
	return pwcPage{}, false
}

var errRateLimited = errors.New("rate limited")

func (s *PapersWithCodeSource) fetchPage(ctx context.Context, query string, page int) (pwcPage, error) {
	u := fmt.Sprintf("%s/papers/?q=%s", s.baseURL, url.QueryEscape(query))
	if page > 1 {
		u = fmt.Sprintf("%s/papers/?page=%d&q=%s", s.baseURL, page, url.QueryEscape(query))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return pwcPage{}, err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return pwcPage{}, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close response body")
		}
	}()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return pwcPage{}, errRateLimited
	case resp.StatusCode != http.StatusOK:
		return pwcPage{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var pg pwcPage
	if err := json.NewDecoder(resp.Body).Decode(&pg); err != nil {
		return pwcPage{}, err
	}
	return pg, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
