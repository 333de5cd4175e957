package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nova-labs/nova-core/internal/core/ports/driven"
	"github.com/nova-labs/nova-core/internal/normalisers"
)

// Verify interface compliance
var _ driven.WebSearcher = (*Scraper)(nil)

const (
	// DefaultBaseURL is DuckDuckGo's script-free results page
	DefaultBaseURL = "https://html.duckduckgo.com/html/"

	defaultMaxChars  = 4000
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "nova-core/1.0 (+web-search tool)"
	defaultBackoff   = 60 * time.Second

	// maxPageBytes caps how much of a results page is read
	maxPageBytes = 2 << 20
)

// Config configures a Scraper. Zero values fall back to defaults.
type Config struct {
	BaseURL           string
	RequestsPerSecond float64
	Burst             int
	MaxChars          int
	Timeout           time.Duration
	UserAgent         string
}

// Scraper fetches a search results page and flattens it to text for the
// model. Requests are throttled with a token bucket and back off after a
// 429 from the search site.
type Scraper struct {
	baseURL   string
	maxChars  int
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter

	mu      sync.Mutex
	retryAt time.Time
}

// NewScraper creates a new web search scraper
func NewScraper(cfg Config) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 2
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = defaultMaxChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	return &Scraper{
		baseURL:   cfg.BaseURL,
		maxChars:  cfg.MaxChars,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// Search returns the text of the results page for query
func (s *Scraper) Search(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("empty search query")
	}

	if err := s.wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.searchURL(query), nil)
	if err != nil {
		return "", fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		s.backoff(resp.Header.Get("Retry-After"))
		return "", fmt.Errorf("search rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read search results: %w", err)
	}

	text := normalisers.HTMLToText(string(page))
	if text == "" {
		return fmt.Sprintf("No web results found for %q.", query), nil
	}
	return fmt.Sprintf("Web search results for %q:\n\n%s", query, truncateRunes(text, s.maxChars)), nil
}

func (s *Scraper) searchURL(query string) string {
	sep := "?"
	if strings.Contains(s.baseURL, "?") {
		sep = "&"
	}
	return s.baseURL + sep + url.Values{"q": {query}}.Encode()
}

// wait blocks for any 429 backoff, then for a token
func (s *Scraper) wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return s.limiter.Wait(ctx)
}

func (s *Scraper) backoff(retryAfter string) {
	d := defaultBackoff
	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs > 0 {
		d = time.Duration(secs) * time.Second
	}

	s.mu.Lock()
	s.retryAt = time.Now().Add(d)
	s.mu.Unlock()
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}
