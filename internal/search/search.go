// Package search proxies supplement searches to the upstream catalogue
// site and scrapes the result cards.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"

	"github.com/careboard/careboard/internal/models"
)

var (
	// ErrQueryRequired is returned for a blank query.
	ErrQueryRequired = errors.New("query is required")

	// ErrUpstream wraps any failure fetching or reading the upstream page.
	ErrUpstream = errors.New("upstream search failed")
)

const (
	DefaultBaseURL  = "https://www.pillyze.com"
	DefaultCacheTTL = 10 * time.Minute
	DefaultMaxItems = 4

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36"
)

// Options configures a Searcher. Zero values take the defaults.
type Options struct {
	BaseURL   string
	UserAgent string
	MaxItems  int
	Timeout   time.Duration
}

// Searcher fetches and caches supplement search results.
type Searcher struct {
	http     *resty.Client
	cache    *cache.Cache
	base     *url.URL
	maxItems int
	logger   *slog.Logger
}

// NewCache returns a result cache with the given TTL.
func NewCache(ttl time.Duration) *cache.Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return cache.New(ttl, ttl*2)
}

// New creates a Searcher. The cache is owned by the caller so it can be
// shared or flushed.
func New(opts Options, c *cache.Cache, logger *slog.Logger) (*Searcher, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxItems
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if c == nil {
		c = NewCache(DefaultCacheTTL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}

	http := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8").
		SetHeader("Accept", "text/html")

	return &Searcher{
		http:     http,
		cache:    c,
		base:     base,
		maxItems: opts.MaxItems,
		logger:   logger.With("component", "search"),
	}, nil
}

// Resty exposes the underlying client so tests can install transports.
func (s *Searcher) Resty() *resty.Client {
	return s.http
}

// Search returns up to MaxItems results for query. Results are cached by
// the lower-cased query; cached responses have Cached set.
func (s *Searcher) Search(ctx context.Context, query string) (*models.SupplementSearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrQueryRequired
	}

	key := strings.ToLower(query)
	if cached, found := s.cache.Get(key); found {
		items := cached.([]models.SupplementItem)
		s.logger.Debug("search cache hit", "query", query)
		return &models.SupplementSearchResponse{Query: query, Cached: true, Items: items, Count: len(items)}, nil
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("query", query).
		Get("/search/nutrients")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: upstream responded with %d", ErrUpstream, resp.StatusCode())
	}

	items, err := ParseResults(resp.Body(), s.base, s.maxItems)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	s.cache.Set(key, items, cache.DefaultExpiration)
	s.logger.Info("search fetched", "query", query, "items", len(items))
	return &models.SupplementSearchResponse{Query: query, Items: items, Count: len(items)}, nil
}
