package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.pokemontcg.io/v2"
	rateLimitDelay = 100 * time.Millisecond // 100ms between requests (10 req/sec)
	requestTimeout = 30 * time.Second
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second
)

// ClientConfig holds configuration for the catalog API client.
type ClientConfig struct {
	// BaseURL is the catalog API root (e.g. "https://api.pokemontcg.io/v2").
	BaseURL string

	// APIKey is the static key sent in the X-Api-Key header.
	APIKey string

	// UserAgent identifies this client to the catalog.
	UserAgent string
}

// Client is a catalog API client with rate limiting and retry on
// transient failures.
type Client struct {
	baseURL     string
	apiKey      string
	userAgent   string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewClient creates a new catalog API client.
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.UserAgent == "" {
		config.UserAgent = "PokeVault/1.0"
	}
	return &Client{
		baseURL:   config.BaseURL,
		apiKey:    config.APIKey,
		userAgent: config.UserAgent,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		// Rate limiter: 1 request per 100ms = 10 req/sec
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
	}
}

// SearchCards performs a paged card search with the given query string.
// The query uses the catalog's search syntax: space-separated field:value
// clauses ANDed together, quoted phrases, `*` wildcards and
// `field:[min TO max]` ranges.
func (c *Client) SearchCards(ctx context.Context, query string, page, pageSize int) (*ResultPage, error) {
	u := fmt.Sprintf("%s/cards?q=%s&page=%d&pageSize=%d",
		c.baseURL, url.QueryEscape(query), page, pageSize)

	var resp cardListResponse
	if err := c.doRequest(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("search cards with query %q: %w", query, err)
	}

	return &ResultPage{
		Items:      resp.Data,
		Page:       resp.Page,
		PageSize:   resp.PageSize,
		TotalCount: resp.TotalCount,
	}, nil
}

// GetCards retrieves the catalog's unfiltered default card listing.
func (c *Client) GetCards(ctx context.Context) ([]Card, error) {
	u := fmt.Sprintf("%s/cards", c.baseURL)

	var resp cardListResponse
	if err := c.doRequest(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("get cards: %w", err)
	}

	return resp.Data, nil
}

// GetCard retrieves a single card by its catalog ID.
func (c *Client) GetCard(ctx context.Context, id string) (*Card, error) {
	u := fmt.Sprintf("%s/cards/%s", c.baseURL, url.PathEscape(id))

	var resp cardResponse
	if err := c.doRequest(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("get card %s: %w", id, err)
	}

	return &resp.Data, nil
}

// GetSets retrieves all sets, sorted by release date descending
// (newest first).
func (c *Client) GetSets(ctx context.Context) ([]Set, error) {
	u := fmt.Sprintf("%s/sets", c.baseURL)

	var resp setListResponse
	if err := c.doRequest(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("get sets: %w", err)
	}

	sets := resp.Data
	// Release dates use the zero-padded "2006/10/02" form, so lexical
	// comparison orders them chronologically.
	sort.SliceStable(sets, func(i, j int) bool {
		return sets[i].ReleaseDate > sets[j].ReleaseDate
	})

	return sets, nil
}

// doRequest performs an HTTP GET with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, url string, result interface{}) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-Api-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)

			// Retry on network errors
			if attempt < maxRetries {
				time.Sleep(backoff)
				backoff = minDuration(backoff*2, maxBackoff)
				continue
			}
			return lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK:
			body, err := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if err != nil {
				return fmt.Errorf("read response body: %w", err)
			}

			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("parse JSON response: %w", err)
			}

			return nil

		case http.StatusTooManyRequests:
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("%w: rate limited (HTTP 429)", ErrCatalogUnavailable)

			if attempt < maxRetries {
				// Honor Retry-After when the catalog provides it
				if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
					if duration, err := time.ParseDuration(retryAfter + "s"); err == nil {
						time.Sleep(duration)
					} else {
						time.Sleep(backoff)
					}
				} else {
					time.Sleep(backoff)
				}
				backoff = minDuration(backoff*2, maxBackoff)
				continue
			}
			return lastErr

		case http.StatusNotFound:
			_ = resp.Body.Close()
			return &NotFoundError{URL: url}

		default:
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()

			var envelope apiErrorEnvelope
			if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
				return fmt.Errorf("%w: %v", ErrCatalogUnavailable, &envelope.Error)
			}

			return fmt.Errorf("%w: status %d: %s", ErrCatalogUnavailable, resp.StatusCode, string(body))
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
