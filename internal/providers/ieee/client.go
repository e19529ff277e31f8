// Package ieee resolves IEEE Xplore document numbers against the IEEE
// Xplore metadata API. The API is key-gated; without a key the provider
// reports itself disabled.
package ieee

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/devscholar/reference-engine/internal/domain"
	"github.com/devscholar/reference-engine/internal/providers"
)

const (
	// DefaultBaseURL is the default IEEE Xplore metadata API base URL.
	DefaultBaseURL = "https://ieeexploreapi.ieee.org/api/v1"

	// DefaultRateLimit matches the free-tier API allowance.
	DefaultRateLimit = 2.0

	// DefaultBurstSize is the default burst for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 15 * time.Second

	// sourceName is the human-readable name for this provider.
	sourceName = "IEEE Xplore"
)

// Config holds configuration for the IEEE Xplore provider.
type Config struct {
	// BaseURL is the metadata API base URL.
	BaseURL string

	// APIKey is the IEEE Xplore API key (required; the provider is
	// disabled without one).
	APIKey string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Enabled indicates whether this provider is available.
	Enabled bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// Client implements providers.Provider for IEEE Xplore.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
}

var _ providers.Provider = (*Client)(nil)

// New creates an IEEE Xplore provider with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{
		config: cfg,
		httpClient: providers.NewHTTPClient(providers.HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: cfg.BurstSize,
		}),
	}
}

// NewWithHTTPClient creates a provider with a custom HTTP client, for tests.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient}
}

// Resolve fetches metadata for an IEEE document number.
func (c *Client) Resolve(ctx context.Context, id string) (*domain.Metadata, error) {
	q := url.Values{}
	q.Set("apikey", c.config.APIKey)
	q.Set("article_number", id)
	q.Set("max_records", "1")
	searchURL := fmt.Sprintf("%s/search/articles?%s",
		strings.TrimRight(c.config.BaseURL, "/"), q.Encode())

	resp, err := c.httpClient.Get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), domain.ErrNetwork)
	}

	var sr searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding response: %w", domain.ErrMalformed)
	}
	if sr.TotalRecords == 0 || len(sr.Articles) == 0 {
		return nil, domain.NewNotFoundError(domain.SchemeIEEE, id)
	}
	return articleToMetadata(&sr.Articles[0], id), nil
}

// Scheme returns the scheme this provider serves.
func (c *Client) Scheme() domain.Scheme {
	return domain.SchemeIEEE
}

// Name returns the human-readable name for this provider.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled reports whether the provider is usable; an API key is
// mandatory.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled && c.config.APIKey != ""
}

func articleToMetadata(a *article, id string) *domain.Metadata {
	meta := &domain.Metadata{
		Title:    a.Title,
		Abstract: a.Abstract,
		Venue:    a.PublicationTitle,
		PDFURL:   a.PDFURL,
		Landing:  "https://ieeexplore.ieee.org/document/" + id,
	}
	for _, au := range a.Authors.Authors {
		if au.FullName != "" {
			meta.Authors = append(meta.Authors, au.FullName)
		}
	}
	if y, err := strconv.Atoi(a.PublicationYear); err == nil {
		meta.Year = y
	}
	return meta
}
