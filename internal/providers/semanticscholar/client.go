// Package semanticscholar resolves Semantic Scholar identifiers (corpus IDs
// and paper hashes) against the Semantic Scholar Graph API.
package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/devscholar/reference-engine/internal/domain"
	"github.com/devscholar/reference-engine/internal/providers"
)

const (
	// DefaultBaseURL is the default base URL for the Semantic Scholar
	// Graph API.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRateLimit is the default rate limit for unauthenticated
	// requests. With an API key this can be raised.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 15 * time.Second

	// apiKeyHeader is the header name for the Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	// paperFields is the field list requested from the API.
	paperFields = "paperId,title,abstract,year,venue,authors,openAccessPdf,url"

	// sourceName is the human-readable name for this provider.
	sourceName = "Semantic Scholar"
)

// Config contains configuration options for the Semantic Scholar provider.
type Config struct {
	// BaseURL is the base URL for the API.
	BaseURL string

	// APIKey is the optional API key; authenticated requests get higher
	// rate limits.
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

// Client implements providers.Provider for Semantic Scholar.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
}

var _ providers.Provider = (*Client)(nil)

// New creates a Semantic Scholar provider with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{
		config: cfg,
		httpClient: providers.NewHTTPClient(providers.HTTPClientConfig{
			Timeout:      cfg.Timeout,
			RateLimit:    cfg.RateLimit,
			BurstSize:    cfg.BurstSize,
			APIKey:       cfg.APIKey,
			APIKeyHeader: apiKeyHeader,
		}),
	}
}

// NewWithHTTPClient creates a provider with a custom HTTP client, for tests.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient}
}

// Resolve fetches metadata for a canonical Semantic Scholar identifier:
// either "CorpusId:<n>" or a 40-hex paper hash. The Graph API accepts both
// forms directly as path identifiers.
func (c *Client) Resolve(ctx context.Context, id string) (*domain.Metadata, error) {
	paperURL := fmt.Sprintf("%s/paper/%s?fields=%s",
		strings.TrimRight(c.config.BaseURL, "/"), url.PathEscape(id), paperFields)

	resp, err := c.httpClient.Get(ctx, paperURL)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.NewNotFoundError(domain.SchemeSemanticScholar, id)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), domain.ErrNetwork)
	}

	var p paper
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding response: %w", domain.ErrMalformed)
	}
	return paperToMetadata(&p), nil
}

// Scheme returns the scheme this provider serves.
func (c *Client) Scheme() domain.Scheme {
	return domain.SchemeSemanticScholar
}

// Name returns the human-readable name for this provider.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this provider is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

func paperToMetadata(p *paper) *domain.Metadata {
	meta := &domain.Metadata{
		Title:    p.Title,
		Abstract: p.Abstract,
		Venue:    p.Venue,
		Year:     p.Year,
		Landing:  p.URL,
	}
	for _, a := range p.Authors {
		if a.Name != "" {
			meta.Authors = append(meta.Authors, a.Name)
		}
	}
	if p.OpenAccessPdf != nil {
		meta.PDFURL = p.OpenAccessPdf.URL
	}
	return meta
}
