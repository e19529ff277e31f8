// Package arxiv resolves arXiv identifiers against the arXiv Atom export
// API.
package arxiv

import (
	"context"
	"encoding/xml"
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
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRateLimit is the polite request rate against the export API
	// (arXiv asks for no more than one request per three seconds for bulk
	// use; hover traffic is bursty but light).
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 15 * time.Second

	// sourceName is the human-readable name for this provider.
	sourceName = "arXiv"
)

// Config holds configuration for the arXiv provider.
type Config struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string

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

// Client implements providers.Provider for arXiv.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
}

var _ providers.Provider = (*Client)(nil)

// New creates an arXiv provider with the given configuration.
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

// NewWithHTTPClient creates an arXiv provider with a custom HTTP client.
// Useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient}
}

// Resolve fetches metadata for a canonical arXiv identifier (version suffix
// already stripped by the grammar).
func (c *Client) Resolve(ctx context.Context, id string) (*domain.Metadata, error) {
	base, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/query"
	q := url.Values{}
	q.Set("id_list", id)
	q.Set("max_results", "1")
	base.RawQuery = q.Encode()

	resp, err := c.httpClient.Get(ctx, base.String())
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), domain.ErrNetwork)
	}

	// Limit body to 10MB to prevent resource exhaustion.
	var feed feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", domain.ErrMalformed)
	}

	// The export API returns an entry with an error link (and no usable id)
	// for unknown identifiers instead of a 404.
	if len(feed.Entries) == 0 {
		return nil, domain.NewNotFoundError(domain.SchemeArXiv, id)
	}
	meta := entryToMetadata(&feed.Entries[0], id)
	if meta == nil {
		return nil, domain.NewNotFoundError(domain.SchemeArXiv, id)
	}
	return meta, nil
}

// Scheme returns the scheme this provider serves.
func (c *Client) Scheme() domain.Scheme {
	return domain.SchemeArXiv
}

// Name returns the human-readable name for this provider.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this provider is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// entryToMetadata converts an Atom entry to bibliographic metadata. Returns
// nil for error entries that carry no title.
func entryToMetadata(e *entry, id string) *domain.Metadata {
	title := collapseWhitespace(e.Title)
	if title == "" || strings.EqualFold(title, "Error") {
		return nil
	}

	meta := &domain.Metadata{
		Title:    title,
		Abstract: collapseWhitespace(e.Summary),
		Venue:    strings.TrimSpace(e.JournalRef),
		Landing:  "https://arxiv.org/abs/" + id,
	}
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			meta.Authors = append(meta.Authors, name)
		}
	}
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			meta.PDFURL = l.Href
			break
		}
	}
	if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
		meta.Year = t.Year()
	}
	return meta
}

// collapseWhitespace folds the newline-wrapped text the Atom feed produces
// into single-spaced prose.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
