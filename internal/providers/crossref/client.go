// Package crossref resolves DOIs against the Crossref works API.
package crossref

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
	// DefaultBaseURL is the default Crossref REST API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultRateLimit follows Crossref's polite-pool guidance.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 15 * time.Second

	// sourceName is the human-readable name for this provider.
	sourceName = "Crossref"
)

// Config holds configuration for the Crossref provider.
type Config struct {
	// BaseURL is the Crossref REST API base URL.
	BaseURL string

	// MailTo is included in the User-Agent to join Crossref's polite pool.
	MailTo string

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

// Client implements providers.Provider for DOIs via Crossref.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
}

var _ providers.Provider = (*Client)(nil)

// New creates a Crossref provider with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()
	ua := "DevScholar-ReferenceEngine/1.0"
	if cfg.MailTo != "" {
		ua = fmt.Sprintf("%s (mailto:%s)", ua, cfg.MailTo)
	}
	return &Client{
		config: cfg,
		httpClient: providers.NewHTTPClient(providers.HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: cfg.BurstSize,
			UserAgent: ua,
		}),
	}
}

// NewWithHTTPClient creates a Crossref provider with a custom HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient}
}

// Resolve fetches metadata for a canonical (lowercased) DOI.
func (c *Client) Resolve(ctx context.Context, id string) (*domain.Metadata, error) {
	workURL := fmt.Sprintf("%s/works/%s", strings.TrimRight(c.config.BaseURL, "/"), url.PathEscape(id))

	resp, err := c.httpClient.Get(ctx, workURL)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.NewNotFoundError(domain.SchemeDOI, id)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), domain.ErrNetwork)
	}

	var wr worksResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&wr); err != nil {
		return nil, fmt.Errorf("decoding response: %w", domain.ErrMalformed)
	}
	return workToMetadata(&wr.Message, id), nil
}

// Scheme returns the scheme this provider serves.
func (c *Client) Scheme() domain.Scheme {
	return domain.SchemeDOI
}

// Name returns the human-readable name for this provider.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this provider is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

func workToMetadata(w *work, id string) *domain.Metadata {
	meta := &domain.Metadata{
		Abstract: stripJATS(w.Abstract),
		Landing:  "https://doi.org/" + id,
	}
	if len(w.Title) > 0 {
		meta.Title = w.Title[0]
	}
	if len(w.ContainerTitle) > 0 {
		meta.Venue = w.ContainerTitle[0]
	}
	for _, a := range w.Author {
		name := strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
		if name != "" {
			meta.Authors = append(meta.Authors, name)
		}
	}
	if parts := w.Issued.DateParts; len(parts) > 0 && len(parts[0]) > 0 {
		meta.Year = parts[0][0]
	}
	for _, l := range w.Link {
		if l.ContentType == "application/pdf" {
			meta.PDFURL = l.URL
			break
		}
	}
	return meta
}

// stripJATS removes the JATS markup Crossref embeds in abstracts.
func stripJATS(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
