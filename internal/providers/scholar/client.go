// Package scholar resolves Google Scholar references. Google Scholar
// publishes no metadata API and forbids scraping, so resolution is local:
// query references become search-link metadata and cluster references become
// cluster-link metadata. Hover UIs render these as outbound links rather
// than bibliographic cards.
package scholar

import (
	"context"
	"net/url"

	"github.com/devscholar/reference-engine/internal/domain"
	"github.com/devscholar/reference-engine/internal/providers"
)

// sourceName is the human-readable name for this provider.
const sourceName = "Google Scholar"

// QueryClient resolves Google Scholar search-query references.
type QueryClient struct {
	enabled bool
}

var _ providers.Provider = (*QueryClient)(nil)

// NewQuery creates a query-reference provider.
func NewQuery(enabled bool) *QueryClient {
	return &QueryClient{enabled: enabled}
}

// Resolve synthesizes search-link metadata for a decoded query string.
func (c *QueryClient) Resolve(_ context.Context, id string) (*domain.Metadata, error) {
	return &domain.Metadata{
		Title:   "Scholar search: " + id,
		Landing: "https://scholar.google.com/scholar?q=" + url.QueryEscape(id),
	}, nil
}

// Scheme returns the scheme this provider serves.
func (c *QueryClient) Scheme() domain.Scheme {
	return domain.SchemeScholarQuery
}

// Name returns the human-readable name for this provider.
func (c *QueryClient) Name() string {
	return sourceName
}

// IsEnabled returns whether this provider is enabled.
func (c *QueryClient) IsEnabled() bool {
	return c.enabled
}

// ClusterClient resolves Google Scholar cluster references.
type ClusterClient struct {
	enabled bool
}

var _ providers.Provider = (*ClusterClient)(nil)

// NewCluster creates a cluster-reference provider.
func NewCluster(enabled bool) *ClusterClient {
	return &ClusterClient{enabled: enabled}
}

// Resolve synthesizes cluster-link metadata for a cluster identifier.
func (c *ClusterClient) Resolve(_ context.Context, id string) (*domain.Metadata, error) {
	return &domain.Metadata{
		Title:   "Scholar cluster " + id,
		Landing: "https://scholar.google.com/scholar?cluster=" + url.QueryEscape(id),
	}, nil
}

// Scheme returns the scheme this provider serves.
func (c *ClusterClient) Scheme() domain.Scheme {
	return domain.SchemeScholarCluster
}

// Name returns the human-readable name for this provider.
func (c *ClusterClient) Name() string {
	return sourceName
}

// IsEnabled returns whether this provider is enabled.
func (c *ClusterClient) IsEnabled() bool {
	return c.enabled
}
