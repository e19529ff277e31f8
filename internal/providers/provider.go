// Package providers defines the metadata provider capability the resolver
// depends on, plus the shared HTTP plumbing (rate limiting, retries) used by
// the concrete clients.
//
// Each citation scheme gets one Provider implementation. The resolver only
// ever sees this interface, so providers are swappable and the resolution
// pipeline is testable with fakes.
//
// Example usage:
//
//	reg := providers.NewRegistry()
//	reg.Register(arxiv.New(arxiv.Config{Enabled: true}))
//	p, ok := reg.Get(domain.SchemeArXiv)
package providers

import (
	"context"
	"sync"

	"github.com/devscholar/reference-engine/internal/domain"
)

// Provider resolves one scheme's canonical identifiers to bibliographic
// metadata.
type Provider interface {
	// Resolve fetches metadata for a canonical identifier.
	//
	// Implementations must respect context cancellation and report
	// failures through the domain error taxonomy: domain.ErrNotFound for
	// unknown identifiers, domain.ErrRateLimited when throttled,
	// domain.ErrMalformed for identifiers or responses they cannot
	// interpret, and transport problems wrapped so they classify as
	// network errors.
	Resolve(ctx context.Context, id string) (*domain.Metadata, error)

	// Scheme returns the citation scheme this provider serves.
	Scheme() domain.Scheme

	// Name returns a human-readable provider name for logging and metrics.
	Name() string

	// IsEnabled reports whether the provider is available. A provider may
	// be disabled by configuration or a missing API key.
	IsEnabled() bool
}

// Registry holds the provider for each scheme. It is safe for concurrent
// use.
type Registry struct {
	mu        sync.RWMutex
	providers map[domain.Scheme]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[domain.Scheme]Provider)}
}

// Register adds a provider, replacing any existing provider for the same
// scheme.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Scheme()] = p
}

// Get returns the enabled provider for a scheme. ok is false when no
// provider is registered or the registered provider is disabled.
func (r *Registry) Get(scheme domain.Scheme) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[scheme]
	if !ok || !p.IsEnabled() {
		return nil, false
	}
	return p, true
}

// Schemes returns the schemes with an enabled provider.
func (r *Registry) Schemes() []domain.Scheme {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schemes := make([]domain.Scheme, 0, len(r.providers))
	for scheme, p := range r.providers {
		if p.IsEnabled() {
			schemes = append(schemes, scheme)
		}
	}
	return schemes
}
