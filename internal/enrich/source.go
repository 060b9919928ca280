// Package enrich implements the identity extractors and the fan-out
// executor that queries them.
package enrich

import (
	"context"
	"sync"

	"github.com/rolocard/enrich-cli/internal/model"
)

// Source is one external identity provider. Lookup returns (nil, nil)
// when the source has no match for the candidate identifiers; errors are
// soft — the executor logs and moves on.
type Source interface {
	// Kind returns the source identifier used for provenance.
	Kind() model.SourceKind
	// Lookup fetches and normalizes this source's contribution.
	Lookup(ctx context.Context, ids model.Identifiers) (*model.EnrichmentRecord, error)
}

// Registry manages the available enrichment sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[model.SourceKind]Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[model.SourceKind]Source)}
}

// Register adds a source to the registry.
func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[s.Kind()] = s
}

// Get returns a source by kind, or nil if not registered.
func (r *Registry) Get(kind model.SourceKind) Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[kind]
}

// Kinds returns all registered source kinds.
func (r *Registry) Kinds() []model.SourceKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]model.SourceKind, 0, len(r.sources))
	for k := range r.sources {
		kinds = append(kinds, k)
	}
	return kinds
}
