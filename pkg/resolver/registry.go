package resolver

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/NobleMathews/dev-versioner/pkg/ecosystem"
	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/integrations"
	"github.com/NobleMathews/dev-versioner/pkg/integrations/npm"
	"github.com/NobleMathews/dev-versioner/pkg/integrations/pkgsite"
	"github.com/NobleMathews/dev-versioner/pkg/integrations/pypi"
	"github.com/NobleMathews/dev-versioner/pkg/record"
)

// Adapter resolves packages against one ecosystem's registry.
type Adapter interface {
	// Ecosystem returns the descriptor id the adapter serves.
	Ecosystem() string
	Resolve(ctx context.Context, pkg, version string) (*record.Record, error)
}

// Fallback resolves a package reference from its source repository.
type Fallback interface {
	Resolve(ctx context.Context, reference string) (*record.Record, error)
}

// Registry is the lookup table from ecosystem name (id or alias) to its
// descriptor and adapter.
type Registry struct {
	set      *ecosystem.Set
	adapters map[string]Adapter
}

// NewRegistry indexes adapters by their ecosystem id. Every adapter must
// serve an ecosystem in set, and each ecosystem may have one adapter.
func NewRegistry(set *ecosystem.Set, adapters ...Adapter) (*Registry, error) {
	r := &Registry{set: set, adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		id := a.Ecosystem()
		if _, err := set.Lookup(id); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "adapter for undeclared ecosystem %q", id)
		}
		if _, dup := r.adapters[id]; dup {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "two adapters for ecosystem %q", id)
		}
		r.adapters[id] = a
	}
	return r, nil
}

// NewDefaultRegistry builds the built-in adapter for every descriptor in
// set whose id is python, javascript or go. Descriptors with other ids are
// skipped with a warning and stay unresolvable.
func NewDefaultRegistry(set *ecosystem.Set, client *integrations.Client, logger *log.Logger) (*Registry, error) {
	if logger == nil {
		logger = log.Default()
	}
	var adapters []Adapter
	for _, d := range set.All() {
		switch d.ID {
		case ecosystem.Python:
			adapters = append(adapters, pypi.NewAdapter(d, client))
		case ecosystem.JavaScript:
			adapters = append(adapters, npm.NewAdapter(d, client))
		case ecosystem.Go:
			adapters = append(adapters, pkgsite.NewAdapter(d, client, logger))
		default:
			logger.Warn("no adapter for ecosystem", "ecosystem", d.ID)
		}
	}
	return NewRegistry(set, adapters...)
}

// Lookup returns the descriptor and adapter for name.
// Unknown names are UNSUPPORTED_ECOSYSTEM.
func (r *Registry) Lookup(name string) (ecosystem.Descriptor, Adapter, error) {
	d, err := r.set.Lookup(name)
	if err != nil {
		return ecosystem.Descriptor{}, nil, err
	}
	a, ok := r.adapters[d.ID]
	if !ok {
		return ecosystem.Descriptor{}, nil, errors.New(errors.ErrCodeUnsupportedEcosystem, "ecosystem %q has no adapter", d.ID)
	}
	return d, a, nil
}

// IDs lists the ecosystems that have an adapter, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
