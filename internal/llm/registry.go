package llm

import (
	"sort"
)

// Registry maps provider ids to constructed adapters. It is built once at
// startup and is read-only afterwards.
type Registry struct {
	providers   map[string]Provider
	defaultName string
}

// NewRegistry builds a registry from the given providers, keyed by Name().
func NewRegistry(defaultName string, providers ...Provider) *Registry {
	r := &Registry{
		providers:   make(map[string]Provider, len(providers)),
		defaultName: NormalizeProviderID(defaultName),
	}
	for _, p := range providers {
		if p == nil {
			continue
		}
		r.providers[NormalizeProviderID(p.Name())] = p
	}
	return r
}

// Resolve returns the provider for id, falling back to the default when id is empty.
func (r *Registry) Resolve(id string) (Provider, string, error) {
	name := NormalizeProviderID(id)
	if name == "" && r != nil {
		name = r.defaultName
	}
	if r == nil {
		return nil, name, &InvalidProviderError{Name: name}
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, name, &InvalidProviderError{Name: name}
	}
	return p, name, nil
}

// Default returns the default provider id.
func (r *Registry) Default() string {
	if r == nil {
		return ""
	}
	return r.defaultName
}

// Names returns the registered provider ids in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
