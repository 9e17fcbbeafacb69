package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Registry holds validated profiles by name. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	byName map[string]*Profile
	order  []string
}

// NewRegistry validates every profile and indexes it by name. All
// configuration problems are joined into the returned error.
func NewRegistry(profiles ...*Profile) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Profile, len(profiles))}
	var errs []error
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.byName[p.Name]; dup {
			errs = append(errs, fmt.Errorf("register profile %q: duplicate name", p.Name))
			continue
		}
		r.byName[p.Name] = p
		r.order = append(r.order, p.Name)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

// Default returns a registry with the four built-in profiles.
func Default() (*Registry, error) {
	return NewRegistry(Lot(), Pathway(), Boundary(), Unauthorized())
}

// MustRegistry is Default, panicking on a configuration error.
func MustRegistry() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the profile registered under name.
func (r *Registry) Get(name string) (*Profile, error) {
	p, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("get profile %q: %w", name, ErrUnknownProfile)
	}
	return p, nil
}

// Names lists the registered profiles in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Detect picks the single profile whose schema contains every key.
func (r *Registry) Detect(keys []string) (*Profile, error) {
	var matches []*Profile
	for _, name := range r.order {
		p := r.byName[name]
		if accepts(p, keys) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("detect profile for %v: %w", sortedCopy(keys), ErrUnrecognizedSchema)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, p := range matches {
			names[i] = p.Name
		}
		return nil, fmt.Errorf("detect profile (candidates %s): %w", strings.Join(names, ", "), ErrAmbiguousSchema)
	}
}

func accepts(p *Profile, keys []string) bool {
	for _, k := range keys {
		if _, ok := p.Schema.Lookup(k); !ok {
			return false
		}
	}
	return true
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
