// Package registry holds the static mapping of logical service names to
// backend base URLs.
package registry

import (
	"fmt"
	"net/url"
	"sync/atomic"
)

type entry struct {
	targets []*url.URL
	next    atomic.Uint64
}

type Registry struct {
	services map[string]*entry
}

func New() *Registry {
	return &Registry{services: map[string]*entry{}}
}

// Add registers the targets for a logical service. Invalid or empty
// target lists are configuration errors.
func (r *Registry) Add(name string, rawURLs []string) error {
	if len(rawURLs) == 0 {
		return fmt.Errorf("registry: no targets for %s", name)
	}
	e := &entry{}
	for _, raw := range rawURLs {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("registry: target %q for %s: %w", raw, name, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("registry: target %q for %s: missing scheme or host", raw, name)
		}
		e.targets = append(e.targets, u)
	}
	r.services[name] = e
	return nil
}

// Next returns the next target for a service, round-robin. With a
// single target the answer is constant.
func (r *Registry) Next(name string) (*url.URL, error) {
	e, ok := r.services[name]
	if !ok {
		return nil, fmt.Errorf("registry: unknown service %s", name)
	}
	n := e.next.Add(1) - 1
	return e.targets[n%uint64(len(e.targets))], nil
}
