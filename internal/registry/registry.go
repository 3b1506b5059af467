// Package registry maps engine names to their drivers.
package registry

import (
	"fmt"
	"sort"

	"github.com/san-kum/mosim/internal/dymola"
	"github.com/san-kum/mosim/internal/engine"
	"github.com/san-kum/mosim/internal/optimica"
	"github.com/san-kum/mosim/internal/reporter"
)

type Factory func(rep *reporter.Reporter) engine.Engine

type Registry struct {
	engines map[string]Factory
}

func New() *Registry {
	r := &Registry{engines: make(map[string]Factory)}

	r.engines["dymola"] = func(rep *reporter.Reporter) engine.Engine { return dymola.New(rep) }
	r.engines["optimica"] = func(rep *reporter.Reporter) engine.Engine { return optimica.New(rep) }

	return r
}

func (r *Registry) Get(name string, rep *reporter.Reporter) (engine.Engine, error) {
	fn, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown engine: %s (available: %v)", name, r.List())
	}
	return fn(rep), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
