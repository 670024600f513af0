// Package entities declares the admin tables of the society management
// console and the forms that mutate them.
package entities

import (
	"fmt"
	"sort"

	"society/admin-service/internal/forms"
	"society/admin-service/internal/table"
)

// Registry pairs table configurations with their mutation forms.
type Registry struct {
	tables map[string]table.Config
	forms  *forms.Registry
}

func NewRegistry(tables []table.Config, registry *forms.Registry) (*Registry, error) {
	r := &Registry{tables: make(map[string]table.Config, len(tables)), forms: registry}
	for _, cfg := range tables {
		if _, exists := r.tables[cfg.Entity]; exists {
			return nil, fmt.Errorf("table %q declared twice", cfg.Entity)
		}
		r.tables[cfg.Entity] = cfg
	}
	for _, entity := range registry.Entities() {
		if _, ok := r.tables[entity]; !ok {
			return nil, fmt.Errorf("form %q has no table", entity)
		}
	}
	return r, nil
}

// Default builds the registry of every console table.
func Default(binder *forms.Binder, pageSize int) (*Registry, error) {
	tables := Tables()
	if pageSize > 0 {
		for i := range tables {
			if tables[i].PageSize == 0 {
				tables[i].PageSize = pageSize
			}
		}
	}
	registry := forms.NewRegistry()
	for _, form := range Forms(binder) {
		if err := registry.Register(form); err != nil {
			return nil, err
		}
	}
	return NewRegistry(tables, registry)
}

func (r *Registry) Table(entity string) (table.Config, bool) {
	cfg, ok := r.tables[entity]
	return cfg, ok
}

// Form returns nil when the entity is not editable.
func (r *Registry) Form(entity string) table.Form {
	form, ok := r.forms.Lookup(entity)
	if !ok {
		return nil
	}
	return form
}

func (r *Registry) Entities() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
