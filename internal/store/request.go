package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Prepare validates every identifier of req against the catalog and returns
// the resolved projection plan.
func (c Catalog) Prepare(req SelectRequest) (Plan, error) {
	plan, err := c.Plan(req.Collection, req.Select)
	if err != nil {
		return Plan{}, err
	}
	for _, f := range req.Filters {
		if err := c.CheckColumns(req.Collection, f.Column); err != nil {
			return Plan{}, err
		}
	}
	if req.Search != nil {
		if err := c.CheckColumns(req.Collection, req.Search.Fields...); err != nil {
			return Plan{}, err
		}
	}
	if req.Order != nil {
		if err := c.CheckColumns(req.Collection, req.Order.Column); err != nil {
			return Plan{}, err
		}
	}
	if req.Range != nil && (req.Range.From < 0 || req.Range.To < req.Range.From) {
		return Plan{}, fmt.Errorf("%w: range %d-%d", ErrInvalidSelect, req.Range.From, req.Range.To)
	}
	return plan, nil
}

// Active reports whether the search carries a term and at least one field.
func (s *Search) Active() bool {
	return s != nil && len(s.Fields) > 0 && strings.TrimSpace(s.Term) != ""
}

// WritableColumns returns the sorted keys of values after checking them
// against the collection.
func (c Catalog) WritableColumns(collection string, values Row) ([]string, error) {
	if len(values) == 0 {
		return nil, ErrEmptyValues
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if err := c.CheckColumns(collection, keys...); err != nil {
		return nil, err
	}
	return keys, nil
}

// TenantValue returns the value a tenant filter in filters pins the
// collection's tenant column to, or nil when the collection is not tenant
// owned or no such filter is present.
func (c Collection) TenantValue(filters []Eq) any {
	if c.TenantColumn == "" {
		return nil
	}
	for _, f := range filters {
		if f.Column == c.TenantColumn {
			return f.Value
		}
	}
	return nil
}

// TenantOf returns the tenant column value of a row about to be written.
func (c Collection) TenantOf(values Row) any {
	if c.TenantColumn == "" {
		return nil
	}
	return values[c.TenantColumn]
}

// Exister reports whether coll holds a row with id that satisfies filters.
type Exister func(ctx context.Context, coll Collection, id string, filters []Eq) (bool, error)

// CheckReferences verifies that every foreign key in values pointing at a
// tenant owned collection resolves to a row of tenant. A nil tenant skips
// the check.
func (c Catalog) CheckReferences(ctx context.Context, collection string, values Row, tenant any, exists Exister) error {
	if tenant == nil {
		return nil
	}
	coll, err := c.Lookup(collection)
	if err != nil {
		return err
	}
	columns := make([]string, 0, len(coll.References))
	for col := range coll.References {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	for _, col := range columns {
		id := KeyString(values[col])
		if id == "" {
			continue
		}
		target, err := c.Lookup(coll.References[col])
		if err != nil {
			return err
		}
		if target.TenantColumn == "" {
			continue
		}
		ok, err := exists(ctx, target, id, []Eq{{Column: target.TenantColumn, Value: tenant}})
		if err != nil {
			return fmt.Errorf("check %s.%s: %w", collection, col, err)
		}
		if !ok {
			return &ReferenceError{Column: col, Collection: target.Name}
		}
	}
	return nil
}
