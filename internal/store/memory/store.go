package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"society/admin-service/internal/store"

	"github.com/google/uuid"
)

// Store keeps collections in process memory with the same query semantics as
// the postgres store. It backs local development and tests.
type Store struct {
	mu      sync.RWMutex
	catalog store.Catalog
	tables  map[string][]store.Row
	now     func() time.Time
}

func NewStore(catalog store.Catalog) *Store {
	return &Store{
		catalog: catalog,
		tables:  make(map[string][]store.Row),
		now:     time.Now,
	}
}

// Seed inserts rows as given, generating ids where missing. Foreign keys
// are not checked, so fixtures may hold rows whose parents are elsewhere.
func (s *Store) Seed(collection string, rows ...store.Row) error {
	for _, row := range rows {
		if _, err := s.insert(collection, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Select(ctx context.Context, req store.SelectRequest) (store.SelectResult, error) {
	plan, err := s.catalog.Prepare(req)
	if err != nil {
		return store.SelectResult{}, err
	}

	s.mu.RLock()
	var matched []store.Row
	for _, row := range s.tables[req.Collection] {
		if matchesFilters(row, req.Filters) && matchesSearch(row, req.Search) {
			matched = append(matched, row)
		}
	}
	s.mu.RUnlock()

	if req.Order != nil {
		col, asc := req.Order.Column, req.Order.Ascending
		sort.SliceStable(matched, func(i, j int) bool {
			c := compareValues(matched[i][col], matched[j][col])
			if c == 0 {
				return matched[i].ID() < matched[j].ID()
			}
			if asc {
				return c < 0
			}
			return c > 0
		})
	}

	result := store.SelectResult{Count: len(matched)}
	if req.Range != nil {
		from, to := req.Range.From, req.Range.To+1
		if from > len(matched) {
			from = len(matched)
		}
		if to > len(matched) {
			to = len(matched)
		}
		matched = matched[from:to]
	}
	result.Rows = project(matched, plan.Columns)
	if err := plan.Attach(ctx, result.Rows, s.fetch, plan.Collection.TenantValue(req.Filters)); err != nil {
		return store.SelectResult{}, err
	}
	if req.Count != store.CountExact {
		result.Count = len(result.Rows)
	}
	return result, nil
}

func (s *Store) fetch(_ context.Context, plan store.Plan, column string, values []string, filters []store.Eq) ([]store.Row, error) {
	want := make(map[string]bool, len(values))
	for _, v := range values {
		want[v] = true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Row
	for _, row := range s.tables[plan.Collection.Name] {
		if want[store.KeyString(row[column])] && matchesFilters(row, filters) {
			out = append(out, row)
		}
	}
	return project(out, plan.Columns), nil
}

func (s *Store) Insert(ctx context.Context, collection string, values store.Row) (store.Row, error) {
	coll, err := s.catalog.Lookup(collection)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.CheckReferences(ctx, collection, values, coll.TenantOf(values), s.exists); err != nil {
		return nil, err
	}
	return s.insert(collection, values)
}

func (s *Store) insert(collection string, values store.Row) (store.Row, error) {
	coll, err := s.catalog.Lookup(collection)
	if err != nil {
		return nil, err
	}
	row := values.Clone()
	if row.ID() == "" {
		row["id"] = uuid.NewString()
	}
	now := s.now().UTC()
	for _, col := range []string{"created_at", "updated_at"} {
		if coll.HasColumn(col) && row[col] == nil {
			row[col] = now
		}
	}
	if _, err := s.catalog.WritableColumns(collection, row); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tables[collection] {
		if existing.ID() == row.ID() {
			return nil, fmt.Errorf("insert %s: duplicate id %s", collection, row.ID())
		}
	}
	s.tables[collection] = append(s.tables[collection], row)
	return row.Clone(), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, values store.Row, filters ...store.Eq) (store.Row, error) {
	coll, err := s.catalog.Lookup(collection)
	if err != nil {
		return nil, err
	}
	values = values.Clone()
	delete(values, "id")
	if _, err := s.catalog.WritableColumns(collection, values); err != nil {
		return nil, err
	}
	if err := checkFilters(coll, filters); err != nil {
		return nil, err
	}
	if err := s.catalog.CheckReferences(ctx, collection, values, coll.TenantValue(filters), s.exists); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.tables[collection] {
		if row.ID() != id || !matchesFilters(row, filters) {
			continue
		}
		for k, v := range values {
			row[k] = v
		}
		if coll.HasColumn("updated_at") && values["updated_at"] == nil {
			row["updated_at"] = s.now().UTC()
		}
		return row.Clone(), nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) Delete(_ context.Context, collection, id string, filters ...store.Eq) error {
	coll, err := s.catalog.Lookup(collection)
	if err != nil {
		return err
	}
	if err := checkFilters(coll, filters); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.tables[collection]
	for i, row := range rows {
		if row.ID() == id && matchesFilters(row, filters) {
			s.tables[collection] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) exists(_ context.Context, coll store.Collection, id string, filters []store.Eq) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.tables[coll.Name] {
		if row.ID() == id && matchesFilters(row, filters) {
			return true, nil
		}
	}
	return false, nil
}

func checkFilters(coll store.Collection, filters []store.Eq) error {
	for _, f := range filters {
		if !coll.HasColumn(f.Column) {
			return fmt.Errorf("%w: %s.%s", store.ErrUnknownColumn, coll.Name, f.Column)
		}
	}
	return nil
}

func matchesFilters(row store.Row, filters []store.Eq) bool {
	for _, f := range filters {
		if row[f.Column] == nil || store.KeyString(row[f.Column]) != store.KeyString(f.Value) {
			return false
		}
	}
	return true
}

func matchesSearch(row store.Row, search *store.Search) bool {
	if !search.Active() {
		return true
	}
	term := strings.ToLower(strings.TrimSpace(search.Term))
	for _, field := range search.Fields {
		if row[field] == nil {
			continue
		}
		if strings.Contains(strings.ToLower(fmt.Sprint(row[field])), term) {
			return true
		}
	}
	return false
}

func project(rows []store.Row, columns []string) []store.Row {
	out := make([]store.Row, len(rows))
	for i, row := range rows {
		projected := make(store.Row, len(columns))
		for _, col := range columns {
			projected[col] = row[col]
		}
		out[i] = projected
	}
	return out
}

// compareValues orders nil first, then numbers, times and strings by value.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(strings.ToLower(fmt.Sprint(a)), strings.ToLower(fmt.Sprint(b)))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
