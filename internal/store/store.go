package store

import (
	"context"
	"fmt"
)

// Row is one record of a collection keyed by column name.
type Row map[string]any

func (r Row) ID() string {
	if r == nil {
		return ""
	}
	switch v := r["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

type CountMode int

const (
	CountNone CountMode = iota
	CountExact
)

// Eq is an equality predicate on one column.
type Eq struct {
	Column string
	Value  any
}

// Search ORs case-insensitive substring matches of Term across Fields.
type Search struct {
	Fields []string
	Term   string
}

type Order struct {
	Column    string
	Ascending bool
}

// Range selects rows From..To, both inclusive and zero based.
type Range struct {
	From int
	To   int
}

func (r Range) Limit() int {
	return r.To - r.From + 1
}

type SelectRequest struct {
	Collection string
	Select     string
	Filters    []Eq
	Search     *Search
	Order      *Order
	Range      *Range
	Count      CountMode
}

type SelectResult struct {
	Rows  []Row
	Count int
}

type Store interface {
	Select(ctx context.Context, req SelectRequest) (SelectResult, error)
	Insert(ctx context.Context, collection string, values Row) (Row, error)
	Update(ctx context.Context, collection, id string, values Row, filters ...Eq) (Row, error)
	Delete(ctx context.Context, collection, id string, filters ...Eq) error
}
