package table

import (
	"strings"

	"society/admin-service/internal/store"
)

const DefaultPageSize = 10

// RenderFunc formats one cell; row is the full record including embeds.
type RenderFunc func(value any, row store.Row) string

type Column struct {
	Key    string
	Header string
	Render RenderFunc
}

type OrderBy struct {
	Column    string
	Ascending bool
}

// Config declares one entity table. Entity is the registry key, Collection
// the remote collection it reads, Label the plural used in messages
// ("vehicle whitelists").
type Config struct {
	Entity       string
	Collection   string
	Title        string
	Label        string
	Select       string
	Columns      []Column
	OrderBy      OrderBy
	PageSize     int
	SearchFields []string
	Filters      []store.Eq
	ReadOnly     bool
	AdminOnly    bool
}

func (c Config) pageSize() int {
	if c.PageSize <= 0 {
		return DefaultPageSize
	}
	return c.PageSize
}

// DisplayLabel is Label, or the collection name with spaces for underscores.
func (c Config) DisplayLabel() string {
	return c.label()
}

func (c Config) label() string {
	if c.Label != "" {
		return c.Label
	}
	return strings.ReplaceAll(c.Collection, "_", " ")
}

// SearchEnabled is false when no search fields are configured; the search
// input is then a no-op.
func (c Config) SearchEnabled() bool {
	return len(c.SearchFields) > 0
}

// State is the user controlled part of a table: current page and search term.
type State struct {
	Page   int
	Search string
}

type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
)

type Toast struct {
	Level   ToastLevel `json:"level"`
	Message string     `json:"message"`
}
