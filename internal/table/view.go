package table

import (
	"fmt"
	"strings"

	"society/admin-service/internal/store"
)

type ColumnView struct {
	Key    string `json:"key"`
	Header string `json:"header"`
}

type Cell struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type RowView struct {
	ID      string   `json:"id"`
	Cells   []Cell   `json:"cells"`
	Actions []string `json:"actions"`
}

// View is the rendered state of a table instance.
type View struct {
	Entity          string       `json:"entity"`
	Title           string       `json:"title"`
	Columns         []ColumnView `json:"columns"`
	Rows            []RowView    `json:"rows"`
	Pagination      Pagination   `json:"pagination"`
	Search          string       `json:"search"`
	SearchEnabled   bool         `json:"search_enabled"`
	Loading         bool         `json:"loading"`
	Error           bool         `json:"error"`
	EmptyMessage    string       `json:"empty_message,omitempty"`
	ReadOnly        bool         `json:"read_only"`
	Dialog          *DialogView  `json:"dialog,omitempty"`
	PendingDeleteID string       `json:"pending_delete_id,omitempty"`
	Toasts          []Toast      `json:"toasts"`
}

// View renders the current page and drains pending toasts into it.
func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	readOnly := m.cfg.ReadOnly || m.dialog.form == nil
	v := View{
		Entity:          m.cfg.Entity,
		Title:           m.cfg.Title,
		Columns:         make([]ColumnView, len(m.cfg.Columns)),
		Rows:            make([]RowView, 0, len(m.rows)),
		Pagination:      NewPagination(m.state.Page, m.cfg.pageSize(), m.total),
		SearchEnabled:   m.cfg.SearchEnabled(),
		Loading:         m.loading,
		Error:           m.failed,
		ReadOnly:        readOnly,
		Dialog:          m.dialog.view(),
		PendingDeleteID: m.pendingDelete,
		Toasts:          m.toasts,
	}
	if v.SearchEnabled {
		v.Search = m.state.Search
	}
	if v.Toasts == nil {
		v.Toasts = []Toast{}
	}
	m.toasts = nil

	for i, col := range m.cfg.Columns {
		v.Columns[i] = ColumnView{Key: col.Key, Header: col.Header}
	}
	actions := []string{"edit", "delete"}
	if readOnly {
		actions = []string{}
		if !m.cfg.ReadOnly {
			actions = []string{"delete"}
		}
	}
	for _, row := range m.rows {
		rv := RowView{ID: row.ID(), Cells: make([]Cell, len(m.cfg.Columns)), Actions: actions}
		for i, col := range m.cfg.Columns {
			rv.Cells[i] = Cell{Key: col.Key, Text: renderCell(col, row)}
		}
		v.Rows = append(v.Rows, rv)
	}
	if len(m.rows) == 0 && !m.loading {
		v.EmptyMessage = m.emptyMessage()
	}
	return v
}

func renderCell(col Column, row store.Row) string {
	if col.Render == nil {
		return FormatValue(row[col.Key])
	}
	return col.Render(row[col.Key], row)
}

// emptyMessage distinguishes an empty table from a search with no matches.
func (m *Manager) emptyMessage() string {
	label := m.cfg.label()
	term := strings.TrimSpace(m.state.Search)
	if term != "" && m.cfg.SearchEnabled() {
		return fmt.Sprintf("No %s found matching \"%s\"", label, term)
	}
	return fmt.Sprintf("No %s found", label)
}
