package table

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"society/admin-service/internal/metrics"
	"society/admin-service/internal/store"

	"go.uber.org/zap"
)

// Manager owns one table instance: the current page of rows, its total
// count, the mutation dialog and pending delete confirmation. Every remote
// failure becomes an error toast.
type Manager struct {
	mu     sync.Mutex
	store  store.Store
	cfg    Config
	scope  []store.Eq
	logger *zap.SugaredLogger

	state   State
	rows    []store.Row
	total   int
	loading bool
	failed  bool
	seq     uint64

	dialog        Dialog
	pendingDelete string
	toasts        []Toast
}

type Option func(*Manager)

// WithScope adds equality filters applied to every fetch, update and delete
// and forced into inserted rows.
func WithScope(filters ...store.Eq) Option {
	return func(m *Manager) { m.scope = append(m.scope, filters...) }
}

func WithForm(form Form) Option {
	return func(m *Manager) { m.dialog.form = form }
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(m *Manager) { m.logger = logger }
}

func WithState(state State) Option {
	return func(m *Manager) {
		m.state = state
		if m.state.Page < 1 {
			m.state.Page = 1
		}
	}
}

func NewManager(st store.Store, cfg Config, opts ...Option) *Manager {
	m := &Manager{
		store:  st,
		cfg:    cfg,
		logger: zap.NewNop().Sugar(),
		state:  State{Page: 1},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Config() Config {
	return m.cfg
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) SetPage(page int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if page < 1 {
		page = 1
	}
	m.state.Page = page
}

// SetSearch changes the search term and returns to the first page. It is a
// no-op when the table has no search fields.
func (m *Manager) SetSearch(term string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.cfg.SearchEnabled() {
		return
	}
	m.state.Search = term
	m.state.Page = 1
}

// Fetch loads the current page. A completion that is older than the latest
// started fetch is discarded.
func (m *Manager) Fetch(ctx context.Context) error {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.loading = true
	req := BuildRequest(m.cfg, m.state, m.scope...)
	m.mu.Unlock()

	result, err := m.store.Select(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	if seq != m.seq {
		return nil
	}
	m.loading = false
	if err != nil {
		m.rows = nil
		m.total = 0
		m.failed = true
		m.notify(ToastError, fmt.Sprintf("Failed to load %s: %v", m.cfg.label(), err))
		m.logger.Errorw("table fetch failed", "entity", m.cfg.Entity, "page", m.state.Page, "error", err)
		return err
	}
	m.failed = false
	m.rows = result.Rows
	m.total = result.Count
	return nil
}

func (m *Manager) Rows() []store.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Row(nil), m.rows...)
}

func (m *Manager) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// Create opens the dialog with create semantics.
func (m *Manager) Create() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writable(); err != nil {
		return err
	}
	m.dialog.Open(nil)
	return nil
}

// Edit opens the dialog pre-populated with the row id. Rows outside the
// current page are loaded from the store.
func (m *Manager) Edit(ctx context.Context, id string) error {
	m.mu.Lock()
	if err := m.writable(); err != nil {
		m.mu.Unlock()
		return err
	}
	for _, row := range m.rows {
		if row.ID() == id {
			m.dialog.Open(row)
			m.mu.Unlock()
			return nil
		}
	}
	filters := append(append([]store.Eq(nil), m.scope...), store.Eq{Column: "id", Value: id})
	m.mu.Unlock()

	result, err := m.store.Select(ctx, store.SelectRequest{
		Collection: m.cfg.Collection,
		Select:     m.cfg.Select,
		Filters:    filters,
		Range:      &store.Range{From: 0, To: 0},
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.notify(ToastError, fmt.Sprintf("Failed to load %s: %v", m.noun(), err))
		return err
	}
	if len(result.Rows) == 0 {
		m.notify(ToastError, fmt.Sprintf("%s not found", m.noun()))
		return store.ErrNotFound
	}
	m.dialog.Open(result.Rows[0])
	return nil
}

// CloseDialog cancels the dialog without writing.
func (m *Manager) CloseDialog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialog.Close()
}

func (m *Manager) DialogOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dialog.IsOpen()
}

func (m *Manager) EditingItem() store.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dialog.EditingItem()
}

// Submit binds payload through the dialog's form and inserts or updates the
// row. On success the dialog closes and the current page is re-fetched; on
// failure the dialog stays open.
func (m *Manager) Submit(ctx context.Context, payload []byte) (store.Row, error) {
	m.mu.Lock()
	if !m.dialog.IsOpen() || m.dialog.form == nil {
		m.mu.Unlock()
		return nil, ErrDialogClosed
	}
	form := m.dialog.form
	editing := m.dialog.EditingItem()
	scope := append([]store.Eq(nil), m.scope...)
	m.mu.Unlock()

	verb := "create"
	if editing != nil {
		verb = "update"
	}

	values, err := form.Bind(payload, editing)
	if err != nil {
		m.fail(fmt.Sprintf("Failed to %s %s: %v", verb, strings.ToLower(form.Noun()), err))
		return nil, err
	}
	if values == nil {
		values = store.Row{}
	}

	var saved store.Row
	if editing != nil {
		for _, f := range scope {
			delete(values, f.Column)
		}
		saved, err = m.store.Update(ctx, m.cfg.Collection, editing.ID(), values, scope...)
	} else {
		for _, f := range scope {
			values[f.Column] = f.Value
		}
		saved, err = m.store.Insert(ctx, m.cfg.Collection, values)
	}
	if err != nil {
		m.logger.Errorw("table mutation failed", "entity", m.cfg.Entity, "action", verb, "error", err)
		m.fail(fmt.Sprintf("Failed to %s %s: %v", verb, strings.ToLower(form.Noun()), err))
		return nil, err
	}

	m.mu.Lock()
	m.dialog.Close()
	m.notify(ToastSuccess, fmt.Sprintf("%s %sd successfully", form.Noun(), verb))
	m.mu.Unlock()

	_ = m.Fetch(ctx)
	return saved, nil
}

// RequestDelete asks for confirmation before deleting id.
func (m *Manager) RequestDelete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg.ReadOnly {
		return ErrReadOnly
	}
	m.pendingDelete = id
	return nil
}

func (m *Manager) CancelDelete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingDelete = ""
}

func (m *Manager) PendingDelete() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingDelete
}

// ConfirmDelete deletes the pending row and re-fetches. When the deletion
// empties the last page the previous page is shown instead.
func (m *Manager) ConfirmDelete(ctx context.Context) error {
	m.mu.Lock()
	id := m.pendingDelete
	m.pendingDelete = ""
	scope := append([]store.Eq(nil), m.scope...)
	m.mu.Unlock()
	if id == "" {
		return ErrNoPendingDelete
	}

	if err := m.store.Delete(ctx, m.cfg.Collection, id, scope...); err != nil {
		m.logger.Errorw("table delete failed", "entity", m.cfg.Entity, "id", id, "error", err)
		m.fail(fmt.Sprintf("Failed to delete %s: %v", strings.ToLower(m.noun()), err))
		return err
	}
	m.mu.Lock()
	m.notify(ToastSuccess, fmt.Sprintf("%s deleted successfully", m.noun()))
	m.mu.Unlock()

	if err := m.Fetch(ctx); err != nil {
		return nil
	}
	m.mu.Lock()
	last := TotalPages(m.total, m.cfg.pageSize())
	stepBack := len(m.rows) == 0 && last > 0 && m.state.Page > last
	if stepBack {
		m.state.Page = last
	}
	m.mu.Unlock()
	if stepBack {
		_ = m.Fetch(ctx)
	}
	return nil
}

// Toasts returns and clears the notifications raised so far.
func (m *Manager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.toasts
	m.toasts = nil
	return out
}

func (m *Manager) writable() error {
	if m.cfg.ReadOnly || m.dialog.form == nil {
		return ErrReadOnly
	}
	return nil
}

func (m *Manager) noun() string {
	if m.dialog.form != nil {
		return m.dialog.form.Noun()
	}
	return "Record"
}

func (m *Manager) fail(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notify(ToastError, message)
}

// notify must be called with mu held.
func (m *Manager) notify(level ToastLevel, message string) {
	m.toasts = append(m.toasts, Toast{Level: level, Message: message})
	metrics.ToastsTotal.WithLabelValues(string(level)).Inc()
}
