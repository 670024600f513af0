package table

import (
	"errors"

	"society/admin-service/internal/store"
)

var (
	ErrReadOnly        = errors.New("table is read only")
	ErrDialogClosed    = errors.New("dialog is not open")
	ErrNoPendingDelete = errors.New("no delete awaiting confirmation")
)

// Form is the entity specific part of the mutation dialog. Bind decodes and
// validates a submitted payload into the values to write; a non-nil edit row
// supplies the values of fields the payload omits.
type Form interface {
	Entity() string
	Noun() string
	Title(editing bool) string
	Fields(edit store.Row) map[string]any
	Bind(payload []byte, edit store.Row) (store.Row, error)
}

// Dialog hosts a Form. A non-nil editing row means update semantics.
type Dialog struct {
	form    Form
	open    bool
	editing store.Row
}

func (d *Dialog) Open(edit store.Row) {
	d.open = true
	d.editing = edit.Clone()
}

func (d *Dialog) Close() {
	d.open = false
	d.editing = nil
}

func (d *Dialog) IsOpen() bool {
	return d.open
}

func (d *Dialog) EditingItem() store.Row {
	return d.editing
}

func (d *Dialog) Title() string {
	if d.form == nil {
		return ""
	}
	return d.form.Title(d.editing != nil)
}

type DialogView struct {
	Title     string         `json:"title"`
	Editing   bool           `json:"editing"`
	EditingID string         `json:"editing_id,omitempty"`
	Fields    map[string]any `json:"fields"`
}

func (d *Dialog) view() *DialogView {
	if !d.open || d.form == nil {
		return nil
	}
	return &DialogView{
		Title:     d.Title(),
		Editing:   d.editing != nil,
		EditingID: d.editing.ID(),
		Fields:    d.form.Fields(d.editing),
	}
}
