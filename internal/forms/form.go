package forms

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"society/admin-service/internal/store"
	"society/admin-service/internal/table"
)

// Spec describes a struct backed form. Values maps the bound struct to the
// columns written; Normalize runs before validation.
type Spec[T any] struct {
	Entity    string
	Noun      string
	Defaults  T
	Values    func(T) store.Row
	Normalize func(*T)
}

type structForm[T any] struct {
	spec   Spec[T]
	binder *Binder
}

func New[T any](binder *Binder, spec Spec[T]) table.Form {
	return &structForm[T]{spec: spec, binder: binder}
}

func (f *structForm[T]) Entity() string {
	return f.spec.Entity
}

func (f *structForm[T]) Noun() string {
	return f.spec.Noun
}

func (f *structForm[T]) Title(editing bool) string {
	if editing {
		return "Edit " + f.spec.Noun
	}
	return "Add " + f.spec.Noun
}

// Fields returns the form's initial values: defaults for create, the edited
// row's values for update.
func (f *structForm[T]) Fields(edit store.Row) map[string]any {
	defaults := f.spec.Values(f.spec.Defaults)
	out := make(map[string]any, len(defaults))
	for k, v := range defaults {
		if edit != nil {
			if current, ok := edit[k]; ok {
				out[k] = formValue(current)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// Bind decodes payload over the defaults on create and over the edited
// row on update, so fields missing from an update keep their stored value.
func (f *structForm[T]) Bind(payload []byte, edit store.Row) (store.Row, error) {
	value := f.start(edit)
	if err := f.binder.Decode(payload, &value); err != nil {
		return nil, err
	}
	if f.spec.Normalize != nil {
		f.spec.Normalize(&value)
	}
	if err := f.binder.Validate(value); err != nil {
		return nil, err
	}
	return f.spec.Values(value), nil
}

func (f *structForm[T]) start(edit store.Row) T {
	value := f.spec.Defaults
	if edit == nil {
		return value
	}
	current := make(map[string]any)
	for k := range f.spec.Values(f.spec.Defaults) {
		if v, ok := edit[k]; ok {
			current[k] = formValue(v)
		}
	}
	raw, err := json.Marshal(current)
	if err != nil {
		return value
	}
	// Stored values that do not fit a field leave its default in place.
	_ = json.Unmarshal(raw, &value)
	return value
}

// formValue renders stored dates the way the form fields accept them.
func formValue(v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if h, m, s := t.Clock(); h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

// Registry selects the form of an entity by name.
type Registry struct {
	mu    sync.RWMutex
	forms map[string]table.Form
}

func NewRegistry() *Registry {
	return &Registry{forms: make(map[string]table.Form)}
}

func (r *Registry) Register(form table.Form) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.forms[form.Entity()]; exists {
		return fmt.Errorf("form for %q already registered", form.Entity())
	}
	r.forms[form.Entity()] = form
	return nil
}

func (r *Registry) Lookup(entity string) (table.Form, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	form, ok := r.forms[entity]
	return form, ok
}

func (r *Registry) Entities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.forms))
	for name := range r.forms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
