package table

import (
	"testing"
	"time"

	"society/admin-service/internal/store"
)

func TestRenderers(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	row := store.Row{
		"currency": "inr",
		"gate":     store.Row{"name": "North"},
		"staff":    []store.Row{{"id": "1"}, {"id": "2"}},
	}

	cases := []struct {
		name   string
		render RenderFunc
		value  any
		want   string
	}{
		{"nil", func(v any, _ store.Row) string { return FormatValue(v) }, nil, ""},
		{"bool", func(v any, _ store.Row) string { return FormatValue(v) }, true, "Yes"},
		{"time", func(v any, _ store.Row) string { return FormatValue(v) }, at, "2026-03-14 09:30"},
		{"date", Date("02 Jan 2006"), at, "14 Mar 2026"},
		{"date string", Date("02 Jan 2006"), "2026-03-14T09:30:00Z", "14 Mar 2026"},
		{"date only string", Date("02 Jan 2006"), "2026-03-14", "14 Mar 2026"},
		{"status", Status, "in_progress", "In Progress"},
		{"status multibyte", Status, "été_ÉCHU", "Été Échu"},
		{"money", Money("currency"), int64(123456), "INR 1234.56"},
		{"negative money", Money("currency"), -5, "INR -0.05"},
		{"related", Related("gate", "name", "-"), nil, "North"},
		{"related missing", Related("building", "name", "-"), nil, "-"},
		{"count", Count("staff"), nil, "2"},
		{"truncate", Truncate(5), "Barrier arm stuck", "Barri…"},
		{"short", Truncate(50), "ok", "ok"},
	}
	for _, tc := range cases {
		if got := tc.render(tc.value, row); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
