package table

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"society/admin-service/internal/store"
)

const dateTimeLayout = "2006-01-02 15:04"

// FormatValue is the renderer used for columns without a Render func.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.UTC().Format(dateTimeLayout)
	case *time.Time:
		if v == nil {
			return ""
		}
		return FormatValue(*v)
	default:
		return fmt.Sprint(v)
	}
}

// Date formats time values with layout; strings are parsed as RFC 3339 first.
func Date(layout string) RenderFunc {
	return func(value any, _ store.Row) string {
		switch v := value.(type) {
		case time.Time:
			if v.IsZero() {
				return ""
			}
			return v.UTC().Format(layout)
		case string:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return t.UTC().Format(layout)
			}
			if t, err := time.Parse(time.DateOnly, v); err == nil {
				return t.Format(layout)
			}
			return v
		default:
			return FormatValue(value)
		}
	}
}

// Status renders snake_case enum values as words: "in_progress" -> "In Progress".
func Status(value any, _ store.Row) string {
	raw := FormatValue(value)
	if raw == "" {
		return ""
	}
	words := strings.Fields(strings.ReplaceAll(raw, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// Money renders an integer amount of minor units using the row's currency column.
func Money(currencyColumn string) RenderFunc {
	return func(value any, row store.Row) string {
		var cents int64
		switch v := value.(type) {
		case nil:
			return ""
		case int:
			cents = int64(v)
		case int32:
			cents = int64(v)
		case int64:
			cents = v
		case float64:
			cents = int64(v)
		default:
			return FormatValue(value)
		}
		currency := strings.ToUpper(FormatValue(row[currencyColumn]))
		sign := ""
		if cents < 0 {
			sign, cents = "-", -cents
		}
		amount := fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
		if currency == "" {
			return amount
		}
		return currency + " " + amount
	}
}

// Related renders key of the embedded row stored under alias, or fallback
// when the relation is empty.
func Related(alias, key, fallback string) RenderFunc {
	return func(_ any, row store.Row) string {
		parent, ok := row[alias].(store.Row)
		if !ok || parent == nil {
			return fallback
		}
		if s := FormatValue(parent[key]); s != "" {
			return s
		}
		return fallback
	}
}

// Count renders the size of a to-many embed.
func Count(alias string) RenderFunc {
	return func(_ any, row store.Row) string {
		children, _ := row[alias].([]store.Row)
		return fmt.Sprint(len(children))
	}
}

func Truncate(n int) RenderFunc {
	return func(value any, _ store.Row) string {
		s := FormatValue(value)
		r := []rune(s)
		if len(r) <= n {
			return s
		}
		return string(r[:n]) + "…"
	}
}
