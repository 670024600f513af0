// Package theme keeps the per-tenant console theme and renders it as CSS
// custom properties.
package theme

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var ErrInvalidTheme = errors.New("invalid theme")

const (
	ModeLight = "light"
	ModeDark  = "dark"
)

type Theme struct {
	Mode       string `json:"mode"`
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	Radius     string `json:"radius"`
	Font       string `json:"font"`
}

func Default() Theme {
	return Theme{
		Mode:       ModeLight,
		Primary:    "#2563eb",
		Secondary:  "#64748b",
		Accent:     "#f59e0b",
		Background: "#ffffff",
		Foreground: "#0f172a",
		Radius:     "0.5rem",
		Font:       "Inter, sans-serif",
	}
}

var (
	hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	cssSize  = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?(px|rem|em)$`)
)

// Validate checks every color is #rgb or #rrggbb and the mode is light or dark.
func (t Theme) Validate() error {
	if t.Mode != ModeLight && t.Mode != ModeDark {
		return fmt.Errorf("%w: mode must be %q or %q", ErrInvalidTheme, ModeLight, ModeDark)
	}
	colors := map[string]string{
		"primary":    t.Primary,
		"secondary":  t.Secondary,
		"accent":     t.Accent,
		"background": t.Background,
		"foreground": t.Foreground,
	}
	for _, name := range sortedKeys(colors) {
		if !hexColor.MatchString(colors[name]) {
			return fmt.Errorf("%w: %s must be a hex color", ErrInvalidTheme, name)
		}
	}
	if t.Radius != "" && !cssSize.MatchString(t.Radius) {
		return fmt.Errorf("%w: radius must be a css length", ErrInvalidTheme)
	}
	if strings.ContainsAny(t.Font, ";{}<>") {
		return fmt.Errorf("%w: font contains reserved characters", ErrInvalidTheme)
	}
	return nil
}

// Variables maps CSS custom property names to values.
func (t Theme) Variables() map[string]string {
	vars := map[string]string{
		"--primary":    t.Primary,
		"--secondary":  t.Secondary,
		"--accent":     t.Accent,
		"--background": t.Background,
		"--foreground": t.Foreground,
	}
	if t.Radius != "" {
		vars["--radius"] = t.Radius
	}
	if t.Font != "" {
		vars["--font-sans"] = t.Font
	}
	return vars
}

// CSS renders the theme as a :root rule. Dark mode also sets color-scheme.
func (t Theme) CSS() string {
	vars := t.Variables()
	var b strings.Builder
	b.WriteString(":root {\n")
	if t.Mode == ModeDark {
		b.WriteString("  color-scheme: dark;\n")
	} else {
		b.WriteString("  color-scheme: light;\n")
	}
	for _, name := range sortedKeys(vars) {
		fmt.Fprintf(&b, "  %s: %s;\n", name, vars[name])
	}
	b.WriteString("}\n")
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
