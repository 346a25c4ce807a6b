// Package theme maps reader themes and font sizes onto rendering-engine style overrides.
package theme

import "github.com/shelfside/shelfside/internal/domain"

// Preset is the palette for one theme.
type Preset struct {
	Foreground string // body text color
	Background string // page and viewer background
	Border     string // rules and table borders
}

// Presets is an immutable theme-to-palette table.
type Presets struct {
	byTheme map[domain.Theme]Preset
}

// DefaultPresets returns the built-in light, dark and sepia palettes.
func DefaultPresets() Presets {
	return NewPresets(map[domain.Theme]Preset{
		domain.ThemeLight: {Foreground: "#1a1a1a", Background: "#ffffff", Border: "#e5e7eb"},
		domain.ThemeDark:  {Foreground: "#e5e5e5", Background: "#1a1a1a", Border: "#374151"},
		domain.ThemeSepia: {Foreground: "#5f4b32", Background: "#f6f1d1", Border: "#d9d0b0"},
	})
}

// NewPresets copies table into a new Presets value. Entries for unknown themes are dropped.
func NewPresets(table map[domain.Theme]Preset) Presets {
	byTheme := make(map[domain.Theme]Preset, len(table))
	for t, p := range table {
		if t.Valid() {
			byTheme[t] = p
		}
	}
	return Presets{byTheme: byTheme}
}

// Get returns the palette for t.
func (p Presets) Get(t domain.Theme) (Preset, bool) {
	preset, ok := p.byTheme[t]
	return preset, ok
}

// Rules returns the forced body styles registered with the engine for this palette.
func (p Preset) Rules() StyleRules {
	return StyleRules{
		"body": {
			"color":            p.Foreground + " !important",
			"background":       p.Background + " !important",
			"background-color": p.Background + " !important",
		},
		"hr, table, th, td": {
			"border-color": p.Border + " !important",
		},
	}
}
