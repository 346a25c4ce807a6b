package domain

import "strings"

// Theme is one of the reader color schemes.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeSepia Theme = "sepia"
)

// DefaultTheme is used when no progress has been saved for a book.
const DefaultTheme = ThemeLight

// Themes lists every supported theme in display order.
func Themes() []Theme {
	return []Theme{ThemeLight, ThemeDark, ThemeSepia}
}

// Valid reports whether t is a supported theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSepia:
		return true
	}
	return false
}

// ParseTheme parses a theme name case-insensitively.
func ParseTheme(s string) (Theme, bool) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}
