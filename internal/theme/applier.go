package theme

import (
	"log/slog"
	"strconv"

	"github.com/shelfside/shelfside/internal/domain"
)

// StyleRules maps a CSS selector to its property declarations.
type StyleRules map[string]map[string]string

// Registry is the engine-side theme surface of a rendition.
type Registry interface {
	Register(name string, rules StyleRules)
	Select(name string)
	Override(property, value string)
	FontSize(value string)
}

// Applier pushes theme and font settings into a Registry. Every call
// overwrites the same overrides, so applying the same settings twice leaves
// the rendition exactly as applying them once.
type Applier struct {
	presets Presets
	logger  *slog.Logger
}

// NewApplier creates an applier over presets.
func NewApplier(presets Presets, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Applier{presets: presets, logger: logger}
}

// Register installs every known preset on reg.
func (a *Applier) Register(reg Registry) {
	for _, t := range domain.Themes() {
		if preset, ok := a.presets.Get(t); ok {
			reg.Register(string(t), preset.Rules())
		}
	}
}

// Apply sets the theme overrides and the font size on reg. An unknown theme
// is logged and skipped; the font size is still applied after clamping.
func (a *Applier) Apply(reg Registry, t domain.Theme, fontSize int) {
	a.ApplyTheme(reg, t)
	a.ApplyFontSize(reg, fontSize)
}

// ApplyTheme sets only the color overrides and selects t.
func (a *Applier) ApplyTheme(reg Registry, t domain.Theme) {
	preset, ok := a.presets.Get(t)
	if !ok {
		a.logger.Warn("ignoring unknown reader theme", "theme", t)
		return
	}
	reg.Override("color", preset.Foreground)
	reg.Override("background", preset.Background)
	reg.Override("background-color", preset.Background)
	reg.Select(string(t))
}

// ApplyFontSize clamps size and sets it as a percentage.
func (a *Applier) ApplyFontSize(reg Registry, size int) {
	reg.FontSize(FontSizeValue(size))
}

// FontSizeValue formats a font size as the engine expects it, e.g. "120%".
func FontSizeValue(size int) string {
	return strconv.Itoa(domain.ClampFontSize(size)) + "%"
}
