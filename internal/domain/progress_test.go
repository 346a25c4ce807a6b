package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampFontSize(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"default stays", 100, 100},
		{"rounds down below half", 104, 100},
		{"rounds half up", 105, 110},
		{"rounds up above half", 117, 120},
		{"clamps below minimum", 40, 80},
		{"clamps zero", 0, 80},
		{"clamps negative", -30, 80},
		{"clamps above maximum", 200, 150},
		{"rounding past maximum clamps", 155, 150},
		{"minimum edge", 80, 80},
		{"maximum edge", 150, 150},
		{"just under minimum rounds to minimum", 76, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampFontSize(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Zero(t, got%FontSizeStep)
			assert.GreaterOrEqual(t, got, MinFontSize)
			assert.LessOrEqual(t, got, MaxFontSize)
		})
	}
}

func TestClampFontSize_Idempotent(t *testing.T) {
	for size := -50; size <= 300; size++ {
		once := ClampFontSize(size)
		assert.Equal(t, once, ClampFontSize(once), "size %d", size)
	}
}

func TestProgressKey(t *testing.T) {
	key := ProgressKey("book-abc")
	assert.Equal(t, "reading-progress-book-abc", key)

	id, ok := BookIDFromProgressKey(key)
	assert.True(t, ok)
	assert.Equal(t, "book-abc", id)

	_, ok = BookIDFromProgressKey("device-id")
	assert.False(t, ok)
	_, ok = BookIDFromProgressKey("reading-progress-")
	assert.False(t, ok)
}

func TestNewReadingProgress(t *testing.T) {
	p := NewReadingProgress("b1")

	assert.Equal(t, "b1", p.BookID)
	assert.Equal(t, ThemeLight, p.Theme)
	assert.Equal(t, DefaultFontSize, p.FontSize)
	assert.False(t, p.HasLocation())
}

func TestParseTheme(t *testing.T) {
	theme, ok := ParseTheme(" Sepia ")
	assert.True(t, ok)
	assert.Equal(t, ThemeSepia, theme)

	_, ok = ParseTheme("solarized")
	assert.False(t, ok)
	assert.Len(t, Themes(), 3)
}
