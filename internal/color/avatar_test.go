package color

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForUser(t *testing.T) {
	hex := regexp.MustCompile(`^#[0-9A-F]{6}$`)

	a := ForUser("user-abc")
	assert.Regexp(t, hex, a)
	assert.Equal(t, a, ForUser("user-abc"), "stable")
	assert.Regexp(t, hex, ForUser(""))
}

func TestHSLToRGB(t *testing.T) {
	r, g, b := hslToRGB(0, 1, 0.5)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})

	r, g, b = hslToRGB(120, 1, 0.5)
	assert.Equal(t, [3]uint8{0, 255, 0}, [3]uint8{r, g, b})

	r, g, b = hslToRGB(200, 0, 0.5)
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestInitials(t *testing.T) {
	tests := []struct{ name, want string }{
		{"Frank Herbert", "FH"},
		{"reader", "RE"},
		{"a", "A"},
		{"  mary-ann  shelley ", "MA"},
		{"émile zola", "ÉZ"},
		{"", "?"},
		{"!!", "?"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Initials(tt.name), tt.name)
	}
}
