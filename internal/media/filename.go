package media

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxFileNameBytes = 200

// SafeFileName makes an uploaded file name safe to store: characters that
// are reserved on common filesystems become "_", control characters are
// dropped and the result is NFC-normalized and length-capped.
func SafeFileName(name string) string {
	name = norm.NFC.String(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(`\/:*?"<>|`, r):
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)

	if name == "" || name == "." || name == ".." {
		return "file"
	}

	if len(name) > maxFileNameBytes {
		ext := ""
		if i := strings.LastIndexByte(name, '.'); i > 0 && len(name)-i <= 10 {
			ext = name[i:]
		}
		cut := maxFileNameBytes - len(ext)
		for cut > 0 && !utf8Start(name[cut]) {
			cut--
		}
		name = name[:cut] + ext
	}
	return name
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
