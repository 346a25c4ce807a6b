package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
)

// ErrInvalidDataURL is returned for a cover that is not a base64 image data URL.
var ErrInvalidDataURL = errors.New("invalid image data url")

// DetectImageType sniffs the image format from its magic bytes and returns
// the MIME type, or "" when unrecognized.
func DetectImageType(data []byte) string {
	switch {
	case len(data) < 8:
		return ""
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return "image/png"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "image/gif"
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && string(data[8:12]) == "WEBP":
		return "image/webp"
	}
	return ""
}

// DecodeDataURL decodes a "data:image/...;base64," URL as sent by clients
// for extracted EPUB covers. The payload must be a recognizable image.
func DecodeDataURL(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasPrefix(meta, "image/") || !strings.HasSuffix(meta, ";base64") {
		return nil, "", ErrInvalidDataURL
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", errors.Join(ErrInvalidDataURL, err)
	}
	mime := DetectImageType(data)
	if mime == "" {
		return nil, "", ErrInvalidDataURL
	}
	return data, mime, nil
}
