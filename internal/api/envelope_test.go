package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshalToMap(t *testing.T, v any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestEnvelopeTransformer_Success(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "200", map[string]string{"id": "book-1"})
	require.NoError(t, err)

	out := marshalToMap(t, result)
	assert.Equal(t, float64(EnvelopeVersion), out["v"])
	assert.Equal(t, true, out["success"])
	assert.Equal(t, map[string]any{"id": "book-1"}, out["data"])
	assert.NotContains(t, out, "error")
}

func TestEnvelopeTransformer_NilDataOmitted(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "204", nil)
	require.NoError(t, err)

	out := marshalToMap(t, result)
	assert.Equal(t, true, out["success"])
	assert.NotContains(t, out, "data")
	assert.NotContains(t, out, "version")
}

func TestEnvelopeTransformer_Error(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "409", &APIError{
		status:  409,
		Code:    "CONFLICT",
		Message: "This book has already been uploaded",
		Details: map[string]string{"book_id": "book-1"},
	})
	require.NoError(t, err)

	out := marshalToMap(t, result)
	assert.Equal(t, float64(EnvelopeVersion), out["v"])
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "This book has already been uploaded", out["error"])
	assert.Equal(t, "CONFLICT", out["code"])
	assert.Equal(t, map[string]any{"book_id": "book-1"}, out["details"])
}

func TestStatusToCode(t *testing.T) {
	assert.Equal(t, "VALIDATION", statusToCode(400))
	assert.Equal(t, "VALIDATION", statusToCode(422))
	assert.Equal(t, "UNAUTHORIZED", statusToCode(401))
	assert.Equal(t, "FORBIDDEN", statusToCode(403))
	assert.Equal(t, "NOT_FOUND", statusToCode(404))
	assert.Equal(t, "CONFLICT", statusToCode(409))
	assert.Equal(t, "TOO_MANY_REQUESTS", statusToCode(429))
	assert.Equal(t, "INTERNAL", statusToCode(500))
}
