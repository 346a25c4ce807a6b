package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfside/shelfside/internal/domain"
)

func TestHealth_Healthy(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decodeEnvelope[HealthResponse](t, resp).Data
	assert.Equal(t, statusHealthy, health.Status)
	assert.Equal(t, statusHealthy, health.Components["database"].Status)
	assert.Equal(t, statusHealthy, health.Components["search"].Status)
	assert.Equal(t, "0 documents", health.Components["search"].Message)
}

func TestHealth_DegradedWhenIndexMissesBooks(t *testing.T) {
	ts := setupTestServer(t)
	admin, _ := ts.createUser(t, "admin", domain.RoleAdmin)
	book := ts.uploadBook(t, admin, "dune.epub", "dune", nil)

	resp := ts.api.Get("/health")
	assert.Equal(t, "1 document", decodeEnvelope[HealthResponse](t, resp).Data.Components["search"].Message)

	require.NoError(t, ts.index.Delete(book.ID))

	resp = ts.api.Get("/health")
	health := decodeEnvelope[HealthResponse](t, resp).Data
	assert.Equal(t, statusDegraded, health.Status)
	assert.Equal(t, statusDegraded, health.Components["search"].Status)
}
