package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocsHandler_ETag(t *testing.T) {
	h := NewDocsHandler([]byte("openapi: 3.0.3\n"))

	rec := httptest.NewRecorder()
	h.OpenAPISpec(rec, httptest.NewRequest(http.MethodGet, "/api/docs/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "openapi: 3.0.3\n", rec.Body.String())
	etag := rec.Header().Get("ETag")
	assert.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/docs/openapi.yaml", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.OpenAPISpec(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestDocsHandler_SwaggerUI(t *testing.T) {
	rec := httptest.NewRecorder()
	NewDocsHandler(nil).SwaggerUI(rec, httptest.NewRequest(http.MethodGet, "/api/docs", nil))
	assert.Contains(t, rec.Body.String(), "/api/docs/openapi.yaml")
}
