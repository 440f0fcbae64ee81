package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// DocsHandler serves the embedded OpenAPI document and a Swagger UI page.
type DocsHandler struct {
	spec []byte
	etag string
}

// NewDocsHandler creates a docs handler for the given OpenAPI YAML.
func NewDocsHandler(spec []byte) *DocsHandler {
	sum := sha256.Sum256(spec)
	return &DocsHandler{spec: spec, etag: `"` + hex.EncodeToString(sum[:8]) + `"`}
}

// OpenAPISpec serves the raw YAML, honouring If-None-Match.
func (h *DocsHandler) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", h.etag)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if r.Header.Get("If-None-Match") == h.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(h.spec)
}

// SwaggerUI serves a page that loads Swagger UI from a CDN and points it at
// the OpenAPI document.
func (h *DocsHandler) SwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(swaggerPage))
}

const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>convcom API</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({ url: "/api/docs/openapi.yaml", dom_id: "#swagger-ui" });
  </script>
</body>
</html>`
