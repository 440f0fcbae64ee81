// Package api holds the OpenAPI description of the HTTP API.
package api

import _ "embed"

// OpenAPISpec is the OpenAPI 3 document served at /api/docs/openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
