// Package openapi generates the service's OpenAPI 3.0 document from a
// registry of described endpoints, so the served spec never drifts from the
// routes actually mounted.
package openapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

// Endpoint describes one operation for the generated document.
type Endpoint struct {
	Method      string
	Path        string
	Summary     string
	Tag         string
	Open        bool   // no bearer token required
	RequestRef  string // component schema name for the request body
	ResponseRef string // component schema name for the 200/201 response
}

// Generator builds an OpenAPI 3.0 spec from registered endpoints.
type Generator struct {
	title     string
	version   string
	baseURL   string
	endpoints []Endpoint
	schemas   map[string]interface{}
}

func NewGenerator(title, version, baseURL string) *Generator {
	return &Generator{
		title:   title,
		version: version,
		baseURL: baseURL,
		schemas: map[string]interface{}{},
	}
}

// Register adds endpoints to the document.
func (g *Generator) Register(endpoints ...Endpoint) {
	g.endpoints = append(g.endpoints, endpoints...)
}

// RegisterSchema adds a named component schema.
func (g *Generator) RegisterSchema(name string, schema map[string]interface{}) {
	g.schemas[name] = schema
}

// GenerateSpec produces the OpenAPI 3.0 document as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	paths := make(map[string]interface{})

	for _, ep := range g.endpoints {
		op := map[string]interface{}{
			"summary":     ep.Summary,
			"operationId": operationID(ep),
			"tags":        []string{ep.Tag},
			"responses":   g.buildResponses(ep),
		}
		if !ep.Open {
			op["security"] = []map[string][]string{{"bearerAuth": {}}}
		}
		if params := pathParameters(ep.Path); len(params) > 0 {
			op["parameters"] = params
		}
		if ep.RequestRef != "" {
			op["requestBody"] = map[string]interface{}{
				"required": true,
				"content": map[string]interface{}{
					"application/json": map[string]interface{}{
						"schema": ref(ep.RequestRef),
					},
				},
			}
		}

		item, _ := paths[ep.Path].(map[string]interface{})
		if item == nil {
			item = map[string]interface{}{}
		}
		item[strings.ToLower(ep.Method)] = op
		paths[ep.Path] = item
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":   g.title,
			"version": g.version,
		},
		"servers": []map[string]string{
			{"url": g.baseURL},
		},
		"paths": paths,
		"components": map[string]interface{}{
			"schemas": g.schemas,
			"securitySchemes": map[string]interface{}{
				"bearerAuth": map[string]string{
					"type":   "http",
					"scheme": "bearer",
				},
			},
		},
	}
}

func (g *Generator) buildResponses(ep Endpoint) map[string]interface{} {
	responses := map[string]interface{}{}
	switch ep.Method {
	case http.MethodPost:
		responses["201"] = g.response("Created", ep.ResponseRef)
	case http.MethodDelete:
		responses["204"] = map[string]interface{}{"description": "Deleted"}
	default:
		responses["200"] = g.response("Success", ep.ResponseRef)
	}
	if !ep.Open {
		responses["401"] = map[string]interface{}{"description": "Not authenticated"}
		responses["403"] = map[string]interface{}{"description": "Insufficient permission"}
	}
	return responses
}

func (g *Generator) response(description, schemaRef string) map[string]interface{} {
	resp := map[string]interface{}{"description": description}
	if schemaRef != "" {
		resp["content"] = map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": ref(schemaRef),
			},
		}
	}
	return resp
}

func ref(name string) map[string]string {
	return map[string]string{"$ref": "#/components/schemas/" + name}
}

// pathParameters derives path parameter entries from {name} segments.
func pathParameters(path string) []map[string]interface{} {
	var params []map[string]interface{}
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			params = append(params, map[string]interface{}{
				"name":     strings.Trim(seg, "{}"),
				"in":       "path",
				"required": true,
				"schema":   map[string]string{"type": "string"},
			})
		}
	}
	return params
}

func operationID(ep Endpoint) string {
	verb := map[string]string{
		http.MethodGet:    "get",
		http.MethodPost:   "create",
		http.MethodPut:    "update",
		http.MethodDelete: "delete",
	}[ep.Method]
	if verb == "" {
		verb = strings.ToLower(ep.Method)
	}

	parts := strings.FieldsFunc(ep.Path, func(r rune) bool { return r == '/' || r == '-' })
	var name strings.Builder
	name.WriteString(verb)
	for _, p := range parts {
		if strings.HasPrefix(p, "{") {
			name.WriteString("ById")
			continue
		}
		name.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return name.String()
}

// Handler serves the generated document.
type Handler struct {
	gen *Generator
}

func NewHandler(gen *Generator) *Handler {
	return &Handler{gen: gen}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/openapi.json", h.Serve)
}

func (h *Handler) Serve(c echo.Context) error {
	return c.JSON(http.StatusOK, h.gen.GenerateSpec())
}

// SortedPaths returns the registered paths in deterministic order, mainly for
// diagnostics and tests.
func (g *Generator) SortedPaths() []string {
	seen := map[string]bool{}
	var paths []string
	for _, ep := range g.endpoints {
		if !seen[ep.Path] {
			seen[ep.Path] = true
			paths = append(paths, ep.Path)
		}
	}
	sort.Strings(paths)
	return paths
}
