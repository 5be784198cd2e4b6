package resource

import (
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// OpenAPISpec is the top-level OpenAPI 3.1 document.
type OpenAPISpec struct {
	OpenAPI string              `json:"openapi"`
	Info    OpenAPIInfo         `json:"info"`
	Paths   map[string]PathItem `json:"paths"`
}

// OpenAPIInfo holds API metadata.
type OpenAPIInfo struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// PathItem maps lower-case HTTP methods to operations.
type PathItem map[string]Operation

// Operation describes a single API operation on a path.
type Operation struct {
	Summary     string        `json:"summary,omitempty"`
	Description string        `json:"description,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	OperationID string        `json:"operationId,omitempty"`
	Parameters  []Parameter   `json:"parameters,omitempty"`
	RequestBody *RequestBody  `json:"requestBody,omitempty"`
	Responses   OperationResp `json:"responses"`
	Deprecated  bool          `json:"deprecated,omitempty"`
}

// Parameter describes a single operation parameter.
type Parameter struct {
	Name        string     `json:"name"`
	In          string     `json:"in"`
	Description string     `json:"description,omitempty"`
	Required    bool       `json:"required,omitempty"`
	Schema      JSONSchema `json:"schema"`
}

// RequestBody describes the request body.
type RequestBody struct {
	Required bool                `json:"required"`
	Content  map[string]MediaObj `json:"content"`
}

// MediaObj is a media type object with an optional schema. Schema holds a
// *JSONSchema or a reflected *jsonschema.Schema.
type MediaObj struct {
	Schema any `json:"schema,omitempty"`
}

// OperationResp maps HTTP status codes (or "default") to response objects.
type OperationResp map[string]ResponseObj

// ResponseObj describes a single response.
type ResponseObj struct {
	Description string              `json:"description"`
	Content     map[string]MediaObj `json:"content,omitempty"`
}

// Spec generates the OpenAPI 3.1 document for every mounted resource.
func (s *Service) Spec() OpenAPISpec {
	spec := OpenAPISpec{
		OpenAPI: "3.1.0",
		Info: OpenAPIInfo{
			Title:   s.title,
			Version: s.version,
		},
		Paths: make(map[string]PathItem),
	}

	s.mu.Lock()
	mounts := s.mounts
	s.mu.Unlock()

	for _, m := range mounts {
		path := toOpenAPIPath(m.pattern)
		for _, ep := range m.served() {
			if spec.Paths[path] == nil {
				spec.Paths[path] = make(PathItem)
			}
			spec.Paths[path][strings.ToLower(ep.Verb)] = buildOperation(ep, m.tags)
		}
	}
	return spec
}

// buildOperation creates an Operation from an Endpoint.
func buildOperation(ep Endpoint, mountTags []string) Operation {
	op := Operation{
		Summary:     ep.Summary,
		Description: ep.Description,
		OperationID: ep.ID,
		Deprecated:  ep.Deprecated,
		Responses:   make(OperationResp),
	}
	op.Tags = append(op.Tags, mountTags...)
	op.Tags = append(op.Tags, ep.Tags...)

	form := JSONSchema{Type: "object"}
	for _, p := range ep.Params {
		if p.In == InFormData {
			if form.Properties == nil {
				form.Properties = make(map[string]JSONSchema)
			}
			schema := p.Schema
			schema.Description = p.Description
			form.Properties[p.Name] = schema
			continue
		}
		op.Parameters = append(op.Parameters, Parameter{
			Name:        p.Name,
			In:          p.In,
			Description: p.Description,
			Required:    p.Required,
			Schema:      p.Schema,
		})
	}

	if len(ep.Consumes) > 0 {
		op.RequestBody = &RequestBody{Content: make(map[string]MediaObj, len(ep.Consumes))}
		for _, ct := range ep.Consumes {
			if mediaType(ct) == MediaTypeForm {
				op.RequestBody.Content[ct] = MediaObj{Schema: &form}
				continue
			}
			op.RequestBody.Content[ct] = MediaObj{}
		}
	}

	ok := ResponseObj{Description: "Successful response"}
	if ep.Returns != nil {
		ok.Content = make(map[string]MediaObj, len(ep.Produces))
		schema := returnsSchema(ep.Returns)
		for _, ct := range ep.Produces {
			ok.Content[ct] = MediaObj{Schema: schema}
		}
	}
	op.Responses[strconv.Itoa(http.StatusOK)] = ok

	op.Responses["default"] = ResponseObj{
		Description: "Error response",
		Content: map[string]MediaObj{
			MediaTypeProblem: {Schema: returnsSchema(reflect.TypeFor[ProblemDetail]())},
		},
	}

	return op
}

var patternVar = regexp.MustCompile(`\{([^{}:]+)(?::[^{}]*)?\}`)

// toOpenAPIPath converts a chi or net/http pattern like "/users/{id:[0-9]+}"
// or "/files/{path...}" to an OpenAPI path.
func toOpenAPIPath(pattern string) string {
	pattern = patternVar.ReplaceAllString(pattern, "{$1}")
	return strings.ReplaceAll(pattern, "...", "")
}
