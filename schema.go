package resource

import (
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
)

// JSONSchema represents a JSON Schema object (subset for OpenAPI 3.1).
type JSONSchema struct {
	Type        string                `json:"type,omitempty"`
	Format      string                `json:"format,omitempty"`
	Properties  map[string]JSONSchema `json:"properties,omitempty"`
	Items       *JSONSchema           `json:"items,omitempty"`
	Required    []string              `json:"required,omitempty"`
	Description string                `json:"description,omitempty"`
}

// paramSchema converts a parameter type to a JSONSchema. Parameter types
// are flat: scalars, text-unmarshalable values, and lists of those.
func paramSchema(t reflect.Type) JSONSchema {
	if t.Kind() == reflect.Pointer {
		return paramSchema(t.Elem())
	}

	switch t {
	case reflect.TypeFor[time.Time]():
		return JSONSchema{Type: "string", Format: "date-time"}
	case reflect.TypeFor[time.Duration]():
		return JSONSchema{Type: "string", Format: "duration"}
	}

	if isList(t) {
		items := paramSchema(t.Elem())
		return JSONSchema{Type: "array", Items: &items}
	}

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.Bool:
		return JSONSchema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return JSONSchema{Type: "integer"}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return JSONSchema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return JSONSchema{Type: "number"}
	default:
		// Strings and anything parsed from text.
		return JSONSchema{Type: "string"}
	}
}

// returnsSchema reflects the JSON Schema of a handler's result type.
func returnsSchema(t reflect.Type) *jsonschema.Schema {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.ReflectFromType(t)
	s.Version = ""
	return s
}
