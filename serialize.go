package resource

import "reflect"

// Serializer is implemented by results that convert themselves into plain,
// encodable data before being written.
type Serializer interface {
	Serialize() any
}

// serialize normalizes a handler result. Nil pointers become nil;
// Serializers are converted; lists are converted element by element into a
// new []any (one level only); everything else is returned unchanged.
func serialize(v any) any {
	if isNil(v) {
		return nil
	}
	if s, ok := v.(Serializer); ok {
		return s.Serialize()
	}

	rv := reflect.ValueOf(v)
	//exhaustive:ignore
	switch rv.Kind() {
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 || rv.IsNil() {
			return v
		}
	case reflect.Array:
	default:
		return v
	}

	out := make([]any, rv.Len())
	for i := range rv.Len() {
		el := rv.Index(i).Interface()
		if isNil(el) {
			continue
		}
		if s, ok := el.(Serializer); ok {
			out[i] = s.Serialize()
			continue
		}
		out[i] = el
	}
	return out
}

// isNil reports whether v is nil or a nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
