package resource

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"time"
)

// coercers holds string conversion functions keyed by target type. Entries
// registered here take priority over the built-in conversions and over
// encoding.TextUnmarshaler.
var coercers = struct {
	mu sync.RWMutex
	m  map[reflect.Type]func(string) (any, error)
}{
	m: map[reflect.Type]func(string) (any, error){
		reflect.TypeFor[time.Duration](): func(s string) (any, error) {
			return time.ParseDuration(s)
		},
	},
}

// RegisterCoercer installs the string conversion used for parameters of type
// T. It is meant to be called from init functions, before any handler type
// using T is dispatched: registry builds reject parameter types with no
// conversion available at build time.
func RegisterCoercer[T any](fn func(string) (T, error)) {
	coercers.mu.Lock()
	defer coercers.mu.Unlock()
	coercers.m[reflect.TypeFor[T]()] = func(s string) (any, error) {
		return fn(s)
	}
}

func lookupCoercer(t reflect.Type) (func(string) (any, error), bool) {
	coercers.mu.RLock()
	defer coercers.mu.RUnlock()
	fn, ok := coercers.m[t]
	return fn, ok
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// isList reports whether t is a list-of-primitive parameter type.
func isList(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8
}

// supports reports whether values of type t can be produced from strings.
func supports(t reflect.Type) bool {
	if isList(t) {
		return supportsScalar(t.Elem())
	}
	return supportsScalar(t)
}

func supportsScalar(t reflect.Type) bool {
	if _, ok := lookupCoercer(t); ok {
		return true
	}
	if t.Implements(textUnmarshalerType) || reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return true
	}
	//exhaustive:ignore
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// coerce converts the raw values for one parameter. List types take every
// value in order; scalar types take the last one.
func coerce(p ParamSpec, values []string) (any, error) {
	if isList(p.Type) {
		return coerceList(p.Name, values, p.Type)
	}
	return coerceScalar(p.Name, values[len(values)-1], p.Type)
}

// coerceScalar converts value into t. Flags (bool kinds) are true by
// presence. Conversion failures are 400s; a type with no conversion at all
// is a 500.
func coerceScalar(name, value string, t reflect.Type) (any, error) {
	if t.Kind() == reflect.Bool {
		return reflect.ValueOf(true).Convert(t).Interface(), nil
	}
	if t.Kind() == reflect.String {
		return reflect.ValueOf(value).Convert(t).Interface(), nil
	}

	if fn, ok := lookupCoercer(t); ok {
		v, err := guard(func() (any, error) { return fn(value) })
		if err != nil {
			return nil, parameterTypeError(name, err)
		}
		return v, nil
	}

	if t.Implements(textUnmarshalerType) || reflect.PointerTo(t).Implements(textUnmarshalerType) {
		v, err := guard(func() (any, error) { return unmarshalText(value, t) })
		if err != nil {
			return nil, parameterTypeError(name, err)
		}
		return v, nil
	}

	v, err := parseKind(name, value, t)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// parseKind converts numeric kinds with strconv.
func parseKind(name, value string, t reflect.Type) (any, error) {
	rv := reflect.New(t).Elem()

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, t.Bits())
		if err != nil {
			return nil, parameterTypeError(name, err)
		}
		rv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, t.Bits())
		if err != nil {
			return nil, parameterTypeError(name, err)
		}
		rv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(value, t.Bits())
		if err != nil {
			return nil, parameterTypeError(name, err)
		}
		rv.SetFloat(n)
	default:
		return nil, unsupportedParameterType(name, fmt.Errorf("no conversion from string to %s", t))
	}
	return rv.Interface(), nil
}

// unmarshalText decodes value with the encoding.TextUnmarshaler of t or *t.
func unmarshalText(value string, t reflect.Type) (any, error) {
	if t.Kind() == reflect.Pointer && t.Implements(textUnmarshalerType) {
		ptr := reflect.New(t.Elem())
		err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(value))
		return ptr.Interface(), err
	}
	ptr := reflect.New(t)
	err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(value))
	return ptr.Elem().Interface(), err
}

// guard runs a user-supplied conversion, turning a panic into an error.
func guard(fn func() (any, error)) (v any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("conversion panicked: %v", rec)
		}
	}()
	return fn()
}

// coerceList converts values element-wise into a slice of type t, keeping
// their order.
func coerceList(name string, values []string, t reflect.Type) (any, error) {
	out := reflect.MakeSlice(t, 0, len(values))
	for _, s := range values {
		v, err := coerceScalar(name, s, t.Elem())
		if err != nil {
			return nil, err
		}
		out = reflect.Append(out, reflect.ValueOf(v))
	}
	return out.Interface(), nil
}
