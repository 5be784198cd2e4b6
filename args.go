package resource

// Args is the typed argument set for one handler invocation.
type Args struct {
	// Required holds the path parameter values, positionally matching the
	// route's WithPath declaration.
	Required []any

	// Optional holds the query/form values that were supplied, keyed by
	// parameter name. Parameters that were not supplied are absent.
	Optional map[string]any

	// Body is the decoded request body, or nil.
	Body any

	// Request is the request being served.
	Request *Request
}

// Required returns the i-th path parameter as T. It returns the zero value
// when i is out of range or the value has a different type.
func Required[T any](a *Args, i int) T {
	var zero T
	if a == nil || i < 0 || i >= len(a.Required) {
		return zero
	}
	v, ok := a.Required[i].(T)
	if !ok {
		return zero
	}
	return v
}

// Optional returns the optional parameter name as T and whether it was
// supplied.
func Optional[T any](a *Args, name string) (T, bool) {
	var zero T
	if a == nil {
		return zero, false
	}
	raw, ok := a.Optional[name]
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	return v, ok
}

// OptionalOr returns the optional parameter name as T, or def when it was
// not supplied.
func OptionalOr[T any](a *Args, name string, def T) T {
	if v, ok := Optional[T](a, name); ok {
		return v
	}
	return def
}
