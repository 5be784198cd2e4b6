package resource

import "log/slog"

// Test-only exports for internal functions.
var (
	CoerceScalar  = coerceScalar
	CoerceList    = coerceList
	IsList        = isList
	Supports      = supports
	MediaType     = mediaType
	IsSupported   = isSupported
	Serialize     = serialize
	RouteKey      = routeKey
	PatternNames  = patternNames
	SplitFuncName = splitFuncName
	MethodName    = methodName
	ParamSchema   = paramSchema
	ToOpenAPIPath = toOpenAPIPath
	SplitDoc      = splitDoc
	LowerFirst    = lowerFirst
)

// TestRegistry wraps a private registry for external tests.
type TestRegistry struct {
	reg *registry
}

// NewTestRegistry creates an empty registry logging to logger.
func NewTestRegistry(logger *slog.Logger) *TestRegistry {
	return &TestRegistry{reg: newRegistry(logger)}
}

// Build returns the keys of h's route table, in declaration order.
func (r *TestRegistry) Build(h Handler) ([]string, error) {
	table, err := r.reg.table(h, nil)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(table.routes))
	for i, rt := range table.routes {
		keys[i] = rt.key()
	}
	return keys, nil
}

// Resolve returns the method name answering verb with the given path names.
func (r *TestRegistry) Resolve(h Handler, verb string, names ...string) (string, error) {
	rt, err := r.reg.resolve(h, verb, names, nil)
	if err != nil {
		return "", err
	}
	return rt.Name(), nil
}

// Types returns how many handler types the registry holds.
func (r *TestRegistry) Types() int {
	n := 0
	r.reg.entries.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// Bind runs parameter binding for the route of h answering req.
func Bind(h Handler, req *Request, body any) (*Args, error) {
	rt, err := defaultRegistry.resolve(h, req.Method, req.PathNames, nil)
	if err != nil {
		return nil, err
	}
	return bind(rt, req, body)
}

// EncoderFor returns the content type of the encoder chosen for contentType.
func EncoderFor(contentType string, extra ...Encoder) string {
	return newCodecRegistry(extra).encoderFor(contentType).ContentType()
}
