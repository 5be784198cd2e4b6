package resource

import (
	"context"
	"net/http"
	"reflect"
	"runtime"
	"strings"
)

// ParamSpec describes one handler parameter: its name and the Go type its
// string value is converted into. Slice types (other than []byte) are lists.
type ParamSpec struct {
	Name  string
	Type  reflect.Type
	Doc   string
	Rules string
}

// ParamOption configures a ParamSpec.
type ParamOption func(*ParamSpec)

// Doc sets the parameter description used in generated documentation.
func Doc(s string) ParamOption {
	return func(p *ParamSpec) {
		p.Doc = s
	}
}

// Rules sets validator tags (e.g. "min=1,max=100") checked after the value
// has been converted.
func Rules(tags string) ParamOption {
	return func(p *ParamSpec) {
		p.Rules = tags
	}
}

// Param declares a parameter named name of type T.
func Param[T any](name string, opts ...ParamOption) ParamSpec {
	p := ParamSpec{Name: name, Type: reflect.TypeFor[T]()}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Method is the signature of a handler method, written as a method
// expression such as (*Things).Get.
type Method[H Handler] = func(h H, ctx context.Context, args *Args) (any, error)

// Route describes one handler method on a resource type: the HTTP verb it
// answers, the path parameters it requires (in order), the optional
// parameters it accepts, and how to invoke it.
type Route struct {
	verb     string
	name     string
	required []ParamSpec
	optional []ParamSpec

	summary     string
	desc        string
	tags        []string
	deprecated  bool
	operationID string
	returns     reflect.Type

	fn     any
	invoke func(h Handler, ctx context.Context, args *Args) (any, error)
}

// Verb returns the route's HTTP verb.
func (rt *Route) Verb() string { return rt.verb }

// Name returns the name of the handler method.
func (rt *Route) Name() string { return rt.name }

// Required returns the route's path parameters in order.
func (rt *Route) Required() []ParamSpec { return rt.required }

// Optional returns the route's query/form parameters.
func (rt *Route) Optional() []ParamSpec { return rt.optional }

// RouteOption configures a route at declaration time.
type RouteOption func(*Route)

// WithPath declares the route's required path parameters, in the order the
// path variables appear in the URL.
func WithPath(params ...ParamSpec) RouteOption {
	return func(rt *Route) {
		rt.required = append(rt.required, params...)
	}
}

// WithParams declares the route's optional parameters, bound from the query
// string or from a form-urlencoded body.
func WithParams(params ...ParamSpec) RouteOption {
	return func(rt *Route) {
		rt.optional = append(rt.optional, params...)
	}
}

// WithName overrides the method name derived from the method expression.
func WithName(name string) RouteOption {
	return func(rt *Route) {
		rt.name = name
	}
}

// WithSummary sets the documentation summary, overriding the doc comment.
func WithSummary(s string) RouteOption {
	return func(rt *Route) {
		rt.summary = s
	}
}

// WithDescription sets the documentation description, overriding the doc comment.
func WithDescription(d string) RouteOption {
	return func(rt *Route) {
		rt.desc = d
	}
}

// WithTags adds documentation tags to the route.
func WithTags(tags ...string) RouteOption {
	return func(rt *Route) {
		rt.tags = append(rt.tags, tags...)
	}
}

// WithDeprecated marks the route as deprecated in generated documentation.
func WithDeprecated() RouteOption {
	return func(rt *Route) {
		rt.deprecated = true
	}
}

// WithOperationID sets a custom operation id.
func WithOperationID(id string) RouteOption {
	return func(rt *Route) {
		rt.operationID = id
	}
}

// WithReturns records the type the handler returns, for response schemas.
// Pass a zero value: WithReturns(Thing{}).
func WithReturns(v any) RouteOption {
	return func(rt *Route) {
		rt.returns = reflect.TypeOf(v)
	}
}

func newRoute[H Handler](verb string, fn Method[H], opts ...RouteOption) Route {
	rt := Route{
		verb: verb,
		name: methodName(fn),
		fn:   fn,
		invoke: func(h Handler, ctx context.Context, args *Args) (any, error) {
			return fn(h.(H), ctx, args)
		},
	}
	for _, opt := range opts {
		opt(&rt)
	}
	return rt
}

// Get declares a GET handler method.
func Get[H Handler](fn Method[H], opts ...RouteOption) Route {
	return newRoute(http.MethodGet, fn, opts...)
}

// Post declares a POST handler method.
func Post[H Handler](fn Method[H], opts ...RouteOption) Route {
	return newRoute(http.MethodPost, fn, opts...)
}

// Put declares a PUT handler method.
func Put[H Handler](fn Method[H], opts ...RouteOption) Route {
	return newRoute(http.MethodPut, fn, opts...)
}

// Patch declares a PATCH handler method.
func Patch[H Handler](fn Method[H], opts ...RouteOption) Route {
	return newRoute(http.MethodPatch, fn, opts...)
}

// Delete declares a DELETE handler method.
func Delete[H Handler](fn Method[H], opts ...RouteOption) Route {
	return newRoute(http.MethodDelete, fn, opts...)
}

// Head declares a HEAD handler method.
func Head[H Handler](fn Method[H], opts ...RouteOption) Route {
	return newRoute(http.MethodHead, fn, opts...)
}

// Options declares an OPTIONS handler method.
func Options[H Handler](fn Method[H], opts ...RouteOption) Route {
	return newRoute(http.MethodOptions, fn, opts...)
}

// routeKey builds the registry key for a verb and ordered path parameter
// names: "get-id", "put-org-id", or just "get" without parameters.
func routeKey(verb string, names []string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(verb))
	for _, n := range names {
		b.WriteByte('-')
		b.WriteString(n)
	}
	return b.String()
}

func (rt *Route) key() string {
	names := make([]string, len(rt.required))
	for i, p := range rt.required {
		names[i] = p.Name
	}
	return routeKey(rt.verb, names)
}

// funcName returns the qualified runtime name of a function value.
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	return f.Name()
}

// splitFuncName splits "example.com/pkg.(*Things).Get" into the receiver
// type name ("Things") and the method name ("Get").
func splitFuncName(full string) (string, string) {
	full = strings.TrimSuffix(full, "-fm")
	if i := strings.LastIndex(full, "/"); i >= 0 {
		full = full[i+1:]
	}
	parts := strings.Split(full, ".")
	if len(parts) < 3 {
		return "", parts[len(parts)-1]
	}
	recv := parts[len(parts)-2]
	recv = strings.TrimPrefix(recv, "(")
	recv = strings.TrimSuffix(recv, ")")
	recv = strings.TrimPrefix(recv, "*")
	return recv, parts[len(parts)-1]
}

func methodName(fn any) string {
	_, name := splitFuncName(funcName(fn))
	return name
}
