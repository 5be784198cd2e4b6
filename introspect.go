package resource

import (
	"go/ast"
	"go/parser"
	"go/token"
	"net/http"
	"reflect"
	"runtime"
	"slices"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Parameter locations reported by Describe.
const (
	InPath     = "path"
	InQuery    = "query"
	InFormData = "formData"
)

// Endpoint documents one handler method of a resource type.
type Endpoint struct {
	ID          string
	Verb        string
	Name        string
	Summary     string
	Description string
	Params      []EndpointParam
	Consumes    []string
	Produces    []string
	Tags        []string
	Deprecated  bool

	// Returns is the declared result type, or nil.
	Returns reflect.Type
}

// EndpointParam documents one parameter of an Endpoint.
type EndpointParam struct {
	Name        string
	Type        string
	In          string
	Required    bool
	Description string
	Schema      JSONSchema
}

// Describe documents the handler methods declared by h's type, in
// declaration order. Summaries and descriptions come from WithSummary and
// WithDescription, falling back to the doc comment of the method behind the
// method expression; both stay empty when the source cannot be read.
func Describe(h Handler) ([]Endpoint, error) {
	table, err := defaultRegistry.table(h, nil)
	if err != nil {
		return nil, err
	}
	return describeTable(table, h), nil
}

func describeTable(table *routeTable, h Handler) []Endpoint {
	accepted := h.AcceptedContentTypes()
	produces := []string{h.ResponseContentType()}

	eps := make([]Endpoint, 0, len(table.routes))
	for _, rt := range table.routes {
		eps = append(eps, describeRoute(rt, accepted, produces))
	}
	return eps
}

func describeRoute(rt *Route, accepted, produces []string) Endpoint {
	ep := Endpoint{
		ID:          rt.operationID,
		Verb:        rt.verb,
		Name:        rt.name,
		Summary:     rt.summary,
		Description: rt.desc,
		Produces:    produces,
		Tags:        rt.tags,
		Deprecated:  rt.deprecated,
		Returns:     rt.returns,
	}
	if ep.ID == "" {
		ep.ID = lowerFirst(rt.name)
	}
	if ep.Summary == "" && ep.Description == "" {
		ep.Summary, ep.Description = sourceDoc(rt.fn)
	}

	hasBody := rt.verb == http.MethodPost || rt.verb == http.MethodPut || rt.verb == http.MethodPatch
	if hasBody {
		ep.Consumes = accepted
	}
	optionalIn := InQuery
	if hasBody && slices.ContainsFunc(accepted, func(ct string) bool { return mediaType(ct) == MediaTypeForm }) {
		optionalIn = InFormData
	}

	for _, p := range rt.required {
		ep.Params = append(ep.Params, describeParam(p, InPath, true))
	}
	for _, p := range rt.optional {
		ep.Params = append(ep.Params, describeParam(p, optionalIn, false))
	}
	return ep
}

func describeParam(p ParamSpec, in string, required bool) EndpointParam {
	schema := paramSchema(p.Type)
	return EndpointParam{
		Name:        p.Name,
		Type:        schema.Type,
		In:          in,
		Required:    required,
		Description: p.Doc,
		Schema:      schema,
	}
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

// parsedFiles caches source files parsed for doc comments. A nil entry
// records a file that could not be read.
var parsedFiles sync.Map // string -> *ast.File

// sourceDoc returns the first line of the doc comment on the method behind
// fn as the summary and the rest as the description.
func sourceDoc(fn any) (string, string) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return "", ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "", ""
	}
	file, _ := f.FileLine(f.Entry())
	recv, method := splitFuncName(f.Name())

	af := parseFile(file)
	if af == nil {
		return "", ""
	}

	for _, decl := range af.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Doc == nil || fd.Name.Name != method {
			continue
		}
		if recv != "" && receiverName(fd) != recv {
			continue
		}
		return splitDoc(fd.Doc.Text())
	}
	return "", ""
}

func parseFile(path string) *ast.File {
	if v, ok := parsedFiles.Load(path); ok {
		return v.(*ast.File)
	}
	af, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.ParseComments)
	if err != nil {
		af = nil
	}
	parsedFiles.Store(path, af)
	return af
}

// receiverName returns the receiver type name of a method declaration.
func receiverName(fd *ast.FuncDecl) string {
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		return ""
	}
	expr := fd.Recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	switch e := expr.(type) {
	case *ast.IndexExpr:
		expr = e.X
	case *ast.IndexListExpr:
		expr = e.X
	}
	if id, ok := expr.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

func splitDoc(text string) (string, string) {
	text = strings.TrimSpace(text)
	summary, desc, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(summary), strings.TrimSpace(desc)
}
