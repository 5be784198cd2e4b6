package resource_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/bjaus/resource"
)

// things is the resource type most tests dispatch to.
type things struct {
	resource.Base

	events []string
	args   *resource.Args
}

func (h *things) Routes() []resource.Route {
	return []resource.Route{
		resource.Get((*things).List,
			resource.WithParams(
				resource.Param[int]("limit", resource.Doc("Page size")),
				resource.Param[bool]("verbose"),
				resource.Param[[]int]("ids"),
			),
			resource.WithTags("things"),
		),
		resource.Get((*things).Show, resource.WithPath(resource.Param[string]("id"))),
		resource.Post((*things).Create,
			resource.WithParams(
				resource.Param[string]("name"),
				resource.Param[int]("age", resource.Rules("min=0,max=150")),
			),
			resource.WithReturns(thing{}),
		),
		resource.Delete((*things).Remove, resource.WithPath(resource.Param[int]("id"))),
		resource.Put((*things).Move,
			resource.WithPath(resource.Param[string]("org"), resource.Param[int]("id")),
			resource.WithSummary("Move a thing"),
			resource.WithOperationID("moveThing"),
			resource.WithDeprecated(),
		),
	}
}

func (h *things) Prepare(ctx context.Context, req *resource.Request) any {
	h.events = append(h.events, "prepare")
	return h.Base.Prepare(ctx, req)
}

func (h *things) OnDecoded(_ context.Context, _ any) {
	h.events = append(h.events, "decoded")
}

func (h *things) OnFinish(_ context.Context, _ *resource.Response) {
	h.events = append(h.events, "finish")
}

// List returns the requested things.
func (h *things) List(_ context.Context, args *resource.Args) (any, error) {
	h.events = append(h.events, "List")
	h.args = args
	return []thing{{ID: "a"}, {ID: "b"}}, nil
}

// Show returns one thing.
//
// The id is echoed back unchanged.
func (h *things) Show(_ context.Context, args *resource.Args) (any, error) {
	h.events = append(h.events, "Show")
	h.args = args
	return map[string]any{"id": resource.Required[string](args, 0)}, nil
}

// Create stores a thing.
func (h *things) Create(_ context.Context, args *resource.Args) (any, error) {
	h.events = append(h.events, "Create")
	h.args = args
	return args.Optional, nil
}

func (h *things) Remove(_ context.Context, args *resource.Args) (any, error) {
	h.events = append(h.events, "Remove")
	h.args = args
	if resource.Required[int](args, 0) == 404 {
		return nil, resource.Error(http.StatusNotFound, "no such thing")
	}
	if resource.Required[int](args, 0) == 500 {
		return nil, errBoom
	}
	return nil, nil
}

func (h *things) Move(_ context.Context, args *resource.Args) (any, error) {
	h.events = append(h.events, "Move")
	h.args = args
	return nil, nil
}

// thing serializes itself into a map.
type thing struct {
	ID string `json:"id"`
}

func (t thing) Serialize() any {
	return map[string]any{"id": t.ID, "kind": "thing"}
}

type boomError struct{}

func (boomError) Error() string { return "boom" }

var errBoom error = boomError{}

// newRequest builds a dispatch request with explicit path variables.
func newRequest(method, target, contentType, body string, names, values []string) *resource.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return resource.NewRequest(r, names, values)
}

// newChunkedRequest builds a dispatch request whose body length is unknown,
// as with chunked transfer encoding.
func newChunkedRequest(method, target, contentType, body string) *resource.Request {
	r := httptest.NewRequest(method, target, io.NopCloser(strings.NewReader(body)))
	r.ContentLength = -1
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return resource.NewRequest(r, nil, nil)
}
