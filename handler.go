package resource

import (
	"context"
	"sync/atomic"
)

// Media types understood out of the box.
const (
	MediaTypeJSON    = "application/json"
	MediaTypeForm    = "application/x-www-form-urlencoded"
	MediaTypeXML     = "application/xml"
	MediaTypeYAML    = "application/yaml"
	MediaTypeProblem = "application/problem+json"
)

// Handler is a resource type whose methods answer HTTP requests. Implement it
// by embedding Base and declaring Routes; override the hooks as needed.
//
// A Handler value serves exactly one request. Create a new one per request,
// typically from a factory passed to Mount.
type Handler interface {
	// Routes declares the handler methods of the type. It is called once per
	// handler type, on the first instance dispatched, and must return the
	// same table for every instance.
	Routes() []Route

	// Prepare runs before the handler is resolved. Return req (or a
	// replacement *Request) to continue, or a *Response to answer
	// immediately. Any other value is a server error.
	Prepare(ctx context.Context, req *Request) any

	// OnDecoded observes the decoded request body, when there is one.
	OnDecoded(ctx context.Context, body any)

	// OnFinish observes the response before it is sent.
	OnFinish(ctx context.Context, resp *Response)

	// AcceptedContentTypes lists the media types whose bodies are decoded.
	AcceptedContentTypes() []string

	// ResponseContentType is the media type written on every response.
	ResponseContentType() string

	base() *Base
}

// Base provides the default hooks and the per-request state of a Handler.
// Embed it in resource types:
//
//	type Things struct {
//	    resource.Base
//	    store *Store
//	}
type Base struct {
	// Consumes overrides the accepted request media types.
	// Defaults to JSON and form-urlencoded.
	Consumes []string

	// Produces overrides the response media type. Defaults to JSON.
	Produces string

	used    atomic.Bool
	request *Request
	body    any
}

// Prepare returns req unchanged.
func (b *Base) Prepare(_ context.Context, req *Request) any { return req }

// OnDecoded does nothing.
func (b *Base) OnDecoded(context.Context, any) {}

// OnFinish does nothing.
func (b *Base) OnFinish(context.Context, *Response) {}

// AcceptedContentTypes returns Consumes, or JSON and form-urlencoded.
func (b *Base) AcceptedContentTypes() []string {
	if len(b.Consumes) > 0 {
		return b.Consumes
	}
	return []string{MediaTypeJSON, MediaTypeForm}
}

// ResponseContentType returns Produces, or JSON.
func (b *Base) ResponseContentType() string {
	if b.Produces != "" {
		return b.Produces
	}
	return MediaTypeJSON
}

// Request returns the request being served.
func (b *Base) Request() *Request { return b.request }

// DecodedBody returns the decoded request body, or nil.
func (b *Base) DecodedBody() any { return b.body }

func (b *Base) base() *Base { return b }

// claim marks the handler as in use. It reports false if it already was.
func (b *Base) claim() bool {
	return b.used.CompareAndSwap(false, true)
}
