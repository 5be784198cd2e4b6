package resource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Request is the inbound request as seen by the dispatch pipeline: the verb,
// the path variables populated by the router (names and values in path
// order), the query string, and the body.
type Request struct {
	Method        string
	Header        http.Header
	Query         url.Values
	ContentLength int64
	PathNames     []string
	PathValues    []string

	// HTTP is the underlying request, when there is one.
	HTTP *http.Request

	body    io.Reader
	raw     []byte
	readErr error
	read    bool
}

// NewRequest wraps r with explicit path variables. names and values must
// have the same length; a mismatch fails dispatch with ErrPathMismatch.
func NewRequest(r *http.Request, names, values []string) *Request {
	return &Request{
		Method:        r.Method,
		Header:        r.Header,
		Query:         r.URL.Query(),
		ContentLength: r.ContentLength,
		PathNames:     names,
		PathValues:    values,
		HTTP:          r,
		body:          r.Body,
	}
}

// FromHTTP wraps r, taking path variables from the chi route context when
// present, otherwise from the standard library pattern match.
func FromHTTP(r *http.Request) *Request {
	names, values := pathVars(r)
	return NewRequest(r, names, values)
}

func pathVars(r *http.Request) ([]string, []string) {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		var names, values []string
		for i, k := range rctx.URLParams.Keys {
			// chi's catch-all parameter is not a named path variable.
			if k == "*" {
				continue
			}
			names = append(names, k)
			values = append(values, rctx.URLParams.Values[i])
		}
		return names, values
	}

	names := patternNames(r.Pattern)
	values := make([]string, len(names))
	for i, n := range names {
		values[i] = r.PathValue(n)
	}
	return names, values
}

// patternNames returns the {name} wildcards of a route pattern in order.
// Both chi ("{id}", "{id:[0-9]+}") and net/http ("{id}", "{path...}")
// forms are understood.
func patternNames(pattern string) []string {
	var names []string
	for {
		start := strings.IndexByte(pattern, '{')
		if start < 0 {
			return names
		}
		end := strings.IndexByte(pattern[start:], '}')
		if end < 0 {
			return names
		}
		name := pattern[start+1 : start+end]
		name, _, _ = strings.Cut(name, ":")
		name = strings.TrimSuffix(name, "...")
		if name != "" && name != "$" {
			names = append(names, name)
		}
		pattern = pattern[start+end+1:]
	}
}

// ContentType returns the Content-Type header.
func (r *Request) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Context returns the underlying request's context, or context.Background.
func (r *Request) Context() context.Context {
	if r.HTTP != nil {
		return r.HTTP.Context()
	}
	return context.Background()
}

// Body returns the raw request body. It is read once and cached.
func (r *Request) Body() ([]byte, error) {
	if r.read {
		return r.raw, r.readErr
	}
	r.read = true
	if r.body == nil {
		return nil, nil
	}
	r.raw, r.readErr = io.ReadAll(r.body)
	if r.readErr != nil {
		r.raw = nil
	}
	return r.raw, r.readErr
}

// hasBody reports whether the request announces a body. Unknown lengths
// (chunked transfers) count as a body.
func (r *Request) hasBody() bool {
	return r.ContentLength != 0 && r.body != nil && r.body != http.NoBody
}

// readBody returns the cached body. An oversized body is a structured 413.
func (r *Request) readBody() ([]byte, error) {
	b, err := r.Body()
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, stageError(http.StatusRequestEntityTooLarge, ErrBodyTooLarge, err,
				"request body exceeds %d bytes", mbe.Limit)
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

// Decode decodes the body with dec.
func (r *Request) Decode(ctx context.Context, dec BodyDecoder) (any, error) {
	b, err := r.readBody()
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	v, err := dec.Decode(ctx, bytes.NewReader(b))
	if err != nil {
		return nil, stageError(http.StatusBadRequest, ErrMalformedBody, err,
			"malformed %s body", dec.ContentType())
	}
	return v, nil
}
