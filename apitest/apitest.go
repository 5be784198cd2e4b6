// Package apitest provides typed test helpers for services built with
// package resource.
package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bjaus/resource"
)

// Client wraps an httptest.Server for convenient service testing.
type Client struct {
	Server *httptest.Server
}

// NewClient starts a test server for s.
func NewClient(t testing.TB, s *resource.Service) *Client {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return &Client{Server: srv}
}

// Response holds a decoded response. Problem is set instead of Body when
// the service answered with a problem document.
type Response[T any] struct {
	Status  int
	Headers http.Header
	Body    *T
	Problem *resource.ProblemDetail
}

// Get sends a GET request.
func Get[Resp any](t testing.TB, c *Client, path string) *Response[Resp] {
	t.Helper()
	return do[Resp](t, c, http.MethodGet, path, "", nil)
}

// Delete sends a DELETE request.
func Delete[Resp any](t testing.TB, c *Client, path string) *Response[Resp] {
	t.Helper()
	return do[Resp](t, c, http.MethodDelete, path, "", nil)
}

// Post sends a POST request with a JSON body.
func Post[Resp any](t testing.TB, c *Client, path string, body any) *Response[Resp] {
	t.Helper()
	return do[Resp](t, c, http.MethodPost, path, resource.MediaTypeJSON, marshal(t, body))
}

// Put sends a PUT request with a JSON body.
func Put[Resp any](t testing.TB, c *Client, path string, body any) *Response[Resp] {
	t.Helper()
	return do[Resp](t, c, http.MethodPut, path, resource.MediaTypeJSON, marshal(t, body))
}

// PostForm sends a POST request with a form-urlencoded body.
func PostForm[Resp any](t testing.TB, c *Client, path string, form url.Values) *Response[Resp] {
	t.Helper()
	return do[Resp](t, c, http.MethodPost, path, resource.MediaTypeForm, strings.NewReader(form.Encode()))
}

// Send sends a request with an arbitrary media type and body.
func Send[Resp any](t testing.TB, c *Client, method, path, contentType string, body io.Reader) *Response[Resp] {
	t.Helper()
	return do[Resp](t, c, method, path, contentType, body)
}

func marshal(t testing.TB, body any) io.Reader {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("apitest: marshal request body: %v", err)
	}
	return bytes.NewReader(b)
}

func do[Resp any](t testing.TB, c *Client, method, path, contentType string, body io.Reader) *Response[Resp] {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, c.Server.URL+path, body)
	if err != nil {
		t.Fatalf("apitest: create request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("apitest: execute request: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.Errorf("apitest: close body: %v", closeErr)
		}
	}()

	result := &Response[Resp]{
		Status:  resp.StatusCode,
		Headers: resp.Header,
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("apitest: read body: %v", err)
	}
	if len(raw) == 0 {
		return result
	}

	if resp.Header.Get("Content-Type") == resource.MediaTypeProblem {
		var pd resource.ProblemDetail
		if err := json.Unmarshal(raw, &pd); err != nil {
			t.Fatalf("apitest: decode problem: %v", err)
		}
		result.Problem = &pd
		return result
	}

	var decoded Resp
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("apitest: decode body: %v", err)
	}
	result.Body = &decoded
	return result
}
