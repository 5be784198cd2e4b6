package resource_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/resource"
	"github.com/bjaus/resource/apitest"
)

func newThingsService(t *testing.T, opts ...resource.Option) *resource.Service {
	t.Helper()

	s := resource.New(append([]resource.Option{
		resource.WithTitle("Things"),
		resource.WithVersion("1.0.0"),
		resource.WithLogger(slog.New(slog.DiscardHandler)),
	}, opts...)...)

	factory := func() *things { return &things{} }
	resource.Mount(s, "/things", factory, resource.WithMountTags("inventory"))
	resource.Mount(s, "/things/{id}", factory, resource.WithMountTags("inventory"))
	resource.Mount(s, "/orgs/{org}/things/{id:[0-9]+}", factory)
	return s
}

func TestService_end_to_end(t *testing.T) {
	t.Parallel()

	c := apitest.NewClient(t, newThingsService(t))

	t.Run("show", func(t *testing.T) {
		t.Parallel()

		resp := apitest.Get[map[string]string](t, c, "/things/42")
		assert.Equal(t, http.StatusOK, resp.Status)
		require.NotNil(t, resp.Body)
		assert.Equal(t, map[string]string{"id": "42"}, *resp.Body)
		assert.Equal(t, resource.MediaTypeJSON, resp.Headers.Get("Content-Type"))
	})

	t.Run("list", func(t *testing.T) {
		t.Parallel()

		resp := apitest.Get[[]map[string]string](t, c, "/things?limit=2")
		assert.Equal(t, http.StatusOK, resp.Status)
		require.NotNil(t, resp.Body)
		assert.Equal(t, []map[string]string{
			{"id": "a", "kind": "thing"},
			{"id": "b", "kind": "thing"},
		}, *resp.Body)
	})

	t.Run("form post", func(t *testing.T) {
		t.Parallel()

		resp := apitest.PostForm[map[string]any](t, c, "/things", url.Values{"name": {"Alice"}, "age": {"30"}})
		assert.Equal(t, http.StatusOK, resp.Status)
		require.NotNil(t, resp.Body)
		assert.Equal(t, map[string]any{"name": "Alice", "age": float64(30)}, *resp.Body)
	})

	t.Run("json post", func(t *testing.T) {
		t.Parallel()

		resp := apitest.Post[map[string]any](t, c, "/things?name=Bob", map[string]string{"ignored": "yes"})
		assert.Equal(t, http.StatusOK, resp.Status)
		require.NotNil(t, resp.Body)
		assert.Equal(t, map[string]any{"name": "Bob"}, *resp.Body)
	})

	t.Run("two path parameters with chi regexp", func(t *testing.T) {
		t.Parallel()

		resp := apitest.Send[any](t, c, http.MethodPut, "/orgs/acme/things/9", "", nil)
		assert.Equal(t, http.StatusNoContent, resp.Status)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		resp := apitest.Delete[any](t, c, "/things/7")
		assert.Equal(t, http.StatusNoContent, resp.Status)
		assert.Nil(t, resp.Body)
	})

	t.Run("no handler method", func(t *testing.T) {
		t.Parallel()

		resp := apitest.Send[any](t, c, http.MethodPatch, "/things/7", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.Status)
		require.NotNil(t, resp.Problem)
		assert.Equal(t, "no handler for PATCH with path parameters [id]", resp.Problem.Detail)
	})

	t.Run("unmounted path", func(t *testing.T) {
		t.Parallel()

		resp := apitest.Get[any](t, c, "/nowhere")
		assert.Equal(t, http.StatusNotFound, resp.Status)
		require.NotNil(t, resp.Problem)
	})

	t.Run("unsupported media type", func(t *testing.T) {
		t.Parallel()

		resp := apitest.Send[any](t, c, http.MethodPost, "/things", "text/plain", strings.NewReader("hello"))
		assert.Equal(t, http.StatusUnsupportedMediaType, resp.Status)
		require.NotNil(t, resp.Problem)
		assert.Equal(t, http.StatusUnsupportedMediaType, resp.Problem.Status)
	})

	t.Run("handler error with status", func(t *testing.T) {
		t.Parallel()

		resp := apitest.Delete[any](t, c, "/things/404")
		assert.Equal(t, http.StatusNotFound, resp.Status)
		require.NotNil(t, resp.Problem)
		assert.Equal(t, "no such thing", resp.Problem.Detail)
	})

	t.Run("unstructured handler error", func(t *testing.T) {
		t.Parallel()

		resp := apitest.Delete[any](t, c, "/things/500")
		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		require.NotNil(t, resp.Problem)
		assert.Equal(t, "Internal Server Error", resp.Problem.Detail)
	})
}

func TestService_error_handler(t *testing.T) {
	t.Parallel()

	var got error
	s := newThingsService(t, resource.WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusBadGateway)
	}))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/things/500", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	require.ErrorIs(t, got, errBoom)
}

func TestService_default_error_handler_logs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := resource.New(resource.WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	resource.Mount(s, "/things/{id}", func() *things { return &things{} })

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/things/500", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), `"msg":"request failed"`)
	assert.Contains(t, buf.String(), `"err":"boom"`)
}

func TestService_middleware_order(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) resource.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	s := newThingsService(t)
	s.Use(mw("first"), mw("second"))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestService_body_limit(t *testing.T) {
	t.Parallel()

	s := resource.New(resource.WithLogger(slog.New(slog.DiscardHandler)))
	resource.Mount(s, "/things", func() *things { return &things{} }, resource.WithBodyLimit(8))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(`{"name":"much too long"}`))
	req.Header.Set("Content-Type", resource.MediaTypeJSON)
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, resource.MediaTypeProblem, rec.Header().Get("Content-Type"))
}

func TestService_rate_limit(t *testing.T) {
	t.Parallel()

	s := resource.New(resource.WithLogger(slog.New(slog.DiscardHandler)))
	resource.Mount(s, "/things", func() *things { return &things{} }, resource.WithRateLimit(1, 2))

	var codes []int
	for range 3 {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestMount_panics_on_invalid_type(t *testing.T) {
	t.Parallel()

	s := resource.New()
	assert.PanicsWithValue(t,
		`resource: mount /c/{id}: route conflict: *resource_test.conflicted: A and B both answer "get-id"`,
		func() {
			resource.Mount(s, "/c/{id}", func() *conflicted { return &conflicted{} })
		})
}

func TestService_Endpoints(t *testing.T) {
	t.Parallel()

	s := newThingsService(t)

	var got []string
	for _, ep := range s.Endpoints() {
		got = append(got, ep.Verb+" "+ep.ID)
	}
	assert.Equal(t, []string{
		"GET list", "POST create",
		"GET show", "DELETE remove",
		"PUT moveThing",
	}, got)

	eps := s.Endpoints()
	assert.Equal(t, []string{"inventory", "things"}, eps[0].Tags)
}
