package resource_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/resource"
)

// searching declares list path parameters and ruled query parameters.
type searching struct{ resource.Base }

func (h *searching) Routes() []resource.Route {
	return []resource.Route{
		resource.Get((*searching).Find,
			resource.WithPath(resource.Param[[]int]("ids")),
			resource.WithParams(
				resource.Param[string]("q", resource.Rules("min=2")),
				resource.Param[time.Duration]("within"),
				resource.Param[[]string]("sort", resource.Rules("max=2")),
				resource.Param[bool]("exact"),
			),
		),
	}
}

func (h *searching) Find(context.Context, *resource.Args) (any, error) { return nil, nil }

func TestBind(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		target       string
		contentType  string
		body         any
		ids          string
		wantRequired []any
		wantOptional map[string]any
		wantStatus   int
		wantErr      error
	}{
		"comma separated list path parameter": {
			target:       "/search/3,1,2",
			ids:          "3,1,2",
			wantRequired: []any{[]int{3, 1, 2}},
			wantOptional: map[string]any{},
		},
		"query parameters": {
			target:       "/search/1?q=go&within=2h&sort=name&sort=age&exact",
			ids:          "1",
			wantRequired: []any{[]int{1}},
			wantOptional: map[string]any{
				"q":      "go",
				"within": 2 * time.Hour,
				"sort":   []string{"name", "age"},
				"exact":  true,
			},
		},
		"scalar takes the last value": {
			target:       "/search/1?q=first&q=second",
			ids:          "1",
			wantRequired: []any{[]int{1}},
			wantOptional: map[string]any{"q": "second"},
		},
		"form body replaces the query": {
			target:       "/search/1?q=from-query",
			contentType:  resource.MediaTypeForm,
			body:         url.Values{"q": {"from-form"}},
			ids:          "1",
			wantRequired: []any{[]int{1}},
			wantOptional: map[string]any{"q": "from-form"},
		},
		"form request without a body binds nothing": {
			target:       "/search/1?q=from-query",
			contentType:  resource.MediaTypeForm,
			ids:          "1",
			wantRequired: []any{[]int{1}},
			wantOptional: map[string]any{},
		},
		"bad list element": {
			target:     "/search/1,x",
			ids:        "1,x",
			wantStatus: http.StatusBadRequest,
			wantErr:    resource.ErrParameterType,
		},
		"rule on scalar": {
			target:     "/search/1?q=a",
			ids:        "1",
			wantStatus: http.StatusBadRequest,
			wantErr:    resource.ErrInvalidParameter,
		},
		"rule on list length": {
			target:     "/search/1?sort=a&sort=b&sort=c",
			ids:        "1",
			wantStatus: http.StatusBadRequest,
			wantErr:    resource.ErrInvalidParameter,
		},
		"bad duration": {
			target:     "/search/1?within=soon",
			ids:        "1",
			wantStatus: http.StatusBadRequest,
			wantErr:    resource.ErrParameterType,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			req := newRequest(http.MethodGet, tc.target, tc.contentType, "", []string{"ids"}, []string{tc.ids})
			args, err := resource.Bind(&searching{}, req, tc.body)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, tc.wantStatus, resource.ErrorStatus(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantRequired, args.Required)
			assert.Equal(t, tc.wantOptional, args.Optional)
			assert.Equal(t, tc.body, args.Body)
		})
	}
}

func TestArgs_accessors(t *testing.T) {
	t.Parallel()

	args := &resource.Args{
		Required: []any{"acme", 7},
		Optional: map[string]any{"limit": 10},
	}

	assert.Equal(t, "acme", resource.Required[string](args, 0))
	assert.Equal(t, 7, resource.Required[int](args, 1))
	assert.Zero(t, resource.Required[int](args, 0), "wrong type")
	assert.Zero(t, resource.Required[int](args, 5), "out of range")

	limit, ok := resource.Optional[int](args, "limit")
	assert.True(t, ok)
	assert.Equal(t, 10, limit)

	_, ok = resource.Optional[int](args, "offset")
	assert.False(t, ok)
	assert.Equal(t, 25, resource.OptionalOr(args, "offset", 25))
	assert.Equal(t, 10, resource.OptionalOr(args, "limit", 25))

	assert.Zero(t, resource.Required[int](nil, 0))
}
