package resource_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/resource"
)

type csvEncoder struct{}

func (csvEncoder) ContentType() string { return "text/csv" }

func (csvEncoder) Encode(w io.Writer, v any) error {
	_, err := io.WriteString(w, "id\n"+v.(map[string]string)["id"]+"\n")
	return err
}

func TestDispatcher_Write(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		resp       *resource.Response
		wantStatus int
		wantType   string
		wantBody   string
	}{
		"json by default": {
			resp:       resource.NewResponse(http.StatusOK, nil, map[string]int{"n": 1}),
			wantStatus: http.StatusOK,
			wantType:   resource.MediaTypeJSON,
			wantBody:   "{\"n\":1}\n",
		},
		"yaml by content type": {
			resp: &resource.Response{
				Status: http.StatusOK,
				Header: http.Header{"Content-Type": {resource.MediaTypeYAML}},
				Body:   map[string]int{"n": 1},
			},
			wantStatus: http.StatusOK,
			wantType:   resource.MediaTypeYAML,
			wantBody:   "n: 1\n",
		},
		"problem documents are json": {
			resp: &resource.Response{
				Status: http.StatusNotFound,
				Header: http.Header{"Content-Type": {resource.MediaTypeProblem}},
				Body:   &resource.ProblemDetail{Title: "Not Found", Status: http.StatusNotFound},
			},
			wantStatus: http.StatusNotFound,
			wantType:   resource.MediaTypeProblem,
			wantBody:   "{\"title\":\"Not Found\",\"status\":404}\n",
		},
		"custom encoder": {
			resp: &resource.Response{
				Status: http.StatusOK,
				Header: http.Header{"Content-Type": {"text/csv"}},
				Body:   map[string]string{"id": "7"},
			},
			wantStatus: http.StatusOK,
			wantType:   "text/csv",
			wantBody:   "id\n7\n",
		},
		"strings are written raw": {
			resp: &resource.Response{
				Status: http.StatusTeapot,
				Header: http.Header{"Content-Type": {"text/plain"}},
				Body:   "short and stout",
			},
			wantStatus: http.StatusTeapot,
			wantType:   "text/plain",
			wantBody:   "short and stout",
		},
		"no body": {
			resp:       resource.NewResponse(http.StatusNoContent, nil, nil),
			wantStatus: http.StatusNoContent,
		},
		"zero status is 200": {
			resp:       &resource.Response{Body: []byte("raw")},
			wantStatus: http.StatusOK,
			wantBody:   "raw",
		},
	}

	d := resource.NewDispatcher(resource.WithEncoder(csvEncoder{}))

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			d.Write(rec, tc.resp)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantType != "" {
				assert.Equal(t, tc.wantType, rec.Header().Get("Content-Type"))
			}
			assert.Equal(t, tc.wantBody, rec.Body.String())
		})
	}
}

func TestEncoderFor(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		contentType string
		want        string
	}{
		"json":        {contentType: "application/json", want: resource.MediaTypeJSON},
		"xml":         {contentType: "application/xml; charset=utf-8", want: resource.MediaTypeXML},
		"yaml":        {contentType: "application/yaml", want: resource.MediaTypeYAML},
		"xml suffix":  {contentType: "application/atom+xml", want: resource.MediaTypeXML},
		"yaml suffix": {contentType: "application/openapi+yaml", want: resource.MediaTypeYAML},
		"json suffix": {contentType: "application/problem+json", want: resource.MediaTypeJSON},
		"unknown":     {contentType: "text/csv", want: resource.MediaTypeJSON},
		"empty":       {contentType: "", want: resource.MediaTypeJSON},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, resource.EncoderFor(tc.contentType))
		})
	}

	assert.Equal(t, "text/csv", resource.EncoderFor("text/csv", csvEncoder{}))
}

func TestProblemResponse_round_trip(t *testing.T) {
	t.Parallel()

	resp, err := resource.Dispatch(t.Context(), &things{},
		newRequest(http.MethodGet, "/things?limit=x", "", "", nil, nil))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	resource.NewDispatcher().Write(rec, resp)

	var pd resource.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pd))
	assert.Equal(t, resource.ProblemDetail{
		Type:   "about:blank",
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
		Detail: `wrong type for parameter "limit"`,
	}, pd)
}
