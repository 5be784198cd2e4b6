package resource

import (
	"errors"
	"log/slog"
	"net/http"
)

// Response is the outbound response built by the pipeline. Body is a plain
// value encoded according to the Content-Type header when written.
type Response struct {
	Status int
	Header http.Header
	Body   any
}

// NewResponse creates a Response. A nil header is replaced by an empty one.
func NewResponse(status int, header http.Header, body any) *Response {
	if header == nil {
		header = make(http.Header)
	}
	return &Response{Status: status, Header: header, Body: body}
}

// StatusCode returns the response status.
func (r *Response) StatusCode() int { return r.Status }

// problemResponse builds the canned response for a structured error.
func problemResponse(err error) *Response {
	var pd *ProblemDetail
	if !errors.As(err, &pd) {
		status := ErrorStatus(err)
		pd = &ProblemDetail{
			Type:   "about:blank",
			Title:  http.StatusText(status),
			Status: status,
			Detail: err.Error(),
		}
	}
	resp := NewResponse(pd.Status, nil, pd)
	resp.Header.Set("Content-Type", MediaTypeProblem)
	return resp
}

// writeResponse writes resp to w, encoding the body with the encoder that
// matches its Content-Type.
func writeResponse(w http.ResponseWriter, resp *Response, codecs *codecRegistry, logger *slog.Logger) {
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	if resp.Body == nil {
		w.WriteHeader(status)
		return
	}

	switch b := resp.Body.(type) {
	case []byte:
		w.WriteHeader(status)
		//nolint:errcheck,gosec // best-effort after WriteHeader
		w.Write(b)
		return
	case string:
		w.WriteHeader(status)
		//nolint:errcheck,gosec // best-effort after WriteHeader
		w.Write([]byte(b))
		return
	}

	enc := codecs.encoderFor(w.Header().Get("Content-Type"))
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", enc.ContentType())
	}
	w.WriteHeader(status)
	if err := enc.Encode(w, resp.Body); err != nil {
		logger.Error("encode response", slog.String("content_type", enc.ContentType()), slog.Any("err", err))
	}
}
