package resource

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for dispatch stages. Structured dispatch failures are
// *HTTPError values that wrap one of these, so callers can test the kind
// with errors.Is.
var (
	ErrHandlerNotFound          = errors.New("handler not found")
	ErrUnsupportedMediaType     = errors.New("unsupported media type")
	ErrParameterType            = errors.New("wrong type")
	ErrUnsupportedParameterType = errors.New("unsupported parameter type")
	ErrPreprocessing            = errors.New("preprocessing contract violation")
	ErrMalformedBody            = errors.New("malformed body")
	ErrInvalidParameter         = errors.New("invalid parameter")
	ErrBodyTooLarge             = errors.New("body too large")
	ErrPathMismatch             = errors.New("path names and values differ")
)

// Configuration and usage errors. These are never converted into canned
// responses; they surface to the host error boundary.
var (
	ErrRouteConflict = errors.New("route conflict")
	ErrInvalidRoute  = errors.New("invalid route")
	ErrHandlerReused = errors.New("handler instance reused")
)

// StatusCoder is implemented by errors or responses that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// ProblemDetail is an RFC 9457 problem details response.
//
//nolint:errname // RFC 9457 standard name
type ProblemDetail struct {
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Status   int    `json:"status" yaml:"status"`
	Detail   string `json:"detail,omitempty" yaml:"detail,omitempty"`
	Instance string `json:"instance,omitempty" yaml:"instance,omitempty"`
}

// Error returns the detail message (or title if detail is empty).
func (p *ProblemDetail) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

// StatusCode returns the HTTP status code.
func (p *ProblemDetail) StatusCode() int { return p.Status }

// HTTPError is an error with an HTTP status code. Err, when set, is the
// underlying cause and is reachable through errors.Is / errors.As.
type HTTPError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error returns the error message.
func (e *HTTPError) Error() string { return e.Message }

// StatusCode returns the HTTP status code.
func (e *HTTPError) StatusCode() int { return e.Status }

// Unwrap returns the underlying cause.
func (e *HTTPError) Unwrap() error { return e.Err }

// Error returns an error with the given HTTP status code and message.
func Error(status int, message string) error {
	return &HTTPError{Status: status, Message: message}
}

// Errorf returns a formatted error with the given HTTP status code.
func Errorf(status int, format string, args ...any) error {
	return &HTTPError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// ErrorStatus extracts the HTTP status code from an error. Returns
// http.StatusInternalServerError if the error does not implement StatusCoder.
func ErrorStatus(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

// isStructured reports whether err carries its own HTTP status and should be
// turned into a canned response instead of escaping the pipeline.
func isStructured(err error) bool {
	var sc StatusCoder
	return errors.As(err, &sc)
}

func stageError(status int, kind error, cause error, format string, args ...any) *HTTPError {
	err := kind
	if cause != nil {
		err = fmt.Errorf("%w: %w", kind, cause)
	}
	return &HTTPError{Status: status, Message: fmt.Sprintf(format, args...), Err: err}
}

func handlerNotFound(verb string, names []string) *HTTPError {
	return stageError(http.StatusNotFound, ErrHandlerNotFound, nil,
		"no handler for %s with path parameters %v", verb, names)
}

func pathMismatch(names, values []string) *HTTPError {
	return stageError(http.StatusInternalServerError, ErrPathMismatch, nil,
		"%d path parameter names for %d values", len(names), len(values))
}

func unsupportedMediaType(contentType string) *HTTPError {
	return stageError(http.StatusUnsupportedMediaType, ErrUnsupportedMediaType, nil,
		"unsupported content type %q", contentType)
}

func parameterTypeError(name string, cause error) *HTTPError {
	return stageError(http.StatusBadRequest, ErrParameterType, cause,
		"wrong type for parameter %q", name)
}

func unsupportedParameterType(name string, cause error) *HTTPError {
	return stageError(http.StatusInternalServerError, ErrUnsupportedParameterType, cause,
		"wrong type for parameter %q", name)
}
