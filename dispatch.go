package resource

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/bjaus/resource"

// Dispatcher runs the request pipeline for handler instances: prepare,
// resolve, negotiate and decode, bind, invoke, finish, serialize.
type Dispatcher struct {
	registry *registry
	decoders decoderRegistry
	codecs   *codecRegistry
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// Option configures a Dispatcher or a Service.
type Option func(*config)

type config struct {
	decoders []BodyDecoder
	encoders []Encoder
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer

	title        string
	version      string
	errorHandler ErrorHandler
}

// WithDecoder registers a request body decoder. It replaces a built-in
// decoder for the same media type.
func WithDecoder(dec BodyDecoder) Option {
	return func(c *config) {
		c.decoders = append(c.decoders, dec)
	}
}

// WithEncoder registers a response encoder.
func WithEncoder(enc Encoder) Option {
	return func(c *config) {
		c.encoders = append(c.encoders, enc)
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithMetrics records dispatch counts and latencies.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithTracer sets the tracer used for dispatch spans. Defaults to the
// global OpenTelemetry tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) {
		c.tracer = t
	}
}

// NewDispatcher creates a Dispatcher. Handler route tables are shared
// process-wide across dispatchers.
func NewDispatcher(opts ...Option) *Dispatcher {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return newDispatcher(cfg)
}

func newDispatcher(cfg config) *Dispatcher {
	d := &Dispatcher{
		registry: defaultRegistry,
		decoders: newDecoderRegistry(cfg.decoders),
		codecs:   newCodecRegistry(cfg.encoders),
		logger:   cfg.logger,
		metrics:  cfg.metrics,
		tracer:   cfg.tracer,
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.tracer == nil {
		d.tracer = otel.Tracer(tracerName)
	}
	return d
}

var defaultDispatcher = NewDispatcher()

// Dispatch runs h against req with the default Dispatcher.
func Dispatch(ctx context.Context, h Handler, req *Request) (*Response, error) {
	return defaultDispatcher.Dispatch(ctx, h, req)
}

// Dispatch serves req with h and returns the response to send.
//
// Failures of the dispatch stages (no matching handler method, unsupported
// media type, parameter conversion) and structured errors returned by the
// handler method (anything implementing StatusCoder) become problem-details
// responses. Other errors from the handler method, configuration errors,
// and reuse of h are returned for the caller's error boundary.
func (d *Dispatcher) Dispatch(ctx context.Context, h Handler, req *Request) (*Response, error) {
	if !h.base().claim() {
		return nil, fmt.Errorf("%w: %T", ErrHandlerReused, h)
	}

	handlerName := reflect.TypeOf(h).String()
	ctx, span := d.tracer.Start(ctx, "resource.dispatch", trace.WithAttributes(
		attribute.String("resource.handler", handlerName),
		attribute.String("http.request.method", req.Method),
	))
	defer span.End()
	start := time.Now()

	resp, err := d.run(ctx, h, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.metrics.observe(handlerName, req.Method, http.StatusInternalServerError, time.Since(start))
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
	if resp.Status >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(resp.Status))
	}
	d.metrics.observe(handlerName, req.Method, resp.Status, time.Since(start))
	return resp, nil
}

func (d *Dispatcher) run(ctx context.Context, h Handler, req *Request) (*Response, error) {
	b := h.base()
	b.request = req

	switch v := h.Prepare(ctx, req).(type) {
	case *Request:
		if v == nil {
			return d.fail(ctx, h, preprocessingError(v))
		}
		req = v
		b.request = v
	case *Response:
		if v == nil {
			return d.fail(ctx, h, preprocessingError(v))
		}
		return d.finalize(h, v), nil
	default:
		return d.fail(ctx, h, preprocessingError(v))
	}

	resp, err := d.serve(ctx, h, req)
	if err != nil {
		if isStructured(err) {
			return d.fail(ctx, h, err)
		}
		return nil, err
	}

	h.OnFinish(ctx, resp)
	return d.finalize(h, resp), nil
}

// serve runs the resolve, decode, bind, and invoke stages.
func (d *Dispatcher) serve(ctx context.Context, h Handler, req *Request) (*Response, error) {
	if len(req.PathNames) != len(req.PathValues) {
		return nil, pathMismatch(req.PathNames, req.PathValues)
	}

	rt, err := d.registry.resolve(h, req.Method, req.PathNames, d.logger)
	if err != nil {
		return nil, err
	}

	var body any
	if req.hasBody() {
		body, err = d.decode(ctx, h, req)
		if err != nil {
			return nil, err
		}
	}

	args, err := bind(rt, req, body)
	if err != nil {
		return nil, err
	}

	if body != nil {
		h.base().body = body
		h.OnDecoded(ctx, body)
	}

	result, err := rt.invoke(h, ctx, args)
	if err != nil {
		return nil, err
	}

	switch v := result.(type) {
	case *Response:
		if v != nil {
			return v, nil
		}
		return NewResponse(http.StatusNoContent, nil, nil), nil
	default:
		if isNil(v) {
			return NewResponse(http.StatusNoContent, nil, nil), nil
		}
		return NewResponse(http.StatusOK, nil, v), nil
	}
}

// decode checks the request media type against the handler's accepted set
// and decodes the body. A body of unknown length is read first; when it
// turns out empty, neither negotiation nor decoding happens.
func (d *Dispatcher) decode(ctx context.Context, h Handler, req *Request) (any, error) {
	if req.ContentLength < 0 {
		b, err := req.readBody()
		if err != nil {
			return nil, err
		}
		if len(b) == 0 {
			return nil, nil
		}
	}

	ct := req.ContentType()
	if !isSupported(ct, h.AcceptedContentTypes()) {
		return nil, unsupportedMediaType(ct)
	}
	dec, ok := d.decoders.decoderFor(ct)
	if !ok {
		return nil, unsupportedMediaType(ct)
	}
	return req.Decode(ctx, dec)
}

// finalize serializes the body and stamps the handler's response media type
// unless the response already carries one.
func (d *Dispatcher) finalize(h Handler, resp *Response) *Response {
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	resp.Body = serialize(resp.Body)
	if resp.Body != nil && resp.Header.Get("Content-Type") == "" {
		resp.Header.Set("Content-Type", h.ResponseContentType())
	}
	return resp
}

// fail converts a structured error into its canned response.
func (d *Dispatcher) fail(ctx context.Context, h Handler, err error) (*Response, error) {
	resp := problemResponse(err)
	d.logger.DebugContext(ctx, "dispatch failed",
		slog.String("handler", reflect.TypeOf(h).String()),
		slog.Int("status", resp.Status),
		slog.String("request_id", RequestIDFromContext(ctx)),
		slog.Any("err", err),
	)
	return resp, nil
}

// Write writes resp to w using the dispatcher's encoders.
func (d *Dispatcher) Write(w http.ResponseWriter, resp *Response) {
	writeResponse(w, resp, d.codecs, d.logger)
}

func preprocessingError(got any) *HTTPError {
	return stageError(http.StatusInternalServerError, ErrPreprocessing, nil,
		"Prepare returned %s, want *Request or *Response", typeLabel(got))
}

func typeLabel(v any) string {
	if v == nil {
		return "nil"
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return fmt.Sprintf("nil %T", v)
	}
	return fmt.Sprintf("%T", v)
}
