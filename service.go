package resource

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Service mounts resource types on a chi router and adapts HTTP requests to
// the dispatch pipeline. It implements http.Handler.
type Service struct {
	mux        *chi.Mux
	middleware []Middleware
	mounts     []mount

	title   string
	version string

	dispatcher   *Dispatcher
	logger       *slog.Logger
	errorHandler ErrorHandler

	mu sync.Mutex
}

// mount records one Mount call for documentation.
type mount struct {
	pattern   string
	names     []string
	tags      []string
	endpoints []Endpoint
}

// ErrorHandler writes the response for an error the pipeline could not turn
// into a response itself: failures of the handler method that carry no HTTP
// status, configuration errors, and handler reuse.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// WithTitle sets the API title (used in the OpenAPI document).
func WithTitle(title string) Option {
	return func(c *config) {
		c.title = title
	}
}

// WithVersion sets the API version (used in the OpenAPI document).
func WithVersion(version string) Option {
	return func(c *config) {
		c.version = version
	}
}

// WithErrorHandler sets the error boundary for unstructured errors.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *config) {
		c.errorHandler = h
	}
}

// New creates a Service.
func New(opts ...Option) *Service {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Service{
		mux:          chi.NewRouter(),
		title:        cfg.title,
		version:      cfg.version,
		dispatcher:   newDispatcher(cfg),
		errorHandler: cfg.errorHandler,
	}
	s.logger = s.dispatcher.logger
	if s.errorHandler == nil {
		s.errorHandler = s.internalError
	}

	s.mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.dispatcher.Write(w, problemResponse(Errorf(http.StatusNotFound, "no resource at %s", r.URL.Path)))
	})
	return s
}

// Use adds middleware to the service. Middleware is applied in the order added.
func (s *Service) Use(mw ...Middleware) {
	s.middleware = append(s.middleware, mw...)
}

// ServeHTTP implements http.Handler.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := http.Handler(s.mux)
	for i := len(s.middleware) - 1; i >= 0; i-- {
		handler = s.middleware[i](handler)
	}
	handler.ServeHTTP(w, r)
}

// MountOption configures a single Mount.
type MountOption func(*mountConfig)

type mountConfig struct {
	tags      []string
	bodyLimit int64
	rateLimit *RateLimitConfig
}

// WithMountTags adds documentation tags to every endpoint of the mount.
func WithMountTags(tags ...string) MountOption {
	return func(c *mountConfig) {
		c.tags = append(c.tags, tags...)
	}
}

// WithBodyLimit caps request bodies at n bytes. Larger bodies are answered
// with 413.
func WithBodyLimit(n int64) MountOption {
	return func(c *mountConfig) {
		c.bodyLimit = n
	}
}

// WithRateLimit limits each client to rps requests per second with the given
// burst. Excess requests are answered with 429.
func WithRateLimit(rps float64, burst int) MountOption {
	return func(c *mountConfig) {
		c.rateLimit = &RateLimitConfig{Rate: rps, Burst: burst}
	}
}

// Mount serves the resource type produced by factory at pattern. Each
// request gets a fresh handler from factory. pattern uses chi syntax; its
// {name} variables are the path parameters handed to the pipeline, in order.
//
// Mount builds the type's route table immediately and panics if it is
// invalid.
func Mount[H Handler](s *Service, pattern string, factory func() H, opts ...MountOption) {
	var mc mountConfig
	for _, opt := range opts {
		opt(&mc)
	}

	sample := factory()
	table, err := s.dispatcher.registry.table(sample, s.dispatcher.logger)
	if err != nil {
		panic(fmt.Sprintf("resource: mount %s: %v", pattern, err))
	}

	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.serve(w, r, factory())
	})
	if mc.bodyLimit > 0 {
		h = BodyLimit(mc.bodyLimit)(h)
	}
	if mc.rateLimit != nil {
		h = RateLimit(*mc.rateLimit)(h)
	}

	m := mount{
		pattern:   pattern,
		names:     patternNames(pattern),
		tags:      mc.tags,
		endpoints: describeTable(table, sample),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mux.Handle(pattern, h)
	s.mounts = append(s.mounts, m)
}

// serve dispatches one request to h.
func (s *Service) serve(w http.ResponseWriter, r *http.Request, h Handler) {
	resp, err := s.dispatcher.Dispatch(r.Context(), h, FromHTTP(r))
	if err != nil {
		s.errorHandler(w, r, err)
		return
	}
	s.dispatcher.Write(w, resp)
}

// internalError is the default ErrorHandler.
func (s *Service) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", RequestIDFromContext(r.Context())),
		slog.Any("err", err),
	)
	s.dispatcher.Write(w, problemResponse(Error(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))))
}

// Endpoints returns the documented endpoints of every mount, with the
// mount's tags applied, in mount order.
func (s *Service) Endpoints() []Endpoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	var eps []Endpoint
	for _, m := range s.mounts {
		for _, ep := range m.served() {
			ep.Tags = append(slices.Clone(m.tags), ep.Tags...)
			eps = append(eps, ep)
		}
	}
	return eps
}

// served returns the endpoints reachable through the mount's pattern: those
// whose path parameters are exactly the pattern's variables, in order.
func (m mount) served() []Endpoint {
	var eps []Endpoint
	for _, ep := range m.endpoints {
		var names []string
		for _, p := range ep.Params {
			if p.In == InPath {
				names = append(names, p.Name)
			}
		}
		if slices.Equal(names, m.names) {
			eps = append(eps, ep)
		}
	}
	return eps
}
