// Command sample serves an in-memory users resource with package resource.
//
// Run:
//
//	go run ./cmd/sample
//
// Generate the OpenAPI spec:
//
//	go run ./cmd/sample -spec                        # print to stdout
//	go run ./cmd/sample -spec -o openapi.json        # write to file
//	go run ./cmd/sample -spec -yaml                  # print as YAML
//
// Then explore:
//
//	GET    http://localhost:8080/openapi.json
//	GET    http://localhost:8080/docs
//	GET    http://localhost:8080/metrics
//	GET    http://localhost:8080/v1/users?limit=10
//	POST   http://localhost:8080/v1/users           (form: name=Alice&age=30)
//	GET    http://localhost:8080/v1/users/{id}
//	PUT    http://localhost:8080/v1/users/{id}
//	DELETE http://localhost:8080/v1/users/{id}
//
// Configuration comes from SAMPLE_* environment variables; see Config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bjaus/resource"
)

// Config is loaded from the environment with the SAMPLE prefix.
type Config struct {
	Addr            string          `envconfig:"ADDR" default:":8080"`
	LogLevel        string          `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string          `envconfig:"LOG_FORMAT" default:"text"`
	ShutdownTimeout time.Duration   `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	BodyLimit       int64           `envconfig:"BODY_LIMIT" default:"1048576"`
	ReadOnly        bool            `envconfig:"READ_ONLY" default:"false"`
	RateLimit       RateLimitConfig `envconfig:"RATE_LIMIT"`
}

// RateLimitConfig configures per-client rate limiting of the users resource.
type RateLimitConfig struct {
	Enabled bool    `envconfig:"ENABLED" default:"true"`
	RPS     float64 `envconfig:"RPS" default:"50"`
	Burst   int     `envconfig:"BURST" default:"100"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("SAMPLE", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config from env: %w", err)
	}
	return cfg, nil
}

func main() {
	specFlag := flag.Bool("spec", false, "Print the OpenAPI spec to stdout and exit")
	yamlFlag := flag.Bool("yaml", false, "Write the spec as YAML (requires -spec)")
	outFlag := flag.String("o", "", "Output file for the spec (requires -spec)")
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	s := newService(cfg, logger, resource.NewMetrics(reg), newStore())

	if *specFlag {
		if err := writeSpec(s, *outFlag, *yamlFlag); err != nil {
			logger.Error("spec generation failed", "err", err)
			os.Exit(1)
		}
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", s)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger, mux); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func newLogger(cfg Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func newService(cfg Config, logger *slog.Logger, metrics *resource.Metrics, st *store) *resource.Service {
	s := resource.New(
		resource.WithTitle("Sample API"),
		resource.WithVersion("1.0.0"),
		resource.WithLogger(logger),
		resource.WithMetrics(metrics),
	)
	s.Use(
		resource.RequestID(),
		resource.Logger(logger),
		resource.Recovery(logger),
	)

	opts := []resource.MountOption{
		resource.WithMountTags("users"),
		resource.WithBodyLimit(cfg.BodyLimit),
	}
	if cfg.RateLimit.Enabled {
		opts = append(opts, resource.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	factory := func() *Users {
		return &Users{store: st, readOnly: cfg.ReadOnly}
	}
	resource.Mount(s, "/v1/users", factory, opts...)
	resource.Mount(s, "/v1/users/{id}", factory, opts...)

	s.ServeSpec("/openapi.json")
	s.ServeSpecYAML("/openapi.yaml")
	s.ServeDocs("/docs")
	return s
}

func serve(ctx context.Context, cfg Config, logger *slog.Logger, h http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeSpec(s *resource.Service, path string, asYAML bool) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}
	if asYAML {
		return s.WriteSpecYAML(out)
	}
	return s.WriteSpec(out)
}
