// Package server exposes the strip analyzer over HTTP.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	phanalyzer "github.com/menta2k/ph-analyzer"
	"github.com/menta2k/ph-analyzer/internal/config"
	"github.com/menta2k/ph-analyzer/pkg/processing"
)

type ServerOption func(*Server) error

type Server struct {
	engine    *fiber.App
	log       *logrus.Logger
	validator *validator.Validate
	analyzer  *phanalyzer.ImageAnalyzer
	processor *processing.Processor
	config    config.ServerConfig
}

// NewFiber creates the fiber app with jsoniter as the JSON codec.
func NewFiber(cfg config.ServerConfig) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:               "pH Analyzer",
			BodyLimit:             cfg.BodyLimitMB * 1024 * 1024,
			DisableKeepalive:      false,
			StrictRouting:         true,
			CaseSensitive:         true,
			DisableStartupMessage: true,
			JSONEncoder:           jsoniter.Marshal,
			JSONDecoder:           jsoniter.Unmarshal,
		})

	return app
}

// NewServer applies options and registers routes.
func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{
		config:    config.Default().Server,
		processor: processing.NewProcessor(),
	}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.validator == nil {
		server.validator = validator.New()
	}
	if server.engine == nil {
		server.engine = NewFiber(server.config)
	}

	server.registerRoutes()
	return server, nil
}

func WithConfig(cfg config.ServerConfig) ServerOption {
	return func(s *Server) error {
		if cfg.RateLimit <= 0 || cfg.RateBurst < 1 {
			return fmt.Errorf("rate limit and burst must be positive")
		}
		s.config = cfg
		return nil
	}
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithAnalyzer(analyzer *phanalyzer.ImageAnalyzer) ServerOption {
	return func(s *Server) error {
		s.analyzer = analyzer
		return nil
	}
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.engine
}

func (s *Server) registerRoutes() {
	limiter := newRateLimiter(rate.Limit(s.config.RateLimit), s.config.RateBurst, s.log)

	s.engine.Use(NewRequestIDMiddleware())
	s.engine.Use(NewLoggingMiddleware(s.log))

	s.setupHealthCheck()
	s.engine.Post("/predict", limiter.Handle, s.Predict)
}

// Run listens on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = s.config.Addr
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", addr)
		errCh <- s.engine.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("shutting down server")
		return s.engine.ShutdownWithContext(shutdownCtx)
	}
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "pH analyzer is running",
		})
	})
}
