// Package service exposes the portvm engine to surrounding layers: it
// resolves program names to port numbers and logs each lookup. It is the
// boundary where the pure compiler/VM core meets operational concerns;
// the core packages themselves stay log-free.
package service

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"

	"github.com/cloudcmds/portvm"
	"github.com/cloudcmds/portvm/compiler"
)

// Service resolves program names to their designated port numbers.
type Service struct {
	engine portvm.Engine
	logger zerolog.Logger
}

// Option is a configuration function for a Service.
type Option func(*Service)

// WithEngine sets the engine used to compile and execute programs. Any
// portvm.Engine implementation may be substituted.
func WithEngine(engine portvm.Engine) Option {
	return func(s *Service) {
		s.engine = engine
	}
}

// WithLogger sets the logger. By default logging is disabled.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a Service backed by the default engine unless one is supplied.
func New(opts ...Option) (*Service, error) {
	svc := &Service{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.engine == nil {
		engine, err := portvm.NewEngine()
		if err != nil {
			return nil, err
		}
		svc.engine = engine
	}
	return svc, nil
}

// Port compiles and executes the named program and returns the resulting
// port number. Failures are returned to the caller untouched; a silently
// wrong port is worse than a loud failure.
func (s *Service) Port(ctx context.Context, name string) (int64, error) {
	logger := s.logger.With().
		Str("execution_id", uuid.Must(uuid.NewV4()).String()).
		Str("program", name).
		Logger()

	code, err := s.engine.Compile(name)
	if err != nil {
		logger.Error().Err(err).Msg("compilation failed")
		return 0, err
	}
	port, err := s.engine.Execute(ctx, code)
	if err != nil {
		logger.Error().Err(err).Msg("execution failed")
		return 0, err
	}
	logger.Debug().Int64("port", port).Msg("program executed")
	return port, nil
}

// FrontendPort returns the frontend port number.
func (s *Service) FrontendPort(ctx context.Context) (int64, error) {
	return s.Port(ctx, compiler.Frontend)
}

// BackendPort returns the backend port number.
func (s *Service) BackendPort(ctx context.Context) (int64, error) {
	return s.Port(ctx, compiler.Backend)
}
