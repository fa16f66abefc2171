// Package observability wires tracing, continuous profiling and the pprof
// endpoint for the pickem binaries.
package observability

import (
	"context"
	"errors"
	"net/http"

	"github.com/riskibarqy/pickem/internal/config"
	"github.com/riskibarqy/pickem/internal/platform/logging"
)

// Stack holds whatever Setup started. Its zero value shuts down cleanly.
type Stack struct {
	logger          *logging.Logger
	pprof           *http.Server
	stopProfiler    func() error
	shutdownTracing func(context.Context) error
}

// Setup starts each enabled component. On error the components that did start
// are stopped again.
func Setup(cfg config.Config, logger *logging.Logger) (*Stack, error) {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Stack{logger: logger}

	var err error
	if s.shutdownTracing, err = initUptrace(cfg, logger); err != nil {
		return nil, err
	}
	if s.stopProfiler, err = initPyroscope(cfg, logger); err != nil {
		_ = s.Shutdown(context.Background())
		return nil, err
	}
	s.pprof = startPprof(cfg, logger)
	return s, nil
}

// Shutdown stops pprof first and flushes traces last so spans emitted while
// stopping are still exported.
func (s *Stack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var errs []error
	if s.pprof != nil {
		if err := s.pprof.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.stopProfiler != nil {
		if err := s.stopProfiler(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.shutdownTracing != nil {
		if err := s.shutdownTracing(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
