package loader

import (
	"log/slog"

	"github.com/shulp2211/seqr-formkit/pkg/metrics"
)

// Option configures a Loader.
type Option func(*Loader)

// WithName labels logs and metrics and keys the singleflight group.
func WithName(name string) Option {
	return func(l *Loader) {
		if name != "" {
			l.name = name
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithErrorHandler receives load failures. Failures are never retried. The
// default handler logs at error level.
func WithErrorHandler(fn func(error)) Option {
	return func(l *Loader) {
		l.onError = fn
	}
}

// WithOnLoaded runs after a successful load while the loader is mounted.
func WithOnLoaded(fn func()) Option {
	return func(l *Loader) {
		l.onLoaded = fn
	}
}

// WithMetrics records load outcomes.
func WithMetrics(collector *metrics.Collector) Option {
	return func(l *Loader) {
		l.metrics = collector
	}
}
