package form

import (
	"log/slog"

	"github.com/shulp2211/seqr-formkit/pkg/model"
)

// Option configures a Form at construction time.
type Option func(*Form)

// WithLogger sets the structured logger used for debug output. A nil logger
// keeps the default.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithID names the form. Decorators look overlays up by it and log lines
// carry it.
func WithID(id string) Option {
	return func(f *Form) {
		f.id = id
	}
}

// WithDecorators applies descriptor decorators before the form is built.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(f *Form) {
		f.decorators = append(f.decorators, decorators...)
	}
}
