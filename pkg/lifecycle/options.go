package lifecycle

import (
	"log/slog"

	"github.com/shulp2211/seqr-formkit/pkg/form"
	"github.com/shulp2211/seqr-formkit/pkg/metrics"
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

// Option configures a Controller.
type Option func(*Controller)

// WithName labels logs and metrics.
func WithName(name string) Option {
	return func(c *Controller) {
		if name != "" {
			c.name = name
		}
	}
}

// WithTitle sets the title shown above the edit form.
func WithTitle(title string) Option {
	return func(c *Controller) {
		c.title = title
	}
}

// WithContext attaches values to every dispatched payload without making
// them editable, such as the owning record's id.
func WithContext(extra valuebag.Bag) Option {
	return func(c *Controller) {
		c.context = extra.Clone()
	}
}

// WithEditable gates the edit trigger. The predicate receives the current
// value and whether one exists.
func WithEditable(fn func(current valuebag.Bag, present bool) bool) Option {
	return func(c *Controller) {
		c.editable = fn
	}
}

// WithDelete enables the delete trigger, gated by fn. A nil fn enables
// delete whenever a value exists.
func WithDelete(fn func(current valuebag.Bag, present bool) bool) Option {
	return func(c *Controller) {
		if fn == nil {
			fn = func(_ valuebag.Bag, present bool) bool { return present }
		}
		c.deletable = fn
	}
}

// WithDisplay sets the read-only renderer for the current value.
func WithDisplay(fn DisplayFunc) Option {
	return func(c *Controller) {
		c.display = fn
	}
}

// WithConfirm requires BeginEdit(true) and gives renderers the prompt text.
func WithConfirm(prompt string) Option {
	return func(c *Controller) {
		c.confirm = prompt
	}
}

// WithDeleteConfirm requires Delete(ctx, true) and gives renderers the
// prompt text.
func WithDeleteConfirm(prompt string) Option {
	return func(c *Controller) {
		c.deleteConfirm = prompt
	}
}

// WithFormOptions forwards options to every edit session.
func WithFormOptions(opts ...form.Option) Option {
	return func(c *Controller) {
		c.formOpts = append(c.formOpts, opts...)
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records submission outcomes and latency.
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Controller) {
		c.metrics = collector
	}
}
