// Package loader triggers a one-shot fetch whenever the content it guards
// goes missing, and exposes the loading flag to whatever renders meanwhile.
package loader

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"

	"github.com/shulp2211/seqr-formkit/pkg/metrics"
)

// LoadFunc fetches the guarded content into the caller's read model.
type LoadFunc func(ctx context.Context) error

// Loader fires LoadFunc at most once per transition of the content from
// present to absent, and never while a previous load is outstanding.
type Loader struct {
	name    string
	present func() bool
	load    LoadFunc

	group   singleflight.Group
	loading atomic.Bool
	fired   atomic.Int64

	mu          sync.Mutex
	mounted     bool
	lastPresent bool
	done        chan struct{}

	onError  func(error)
	onLoaded func()
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// New builds a loader. present reports whether the content is available.
func New(present func() bool, load LoadFunc, opts ...Option) *Loader {
	l := &Loader{
		name:    "loader",
		present: present,
		load:    load,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.onError == nil {
		l.onError = func(err error) {
			l.logger.Error("load failed", "loader", l.name, "error", err)
		}
	}
	return l
}

// Mount activates the loader and loads immediately when content is absent.
func (l *Loader) Mount(ctx context.Context) {
	l.mu.Lock()
	l.mounted = true
	l.lastPresent = true
	l.mu.Unlock()
	l.Sync(ctx)
}

// Unmount deactivates the loader. An outstanding load still finishes, but
// its error and completion callbacks are dropped.
func (l *Loader) Unmount() {
	l.mu.Lock()
	l.mounted = false
	l.mu.Unlock()
}

// Sync re-reads the presence predicate and starts a load when the content
// just went missing. It never blocks on the load itself. The load keeps the
// values of ctx but not its cancellation, so a request-scoped ctx may end
// while the load is still running.
func (l *Loader) Sync(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.mounted {
		return
	}
	present := l.present == nil || l.present()
	wentMissing := l.lastPresent && !present
	l.lastPresent = present
	if !wentMissing || l.loading.Load() {
		return
	}
	l.start(ctx)
}

// Loading reports whether a load is outstanding.
func (l *Loader) Loading() bool {
	return l.loading.Load()
}

// Fired reports how many times the load function has been started.
func (l *Loader) Fired() int {
	return int(l.fired.Load())
}

// Wait blocks until the outstanding load, if any, finishes or ctx ends.
func (l *Loader) Wait(ctx context.Context) error {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "loader: wait")
	}
}

// Render hands the loading flag to fn. Children always render; the flag
// only lets them show an inline loading state.
func Render[T any](l *Loader, fn func(loading bool) T) T {
	return fn(l.Loading())
}

// start must be called with mu held.
func (l *Loader) start(ctx context.Context) {
	l.loading.Store(true)
	l.fired.Add(1)
	done := make(chan struct{})
	l.done = done
	l.logger.Debug("load started", "loader", l.name)
	ctx = context.WithoutCancel(ctx)

	go func() {
		defer close(done)
		_, err, _ := l.group.Do(l.name, func() (any, error) {
			if l.load == nil {
				return nil, nil
			}
			return nil, l.load(ctx)
		})
		l.loading.Store(false)
		l.metrics.Load(l.name, err)

		l.mu.Lock()
		mounted := l.mounted
		l.mu.Unlock()
		if !mounted {
			l.logger.Debug("load finished after unmount", "loader", l.name)
			return
		}
		if err != nil {
			l.onError(errors.Wrapf(err, "loader %s", l.name))
			return
		}
		if l.onLoaded != nil {
			l.onLoaded()
		}
	}()
}
