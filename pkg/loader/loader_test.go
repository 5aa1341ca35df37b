package loader_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulp2211/seqr-formkit/pkg/loader"
	"github.com/shulp2211/seqr-formkit/pkg/metrics"
)

type content struct {
	mu      sync.Mutex
	present bool
}

func (c *content) get() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.present
}

func (c *content) set(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.present = v
}

func TestLoader_FiresOncePerAbsentTransition(t *testing.T) {
	ctx := context.Background()
	state := &content{}
	release := make(chan struct{})
	var calls atomic.Int32

	l := loader.New(state.get, func(context.Context) error {
		calls.Add(1)
		<-release
		state.set(true)
		return nil
	}, loader.WithName("savedVariants"))

	l.Mount(ctx)
	assert.True(t, l.Loading())

	// Re-syncing while the load is outstanding must not fire again.
	l.Sync(ctx)
	l.Sync(ctx)
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	require.NoError(t, l.Wait(ctx))
	assert.False(t, l.Loading())

	// Content present: nothing to do.
	l.Sync(ctx)
	assert.Equal(t, 1, l.Fired())

	// Content disappears again: exactly one more load.
	state.set(false)
	l.Sync(ctx)
	require.NoError(t, l.Wait(ctx))
	l.Sync(ctx)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLoader_PresentContentSkipsLoad(t *testing.T) {
	state := &content{present: true}
	l := loader.New(state.get, func(context.Context) error {
		t.Error("load must not run when content is present")
		return nil
	})
	l.Mount(context.Background())
	assert.False(t, l.Loading())
	assert.Equal(t, 0, l.Fired())
}

func TestLoader_ErrorsAreReportedNotRetried(t *testing.T) {
	ctx := context.Background()
	state := &content{}
	errs := make(chan error, 1)
	collector, err := metrics.New(nil)
	require.NoError(t, err)

	l := loader.New(state.get, func(context.Context) error {
		return errors.New("boom")
	}, loader.WithName("matches"), loader.WithErrorHandler(func(err error) { errs <- err }), loader.WithMetrics(collector))

	l.Mount(ctx)
	require.NoError(t, l.Wait(ctx))

	select {
	case got := <-errs:
		assert.ErrorContains(t, got, "boom")
	case <-time.After(time.Second):
		t.Fatal("error handler not called")
	}

	// Still absent, but no new transition: no retry.
	l.Sync(ctx)
	assert.Equal(t, 1, l.Fired())
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.Loads().WithLabelValues("matches", "error")))
}

func TestLoader_UnmountDropsResult(t *testing.T) {
	ctx := context.Background()
	state := &content{}
	release := make(chan struct{})
	var loaded atomic.Bool

	l := loader.New(state.get, func(context.Context) error {
		<-release
		return nil
	}, loader.WithOnLoaded(func() { loaded.Store(true) }))

	l.Mount(ctx)
	l.Unmount()
	close(release)
	require.NoError(t, l.Wait(ctx))
	assert.False(t, loaded.Load())

	// Sync on an unmounted loader is a no-op.
	l.Sync(ctx)
	assert.Equal(t, 1, l.Fired())
}

func TestRender_AlwaysRendersChildren(t *testing.T) {
	state := &content{}
	release := make(chan struct{})
	l := loader.New(state.get, func(context.Context) error {
		<-release
		return nil
	})
	l.Mount(context.Background())

	got := loader.Render(l, func(loading bool) string {
		if loading {
			return "table (loading)"
		}
		return "table"
	})
	assert.Equal(t, "table (loading)", got)
	close(release)
	require.NoError(t, l.Wait(context.Background()))
	assert.Equal(t, "table", loader.Render(l, func(loading bool) string {
		if loading {
			return "table (loading)"
		}
		return "table"
	}))
}

func TestLoader_LoadOutlivesCallerContext(t *testing.T) {
	state := &content{}
	release := make(chan struct{})
	collector, err := metrics.New(nil)
	require.NoError(t, err)

	l := loader.New(state.get, func(ctx context.Context) error {
		<-release
		if err := ctx.Err(); err != nil {
			return err
		}
		state.set(true)
		return nil
	}, loader.WithName("matches"), loader.WithMetrics(collector),
		loader.WithErrorHandler(func(err error) { t.Errorf("unexpected load error: %v", err) }))

	ctx, cancel := context.WithCancel(context.Background())
	l.Mount(ctx)
	cancel()
	close(release)

	require.NoError(t, l.Wait(context.Background()))
	assert.True(t, state.get())
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.Loads().WithLabelValues("matches", "success")))
	assert.Equal(t, float64(0), testutil.ToFloat64(collector.Loads().WithLabelValues("matches", "error")))
}
