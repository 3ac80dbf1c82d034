package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_Submit(t *testing.T) {
	p := New(&Config{MaxWorkers: 2, QueueSize: 4}, nil)
	defer p.Shutdown(context.Background())

	boom := errors.New("boom")
	require.NoError(t, p.Submit(context.Background(), func(context.Context) error { return nil }))
	assert.ErrorIs(t, p.Submit(context.Background(), func(context.Context) error { return boom }), boom)
	assert.Equal(t, int64(1), p.GetMetrics().Failed)
}

func TestPool_PanicRecovered(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 1}, nil)
	defer p.Shutdown(context.Background())

	err := p.Submit(context.Background(), func(context.Context) error { panic("bad") })
	require.Error(t, err)
	require.NoError(t, p.Submit(context.Background(), func(context.Context) error { return nil }))
}

func TestPool_ShutdownRunsQueuedAsync(t *testing.T) {
	p := New(&Config{MaxWorkers: 2, QueueSize: 10}, nil)

	var n atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error {
			n.Add(1)
			return nil
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
	assert.Equal(t, int32(10), n.Load())

	assert.ErrorIs(t, p.SubmitAsync(context.Background(), func(context.Context) error { return nil }), ErrWorkerPoolClosed)
}

func TestPool_CancelledBeforeStart(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 1}, nil)
	defer p.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran atomic.Bool
	err := p.Submit(ctx, func(context.Context) error {
		ran.Store(true)
		return nil
	})
	assert.Error(t, err)
	assert.False(t, ran.Load())
}
