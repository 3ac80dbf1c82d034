package writequeue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, cfg *Config) *Manager {
	t.Helper()
	m := New(cfg, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
	})
	return m
}

func TestManager_ExecuteReturnsResult(t *testing.T) {
	m := newTestManager(t, nil)
	boom := errors.New("boom")

	require.NoError(t, m.Execute(context.Background(), 1, func() error { return nil }))
	assert.ErrorIs(t, m.Execute(context.Background(), 1, func() error { return boom }), boom)
	assert.Equal(t, int64(2), m.GetMetrics().Executed)
}

func TestManager_SerializesSameKey(t *testing.T) {
	m := newTestManager(t, nil)

	var running, maxRunning atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Execute(context.Background(), 7, func() error {
				n := running.Add(1)
				for {
					cur := maxRunning.Load()
					if n <= cur || maxRunning.CompareAndSwap(cur, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				running.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestManager_PanicBecomesError(t *testing.T) {
	m := newTestManager(t, nil)
	err := m.Execute(context.Background(), 1, func() error { panic("bad") })
	require.Error(t, err)

	// queue keeps working
	require.NoError(t, m.Execute(context.Background(), 1, func() error { return nil }))
}

func TestManager_AbandonedOpNeverRuns(t *testing.T) {
	m := newTestManager(t, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), 1, func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	var ran atomic.Bool
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := m.Execute(ctx, 1, func() error {
		ran.Store(true)
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	// drain behind the abandoned op
	require.NoError(t, m.Execute(context.Background(), 1, func() error { return nil }))
	assert.False(t, ran.Load())
}

func TestManager_QueueFull(t *testing.T) {
	m := newTestManager(t, &Config{QueueCapacity: 1})

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), 1, func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// fills the single slot
	go func() {
		_ = m.Execute(context.Background(), 1, func() error { return nil })
	}()
	require.Eventually(t, func() bool { return m.QueuedCount(1) == 1 }, time.Second, time.Millisecond)

	err := m.Execute(context.Background(), 1, func() error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueFull)
	assert.Equal(t, int64(1), m.GetMetrics().Rejected)
	close(release)
}

func TestManager_ClosedRejects(t *testing.T) {
	m := New(nil, nil)
	require.NoError(t, m.Shutdown(context.Background()))
	assert.True(t, m.IsClosed())
	assert.ErrorIs(t, m.Execute(context.Background(), 1, func() error { return nil }), ErrWriteQueueClosed)
}
