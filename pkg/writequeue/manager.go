// Package writequeue serializes write operations per key
// Package writequeue 按键串行化写操作
// SQLite allows a single writer; funnelling writes through one queue avoids "database is locked"
// SQLite 只允许一个写者, 通过队列串行写入可以避免 "database is locked"
package writequeue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrWriteQueueFull 队列已满
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed 管理器已关闭
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout 等待执行超时, 操作未执行
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config write queue configuration
// Config 写队列配置
type Config struct {
	// QueueCapacity 每个键的队列容量，默认 100
	QueueCapacity int
	// WriteTimeout 等待操作开始执行的最长时间，默认 30 秒
	WriteTimeout time.Duration
	// IdleTimeout 空闲队列回收时间，默认 10 分钟
	IdleTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

const (
	opPending int32 = iota
	opRunning
	opAbandoned
)

type writeOp struct {
	ctx    context.Context
	fn     func() error
	state  atomic.Int32
	result chan error
}

type keyQueue struct {
	key      int64
	ch       chan *writeOp
	lastUsed atomic.Int64
	closed   atomic.Bool
	workerWg sync.WaitGroup
	stopCh   chan struct{}
}

// Manager owns one FIFO queue and one worker per key
// Manager 为每个键维护一个 FIFO 队列和一个 worker
type Manager struct {
	config Config
	logger *zap.Logger

	queues sync.Map // map[int64]*keyQueue

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool

	executed atomic.Int64
	rejected atomic.Int64

	cleanupWg   sync.WaitGroup
	cleanupDone chan struct{}
}

// New creates a manager. A nil cfg uses DefaultConfig, a nil logger discards logs.
// New 创建写队列管理器
func New(cfg *Config, logger *zap.Logger) *Manager {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.QueueCapacity > 0 {
			c.QueueCapacity = cfg.QueueCapacity
		}
		if cfg.WriteTimeout > 0 {
			c.WriteTimeout = cfg.WriteTimeout
		}
		if cfg.IdleTimeout > 0 {
			c.IdleTimeout = cfg.IdleTimeout
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		config:      c,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}

	m.cleanupWg.Add(1)
	go m.cleanupIdleQueues()

	m.logger.Info("write queue manager started",
		zap.Int("queueCapacity", c.QueueCapacity),
		zap.Duration("writeTimeout", c.WriteTimeout),
		zap.Duration("idleTimeout", c.IdleTimeout))

	return m
}

// Execute runs fn on the queue of key and returns its error.
// Operations on the same key run one at a time in FIFO order.
// If Execute gives up before fn starts (ctx done, timeout, shutdown) fn is never run.
// Once fn has started Execute waits for it, so the returned error always matches what happened.
// Execute 在 key 对应的队列上执行 fn, 同一键按 FIFO 串行执行
// 在 fn 开始前放弃 (ctx 结束、超时、关闭) 则 fn 不会执行; fn 开始后会等待其完成
func (m *Manager) Execute(ctx context.Context, key int64, fn func() error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrWriteQueueClosed
	}
	m.mu.RUnlock()

	queue := m.getOrCreateQueue(key)
	if queue == nil {
		return ErrWriteQueueClosed
	}

	op := &writeOp{ctx: ctx, fn: fn, result: make(chan error, 1)}

	select {
	case queue.ch <- op:
	default:
		m.rejected.Add(1)
		return ErrWriteQueueFull
	}

	timeout := m.config.WriteTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var giveUp error
	select {
	case err := <-op.result:
		return err
	case <-ctx.Done():
		giveUp = ctx.Err()
	case <-timer.C:
		giveUp = ErrWriteTimeout
	case <-m.ctx.Done():
		giveUp = ErrWriteQueueClosed
	}

	if op.state.CompareAndSwap(opPending, opAbandoned) {
		return giveUp
	}
	// already running
	return <-op.result
}

func (m *Manager) getOrCreateQueue(key int64) *keyQueue {
	if v, ok := m.queues.Load(key); ok {
		queue := v.(*keyQueue)
		if !queue.closed.Load() {
			queue.lastUsed.Store(time.Now().UnixNano())
			return queue
		}
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil
	}
	m.mu.RUnlock()

	queue := &keyQueue{
		key:    key,
		ch:     make(chan *writeOp, m.config.QueueCapacity),
		stopCh: make(chan struct{}),
	}
	queue.lastUsed.Store(time.Now().UnixNano())

	actual, loaded := m.queues.LoadOrStore(key, queue)
	if loaded {
		existing := actual.(*keyQueue)
		if !existing.closed.Load() {
			existing.lastUsed.Store(time.Now().UnixNano())
			return existing
		}
		m.queues.Store(key, queue)
	}

	queue.workerWg.Add(1)
	go m.worker(queue)

	m.logger.Debug("created write queue",
		zap.Int64("key", key),
		zap.Int("capacity", m.config.QueueCapacity))

	return queue
}

func (m *Manager) worker(queue *keyQueue) {
	defer queue.workerWg.Done()
	defer func() {
		queue.closed.Store(true)
		m.logger.Debug("write queue worker stopped", zap.Int64("key", queue.key))
	}()

	for {
		select {
		case <-m.ctx.Done():
			m.drainQueue(queue)
			return
		case <-queue.stopCh:
			m.drainQueue(queue)
			return
		case op := <-queue.ch:
			m.executeOp(queue, op)
		}
	}
}

func (m *Manager) executeOp(queue *keyQueue, op *writeOp) {
	queue.lastUsed.Store(time.Now().UnixNano())

	if op.ctx.Err() != nil {
		if op.state.CompareAndSwap(opPending, opAbandoned) {
			op.result <- op.ctx.Err()
		}
		return
	}
	if !op.state.CompareAndSwap(opPending, opRunning) {
		return
	}

	op.result <- m.run(op)
	m.executed.Add(1)
}

func (m *Manager) run(op *writeOp) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("write operation panic", zap.Any("panic", r), zap.Stack("stack"))
			err = errors.New("write operation panic")
		}
	}()
	return op.fn()
}

func (m *Manager) drainQueue(queue *keyQueue) {
	for {
		select {
		case op := <-queue.ch:
			m.executeOp(queue, op)
		default:
			return
		}
	}
}

func (m *Manager) cleanupIdleQueues() {
	defer m.cleanupWg.Done()

	ticker := time.NewTicker(m.config.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.cleanupDone:
			return
		case <-ticker.C:
			m.doCleanup()
		}
	}
}

func (m *Manager) doCleanup() {
	now := time.Now().UnixNano()
	idleThreshold := m.config.IdleTimeout.Nanoseconds()

	m.queues.Range(func(k, v interface{}) bool {
		queue := v.(*keyQueue)
		lastUsed := queue.lastUsed.Load()
		if now-lastUsed > idleThreshold && len(queue.ch) == 0 && queue.closed.CompareAndSwap(false, true) {
			m.logger.Debug("cleaning up idle write queue",
				zap.Int64("key", queue.key),
				zap.Duration("idleTime", time.Duration(now-lastUsed)))
			close(queue.stopCh)
			m.queues.Delete(k)
		}
		return true
	})
}

// Shutdown stops accepting writes and waits for queued ones to finish
// Shutdown 停止接收写操作并等待队列中的操作完成
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.logger.Info("write queue manager shutting down")
	close(m.cleanupDone)

	done := make(chan struct{})
	go func() {
		m.queues.Range(func(_, v interface{}) bool {
			queue := v.(*keyQueue)
			if queue.closed.CompareAndSwap(false, true) {
				close(queue.stopCh)
			}
			return true
		})
		m.queues.Range(func(_, v interface{}) bool {
			v.(*keyQueue).workerWg.Wait()
			return true
		})
		m.cleanupWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("write queue manager shutdown completed")
		m.cancel()
		return nil
	case <-ctx.Done():
		m.logger.Warn("write queue manager shutdown timeout, forcing cancellation")
		m.cancel()
		return ctx.Err()
	}
}

// QueueCount 返回活跃队列数量
func (m *Manager) QueueCount() int {
	count := 0
	m.queues.Range(func(_, v interface{}) bool {
		if !v.(*keyQueue).closed.Load() {
			count++
		}
		return true
	})
	return count
}

// QueuedCount 返回指定键等待中的操作数
func (m *Manager) QueuedCount(key int64) int {
	if v, ok := m.queues.Load(key); ok {
		return len(v.(*keyQueue).ch)
	}
	return 0
}

func (m *Manager) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// Metrics write queue manager metrics
// Metrics 写队列管理器指标
type Metrics struct {
	QueueCapacity int
	ActiveQueues  int
	Executed      int64
	Rejected      int64
	IsClosed      bool
}

func (m *Manager) GetMetrics() Metrics {
	return Metrics{
		QueueCapacity: m.config.QueueCapacity,
		ActiveQueues:  m.QueueCount(),
		Executed:      m.executed.Load(),
		Rejected:      m.rejected.Load(),
		IsClosed:      m.IsClosed(),
	}
}
