// Package safe_close coordinates shutting down a group of long running workers
// Package safe_close 协调一组常驻任务的关闭
package safe_close

import (
	"sync"
)

// SafeClose broadcasts one close signal to every attached worker and waits for all of them
// SafeClose 向所有挂载的任务广播关闭信号并等待其退出
type SafeClose struct {
	closeSignal chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup

	mu  sync.Mutex
	err error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{closeSignal: make(chan struct{})}
}

// Attach starts fn in a goroutine. fn must call done when it has finished cleaning up.
// Attach 启动 fn, fn 完成清理后必须调用 done
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	go fn(func() { once.Do(s.wg.Done) }, s.closeSignal)
}

// SendCloseSignal closes the signal channel. Only the first call counts, its err is kept.
// SendCloseSignal 发送关闭信号, 只有第一次调用生效并记录 err
func (s *SafeClose) SendCloseSignal(err error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.closeSignal)
	})
}

// Closed 返回关闭信号通道
func (s *SafeClose) Closed() <-chan struct{} {
	return s.closeSignal
}

// WaitClosed waits for every attached worker and returns the error given to SendCloseSignal
// WaitClosed 等待所有任务退出, 返回关闭原因
func (s *SafeClose) WaitClosed() error {
	<-s.closeSignal
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
