package client

import (
	"sync"
	"time"
)

// Handle 可取消的定时任务句柄。所有定时器都经由它创建，
// 组件卸载时可以无条件逐个Cancel，不依赖调用方自觉。
type Handle struct {
	mu       sync.Mutex
	done     chan struct{}
	canceled bool
	timer    *time.Timer
	ticker   *time.Ticker
}

// Cancel 取消任务。可以重复调用。
func (h *Handle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.canceled {
		return
	}
	h.canceled = true
	if h.timer != nil {
		h.timer.Stop()
	}
	if h.ticker != nil {
		h.ticker.Stop()
	}
	close(h.done)
}

// Canceled 任务是否已被取消
func (h *Handle) Canceled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.canceled
}

// After 延迟d后执行fn一次。Cancel可阻止尚未触发的执行。
func After(d time.Duration, fn func()) *Handle {
	h := &Handle{done: make(chan struct{})}
	h.timer = time.AfterFunc(d, func() {
		if h.Canceled() {
			return
		}
		fn()
	})
	return h
}

// Every 每隔d执行一次fn，直到Cancel。fn串行执行，
// 单次执行超过间隔时多余的tick被丢弃，不会并发触发。
func Every(d time.Duration, fn func()) *Handle {
	h := &Handle{done: make(chan struct{})}
	h.ticker = time.NewTicker(d)
	go func() {
		for {
			select {
			case <-h.done:
				return
			case <-h.ticker.C:
				if h.Canceled() {
					return
				}
				fn()
			}
		}
	}()
	return h
}
