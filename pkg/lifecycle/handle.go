package lifecycle

import (
	"context"
	"time"
)

// Handle 是分发给单个后台服务的生命周期控制器。
// 服务Goroutine通过它监听停机信号，并在退出前调用Close向Manager报到。
type Handle struct {
	ctx context.Context
	// Close 通知Manager本服务已完成退出。
	// 应该在服务Goroutine的入口处defer调用。
	Close func()
}

// Ctx 返回句柄内部的context，用于传递给需要取消语义的下游调用。
func (h *Handle) Ctx() context.Context {
	return h.ctx
}

// Done 返回停机信号channel，供select监听。
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// Err 在Done()关闭后返回取消原因。
func (h *Handle) Err() error {
	return h.ctx.Err()
}

// Sleep 休眠指定时长；若期间收到停机信号则提前返回ctx错误。
// 所有后台轮询循环都应该用它代替time.Sleep。
func (h *Handle) Sleep(duration time.Duration) error {
	timer := time.NewTimer(duration)

	select {
	case <-h.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return h.Err()
	case <-timer.C:
		return nil
	}
}
