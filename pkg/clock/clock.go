package clock

import (
	"sync"
	"time"
)

// Clock 是整个服务统一使用的时间源。
// 所有涉及截止时间判断的业务逻辑都应该通过它读取当前时间，
// 以便在测试中注入可控的时间。
type Clock interface {
	Now() time.Time
}

// systemClock 直接代理time.Now。
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// System 返回基于系统时间的Clock实现。
func System() Clock {
	return systemClock{}
}

// Manual 是测试专用的手动时钟，时间只在显式调用时前进。
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual 创建一个从指定时刻开始的手动时钟。
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now 返回手动时钟的当前时刻。
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance 将手动时钟向前拨动指定时长。
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set 将手动时钟直接设置到指定时刻。
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}
