package xkv

import (
	"context"
	"sync"
	"time"
)

// Store 定义租约锁消费的键值存储能力。
//
// 所有实现必须满足：
//   - SetNX 仅在键不存在（或已过期）时写入
//   - PExpire 仅在键存在且未过期时重设剩余存活时间
//   - Get 对不存在或已过期的键返回 ErrKeyNotFound
//   - Del 删除不存在的键不报错
type Store interface {
	// SetNX 在键不存在时写入值并设置存活时间，返回是否写入。
	// ttl <= 0 表示不设置过期。
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// PExpire 重设已存在键的存活时间，返回键是否存在。
	PExpire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Get 读取键值，键不存在返回 ErrKeyNotFound。
	Get(ctx context.Context, key string) (string, error)

	// Del 删除键。
	Del(ctx context.Context, key string) error

	// NowMs 返回存储视角的当前毫秒时间戳。
	NowMs(ctx context.Context) (int64, error)
}

// Clock 毫秒时钟抽象。
type Clock interface {
	NowMs() int64
}

// SystemClock 使用系统墙钟。
type SystemClock struct{}

// NowMs 返回当前系统时间的毫秒时间戳。
func (SystemClock) NowMs() int64 {
	return time.Now().UnixMilli()
}

// ManualClock 手动控制的时钟，用于确定性测试与混沌演练。
// 允许设置任意时间戳，包括负值与回拨。
type ManualClock struct {
	mu sync.Mutex
	ms int64
}

// NewManualClock 创建从 startMs 开始的手动时钟。
func NewManualClock(startMs int64) *ManualClock {
	return &ManualClock{ms: startMs}
}

// NowMs 返回当前设定的毫秒时间戳。
func (c *ManualClock) NowMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ms
}

// Set 将时钟设置为指定毫秒时间戳。
func (c *ManualClock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms = ms
}

// Advance 将时钟前进指定时长，负值回拨。
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms += d.Milliseconds()
}
