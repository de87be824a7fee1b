package xkv

import (
	"context"
	"sync"
	"time"
)

// Memory 进程内 Store 实现。
// 过期判定完全由注入的 Clock 驱动，没有后台清理协程：过期键在
// 下一次访问时惰性删除。
type Memory struct {
	mu    sync.Mutex
	clock Clock
	data  map[string]memoryEntry
}

type memoryEntry struct {
	value    string
	expiryMs int64
	eternal  bool
}

// expired 判定条目是否过期。边界约定：恰好到期即过期。
func (e memoryEntry) expired(nowMs int64) bool {
	return !e.eternal && nowMs >= e.expiryMs
}

var _ Store = (*Memory)(nil)

// NewMemory 创建内存存储。clock 为 nil 时使用系统时钟。
func NewMemory(clock Clock) *Memory {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Memory{
		clock: clock,
		data:  make(map[string]memoryEntry),
	}
}

// SetNX 在键不存在或已过期时写入。
// 恰好到期瞬间的写入成功：到期即视为不存在。
func (m *Memory) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.NowMs()
	if e, ok := m.data[key]; ok && !e.expired(now) {
		return false, nil
	}

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiryMs = now + ttl.Milliseconds()
	} else {
		entry.eternal = true
	}
	m.data[key] = entry
	return true, nil
}

// PExpire 重设未过期键的存活时间。
// ttl <= 0 时删除键，与 Redis PEXPIRE 的行为一致。
func (m *Memory) PExpire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.NowMs()
	e, ok := m.data[key]
	if !ok || e.expired(now) {
		delete(m.data, key)
		return false, nil
	}

	if ttl <= 0 {
		delete(m.data, key)
		return true, nil
	}
	e.expiryMs = now + ttl.Milliseconds()
	e.eternal = false
	m.data[key] = e
	return true, nil
}

// Get 读取未过期键的值。
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	if e.expired(m.clock.NowMs()) {
		delete(m.data, key)
		return "", ErrKeyNotFound
	}
	return e.value, nil
}

// Del 删除键，键不存在时不报错。
func (m *Memory) Del(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// NowMs 返回注入时钟的当前毫秒时间戳。
func (m *Memory) NowMs(_ context.Context) (int64, error) {
	return m.clock.NowMs(), nil
}

// Len 返回当前存储的键数量，包含尚未惰性清理的过期键。
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
