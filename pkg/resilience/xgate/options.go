package xgate

import (
	"io"
	"time"
)

// Option 定制闸门的可选行为。
type Option func(*Gate)

// WithNowFunc 注入时钟，便于测试推进虚拟时间。
// fn 为 nil 时忽略。
func WithNowFunc(fn func() time.Time) Option {
	return func(g *Gate) {
		if fn != nil {
			g.nowFn = fn
		}
	}
}

// WithThreadSafe 启用内部互斥锁，使 Record 与各读取方法可被多协程
// 并发调用。默认关闭：单协程或调用方自管串行化的场景无需加锁开销。
func WithThreadSafe() Option {
	return func(g *Gate) {
		g.threadSafe = true
	}
}

// WithMaxBins 显式指定窗口桶数上限，覆盖按
// WindowSec*EventsPerSecHint 推导的默认值。n 非正时忽略。
func WithMaxBins(n int) Option {
	return func(g *Gate) {
		if n > 0 {
			g.maxBins = n
		}
	}
}

// WithEventsPerSecHint 提示每秒事件量级，用于推导窗口桶数上限
// （上限不超过 10000 桶）。n 非正时忽略。
func WithEventsPerSecHint(n int) Option {
	return func(g *Gate) {
		if n > 0 {
			g.eventsPerSecHint = n
		}
	}
}

// WithLogBudget 设置迁移日志每秒最多输出的行数，预算在秒翻转时重置。
// n 为负时忽略；0 表示完全关闭日志输出。
func WithLogBudget(n int) Option {
	return func(g *Gate) {
		if n >= 0 {
			g.maxLogPerSec = n
		}
	}
}

// WithLogWriter 指定迁移日志的输出目标，默认标准输出。
// w 为 nil 时忽略。
func WithLogWriter(w io.Writer) Option {
	return func(g *Gate) {
		if w != nil {
			g.logW = w
		}
	}
}

// WithStateGauge 注册状态 gauge 回调，入参为状态码（0/1/2）。
// 回调内的 panic 会被吞掉。
func WithStateGauge(fn func(code int)) Option {
	return func(g *Gate) {
		if fn != nil {
			g.stateGauge = fn
		}
	}
}

// WithErrRateGauge 注册窗口错误率 gauge 回调。
// 回调内的 panic 会被吞掉。
func WithErrRateGauge(fn func(rate float64)) Option {
	return func(g *Gate) {
		if fn != nil {
			g.errRateGauge = fn
		}
	}
}

// WithTransitionCounter 注册迁移计数回调，入参为迁移前后的状态名。
// 回调内的 panic 会被吞掉。
func WithTransitionCounter(fn func(from, to string)) Option {
	return func(g *Gate) {
		if fn != nil {
			g.transitionCount = fn
		}
	}
}

// WithMetricsFunc 注册统一事件回调。事件名与字段约定:
//
//	circuit_state         {"value": int}        状态码 gauge
//	err_rate_window       {"value": float64}    窗口错误率 gauge
//	transitions_total     {"from","to": string} 迁移计数
//	flood_coalesced_total {"add": 1}            同秒合并计数
//	per_sec_event_rate    {"value": int}        当前秒事件量 gauge
//
// 回调内的 panic 会被吞掉。可与逐项回调同时配置。
func WithMetricsFunc(fn func(event string, fields map[string]any)) Option {
	return func(g *Gate) {
		if fn != nil {
			g.metricsFn = fn
		}
	}
}
