package xlease

import (
	"log/slog"
	"time"

	"github.com/omeyang/guardkit/pkg/observability/xmetrics"
)

// Option 定义租约的配置选项。
type Option func(*Lease)

// WithTTL 设置初次获取时的租约时长。
// 默认值：3 秒。非正值在 New 中收紧为 1ms（配置收紧而非拒绝）。
func WithTTL(d time.Duration) Option {
	return func(l *Lease) {
		l.ttl = d
	}
}

// WithRenewInterval 设置续期节奏。
// 默认值：1.5 秒。非正值在 New 中收紧为 1ms。
//
// 该间隔同时是续期的新租期：距上次续期不足该间隔的 Renew 调用
// 不接触 KV；真正续期时租约被延长 RenewInterval 而非 TTL，
// 稳态租期收敛到 RenewInterval（语义说明见 [Lease.Renew]）。
func WithRenewInterval(d time.Duration) Option {
	return func(l *Lease) {
		l.renew = d
	}
}

// WithHolderID 覆盖默认的持有者标识。
// 默认值：hostname:pid:uuid 片段。标识必须在竞争者之间全局唯一，
// 否则互斥保证失效。
func WithHolderID(id string) Option {
	return func(l *Lease) {
		if id != "" {
			l.holderID = id
		}
	}
}

// WithEnv 设置指标的 env 标签。
// 为空时指标不带该标签。
func WithEnv(env string) Option {
	return func(l *Lease) {
		if env != "" {
			l.env = env
		}
	}
}

// WithService 设置指标的 service 标签。
// 为空时指标不带该标签。
func WithService(service string) Option {
	return func(l *Lease) {
		if service != "" {
			l.service = service
		}
	}
}

// WithLogger 设置日志记录器。
// 默认使用 slog.Default()。
// 如需禁用日志，可传入 slog.New(slog.NewTextHandler(io.Discard, nil))。
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lease) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithSink 设置指标上报接口。
// 默认不上报（nil sink 由 xmetrics 包级函数安全降级）。
func WithSink(sink xmetrics.Sink) Option {
	return func(l *Lease) {
		if sink != nil {
			l.sink = sink
		}
	}
}
