package xrun

import (
	"log/slog"
	"os"
	"slices"
)

// Option 配置 Group 的行为。
type Option func(*groupOptions)

type groupOptions struct {
	name            string
	logger          *slog.Logger
	signals         []os.Signal // 空切片等价于 DefaultSignals()
	noSignalHandler bool
}

// newOptions 应用全部选项并返回配置。
// nil Option 直接跳过，与 WithLogger(nil)、WithName("") 保持一致的
// 防御语义：无效输入回落默认值，而不是改变 API 签名去返回错误。
func newOptions(opts []Option) *groupOptions {
	o := &groupOptions{
		name:   "xrun",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithLogger 设置生命周期事件（服务启停、收到信号）的日志记录器。
// 传入 nil 时保持默认的 slog.Default()。
func WithLogger(logger *slog.Logger) Option {
	return func(o *groupOptions) {
		if logger == nil {
			return
		}
		o.logger = logger
	}
}

// WithName 设置 Group 名称，出现在所有生命周期日志的 group 字段中。
// 空字符串保持默认名 "xrun"。
func WithName(name string) Option {
	return func(o *groupOptions) {
		if name == "" {
			return
		}
		o.name = name
	}
}

// WithSignals 自定义 Run/RunWithOptions 监听的信号列表，
// 覆盖默认的 DefaultSignals()。空列表等价于默认列表。
//
//	xrun.RunWithOptions(ctx, []xrun.Option{
//	    xrun.WithSignals([]os.Signal{syscall.SIGINT, syscall.SIGTERM}),
//	}, renewLoop)
func WithSignals(signals []os.Signal) Option {
	// 创建时拷贝，调用方之后修改切片不影响已注册的配置
	copied := slices.Clone(signals)
	return func(o *groupOptions) {
		o.signals = copied
	}
}

// WithoutSignalHandler 禁用 Run/RunWithOptions 的自动信号监听，
// 信号处理完全交给调用方。
func WithoutSignalHandler() Option {
	return func(o *groupOptions) {
		o.noSignalHandler = true
	}
}
