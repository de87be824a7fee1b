package xfailover

import "log/slog"

// Option 配置 Coordinator 的函数式选项
type Option func(*Coordinator)

// WithLogger 设置角色转换日志的输出器。
// 默认 slog.Default()；nil 被忽略。
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOnRoleChange 注册角色变化回调。
// 回调在 Tick 或 Role 观察到转换时同步执行，panic 会被吞掉。
func WithOnRoleChange(fn func(from, to Role)) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.onRoleChange = fn
		}
	}
}
