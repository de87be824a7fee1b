// xlog.go 核心接口定义：Logger、Leveler、LoggerWithLevel
package xlog

import (
	"context"
	"log/slog"
)

// Logger 结构化日志接口
//
// 方法签名与 slog.Handler 的契约对齐：显式 context.Context 加强类型的
// slog.Attr 列表。不提供 ...any 形式的 key-value 混合参数——交替参数在
// 重构时容易错位，强类型 Attr 把这类错误提前到编译期。
type Logger interface {
	// Debug、Info、Warn、Error 按对应级别记录一条结构化日志
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带固定属性的派生 Logger
	//
	// 设计决策: 返回 Logger 而非 LoggerWithLevel，保持最小接口。
	// 底层实现同时实现 LoggerWithLevel，需要级别控制时可类型断言取回。
	// 派生 logger 与父级共享 LevelVar，动态调级对整棵派生树同步生效。
	With(attrs ...slog.Attr) Logger

	// WithGroup 返回带分组前缀的派生 Logger
	// 后续 With 添加的属性归于该分组之下
	WithGroup(name string) Logger
}

// Leveler 运行时级别控制接口
//
// 与 Logger 分离：多数调用点只需要记录日志，调级能力集中在持有
// 构建结果的那一处（如 CLI 的启动装配代码）。
type Leveler interface {
	// SetLevel 动态设置日志级别，运行时生效
	SetLevel(level Level)

	// GetLevel 获取当前日志级别
	GetLevel() Level

	// Enabled 检查指定级别是否会被记录
	// 可在构造昂贵的日志属性前先行判断
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel 组合接口：Logger + Leveler
//
// [Builder.Build] 返回此接口——构建出的根 Logger 几乎总是需要
// 动态级别控制，显式组合省去调用方的类型断言。
type LoggerWithLevel interface {
	Logger
	Leveler
}
