package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/omeyang/guardkit/pkg/observability/xrotate"
)

// Builder 日志配置构建器
//
// first-error-wins：只记录第一个配置错误，终结方法（Build/BuildSlog）
// 返回它并拒绝构建。Builder 为一次性使用，终结后需通过 [New] 重新创建。
type Builder struct {
	output    io.Writer
	level     Level
	levelVar  *slog.LevelVar
	format    string
	addSource bool
	rotator   xrotate.Rotator
	onError   func(error) // 内部错误回调（Handler.Handle 失败时）
	err       error
}

// setErr 记录首个配置错误，后续错误不覆盖
func (b *Builder) setErr(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// New 创建配置构建器
//
// 默认值：输出 stderr、级别 Info、格式 text。
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)

	return &Builder{
		output:   os.Stderr,
		level:    LevelInfo,
		levelVar: levelVar,
		format:   "text",
	}
}

// SetOutput 指定日志写入目标
func (b *Builder) SetOutput(w io.Writer) *Builder {
	b.output = w
	return b
}

// SetLevel 设置输出级别，构建后仍可通过 Leveler 动态调整
func (b *Builder) SetLevel(level Level) *Builder {
	b.levelVar.Set(slog.Level(level))
	b.level = level
	return b
}

// SetLevelString 按字符串形式设置日志级别
//
// 接受 debug/info/warn/warning/error（大小写不敏感），
// 便于直接接入配置文件中的级别字段。
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		return b.setErr(err)
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式，接受 text 或 json
func (b *Builder) SetFormat(format string) *Builder {
	switch normalized := strings.ToLower(strings.TrimSpace(format)); normalized {
	case "":
		// 没填落回默认格式，不当成配置错误
		b.format = "text"
	case "text", "json":
		b.format = normalized
	default:
		return b.setErr(fmt.Errorf("xlog: unknown format %q", format))
	}
	return b
}

// SetAddSource 是否在日志中记录源码位置
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetRotation 将输出切换到带轮转的日志文件
//
// 内部通过 xrotate 创建轮转器并接管 output。
// cleanup 函数负责关闭轮转文件，调用方必须在进程退出前执行。
func (b *Builder) SetRotation(filename string, opts ...xrotate.LumberjackOption) *Builder {
	rotator, err := xrotate.NewLumberjack(filename, opts...)
	if err != nil {
		return b.setErr(err)
	}
	b.output = rotator
	b.rotator = rotator
	return b
}

// SetOnError 注册内部错误回调
//
// Handler.Handle 失败时（磁盘满、权限问题、writer 异常）调用。
// 默认策略保持"不向外返回错误、不 panic"，回调提供把内部错误
// 接入指标或告警的钩子。
//
// 注意：
//   - 回调在写日志的热路径同步执行，应保持轻量
//   - 内置递归保护，回调内部再触发日志错误不会无限递归
//   - 回调 panic 被隔离，只计入内部错误计数
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// Build 按当前配置构建 Logger。
//
// 返回：
//   - LoggerWithLevel: 日志实例，支持动态级别控制
//   - func() error: 清理函数，负责关闭轮转文件等资源
//   - error: 配置错误（first-error-wins 收集的第一个错误）
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	// 共享指针在此初始化，保证 With/WithGroup 派生的 logger
	// 与根 logger 共用错误计数与递归保护
	logger := &xlogger{
		handler:        b.newHandler(),
		levelVar:       b.levelVar,
		onError:        b.onError,
		errorCount:     new(atomic.Uint64),
		addSource:      b.addSource,
		inErrorHandler: new(atomic.Bool),
	}

	return logger, b.createCleanup(), nil
}

// BuildSlog 构建标准库 *slog.Logger
//
// 面向只接受 *slog.Logger 的调用方（向第三方组件注入日志器时常见），
// 复用 Builder 的全部配置：级别、格式、AddSource、轮转输出。
// 清理函数与 [Builder.Build] 一致，负责关闭轮转文件。
//
// 注意：slog.Logger 会吞掉 Handler.Handle 的错误，
// SetOnError 回调只在 Build 构建的 Logger 上生效。
func (b *Builder) BuildSlog() (*slog.Logger, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}
	return slog.New(b.newHandler()), b.createCleanup(), nil
}

// newHandler 按当前配置创建 slog.Handler，Build 与 BuildSlog 共用
func (b *Builder) newHandler() slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     b.levelVar,
		AddSource: b.addSource,
	}
	if b.format == "json" {
		return slog.NewJSONHandler(b.output, opts)
	}
	return slog.NewTextHandler(b.output, opts)
}

// createCleanup 创建幂等的清理函数，重复调用只有首次真正关闭
func (b *Builder) createCleanup() func() error {
	rotator := b.rotator // 闭包只捕获轮转器，不持有 Builder
	if rotator == nil {
		return func() error { return nil }
	}

	var once sync.Once
	return func() error {
		var err error
		once.Do(func() { err = rotator.Close() })
		return err
	}
}
