package xlog

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
)

// 编译时确认实现同时覆盖日志与级别控制两个接口
var _ LoggerWithLevel = (*xlogger)(nil)

// xlogger Logger 接口的实现
//
// errorCount 与 inErrorHandler 为指针字段：With/WithGroup 派生出的
// logger 共享同一份计数器与递归保护标记，整棵派生树共用一套错误统计。
type xlogger struct {
	handler        slog.Handler
	levelVar       *slog.LevelVar
	onError        func(error)    // 内部错误回调（Handler.Handle 失败时）
	errorCount     *atomic.Uint64 // 内部错误计数，派生 logger 共享
	addSource      bool           // 是否捕获源码位置
	inErrorHandler *atomic.Bool   // onError 递归保护，派生 logger 共享
}

// log 统一日志入口，Debug/Info/Warn/Error 都经由此方法
//
// noinline 固定栈帧层数，保证 AddSource 时源码位置的 skip 计算稳定。
//
//go:noinline
func (l *xlogger) log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	if !l.handler.Enabled(ctx, level) {
		return
	}

	// AddSource 关闭时跳过 runtime.Callers，这是热路径上最贵的一步
	var pc uintptr
	if l.addSource {
		var pcs [1]uintptr
		// skip=3: Callers(0) → log(1) → Debug/Info/Warn/Error(2) → 业务代码(3)
		runtime.Callers(3, pcs[:])
		pc = pcs[0]
	}

	rec := slog.NewRecord(time.Now(), level, msg, pc)
	rec.AddAttrs(attrs...)
	if err := l.handler.Handle(ctx, rec); err != nil {
		l.handleError(err)
	}
}

// handleError 处理 Handler.Handle 的失败
//
// 所有失败都计入 errorCount；onError 回调附带两层保护：
// inErrorHandler 的 CAS 防止回调内部再触发日志错误导致无限递归，
// safeOnError 隔离回调 panic。
//
// 设计决策: CAS 保护意味着并发错误期间部分错误会跳过回调，这是有意的。
// errorCount 仍统计全部错误，onError 定位为 best-effort 通知，
// 异步队列方案与日志库的轻量定位不符。
func (l *xlogger) handleError(err error) {
	if l.errorCount != nil {
		l.errorCount.Add(1)
	}
	if l.onError == nil || l.inErrorHandler == nil {
		return
	}
	if !l.inErrorHandler.CompareAndSwap(false, true) {
		return
	}
	defer l.inErrorHandler.Store(false)
	l.safeOnError(err)
}

// safeOnError 执行 onError 回调并隔离 panic
//
// 日志子系统遵循"失败不扩散"：回调 panic 被捕获并计入错误计数，
// 不中断业务调用链。
func (l *xlogger) safeOnError(err error) {
	defer func() {
		if recover() != nil && l.errorCount != nil {
			l.errorCount.Add(1)
		}
	}()
	l.onError(err)
}

// 四个级别方法只做分发，日志逻辑集中在 log。

func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs)
}

func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs)
}

func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs)
}

func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs)
}

// With 返回带固定属性的派生 Logger
//
// 浅拷贝后仅替换 handler：levelVar、errorCount、inErrorHandler 都是
// 指针字段，派生树天然共享，后续加字段也不会漏拷。
func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	derived := *l
	derived.handler = l.handler.WithAttrs(attrs)
	return &derived
}

// WithGroup 返回把后续属性收进 name 分组的派生 Logger
func (l *xlogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	derived := *l
	derived.handler = l.handler.WithGroup(name)
	return &derived
}

// SetLevel 动态设置日志级别
func (l *xlogger) SetLevel(level Level) {
	l.levelVar.Set(slog.Level(level))
}

// GetLevel 获取当前日志级别
func (l *xlogger) GetLevel() Level {
	return Level(l.levelVar.Level())
}

// Enabled 检查指定级别是否启用
func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	return l.handler.Enabled(ctx, slog.Level(level))
}
