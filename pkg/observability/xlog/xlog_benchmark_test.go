package xlog_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/omeyang/guardkit/pkg/observability/xlog"
)

// =============================================================================
// 性能基准
// =============================================================================

func benchLogger(b *testing.B, level xlog.Level) xlog.LoggerWithLevel {
	b.Helper()
	// io.Discard 避免 I/O 干扰测量
	logger, cleanup, err := xlog.New().
		SetOutput(io.Discard).
		SetLevel(level).
		Build()
	if err != nil {
		b.Fatalf("build logger: %v", err)
	}
	b.Cleanup(func() { _ = cleanup() })
	return logger
}

func BenchmarkLogger_Info(b *testing.B) {
	logger := benchLogger(b, xlog.LevelInfo)
	ctx := context.Background()

	for b.Loop() {
		logger.Info(ctx, "renew ok")
	}
}

// 级别被过滤时的快速路径
func BenchmarkLogger_Info_Disabled(b *testing.B) {
	logger := benchLogger(b, xlog.LevelError)
	ctx := context.Background()

	for b.Loop() {
		logger.Info(ctx, "filtered out")
	}
}

func BenchmarkLogger_InfoWithAttrs(b *testing.B) {
	logger := benchLogger(b, xlog.LevelInfo)
	ctx := context.Background()

	for b.Loop() {
		logger.Info(ctx, "state changed",
			slog.String("state", "TRIPPED"),
			slog.Float64("err_rate", 0.07),
		)
	}
}

func BenchmarkLogger_With(b *testing.B) {
	logger := benchLogger(b, xlog.LevelInfo)

	for b.Loop() {
		_ = logger.With(slog.String("lease_key", "jobs/reporter"))
	}
}

func BenchmarkParseLevel(b *testing.B) {
	for b.Loop() {
		if _, err := xlog.ParseLevel("warning"); err != nil {
			b.Fatal(err)
		}
	}
}
