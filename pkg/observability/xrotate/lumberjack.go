package xrotate

import (
	"fmt"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 轮转策略默认值。与 xconf 中 LogConfig 的缺省保持一致，
// 调整任意一侧都需要同步另一侧。
const (
	// DefaultMaxSizeMB 单个日志文件的大小上限（MB），写满后触发轮转
	DefaultMaxSizeMB = 500

	// DefaultMaxBackups 保留的备份文件数量
	DefaultMaxBackups = 7

	// DefaultMaxAgeDays 备份文件的保留天数
	DefaultMaxAgeDays = 30

	// DefaultCompress 轮转出的备份默认用 gzip 压缩
	DefaultCompress = true
)

// 配置硬上限：单文件 10 GB、1024 份备份、保留约 10 年。
// 超出这些值基本可以断定是单位写错（MB 当成 KB 之类）。
const (
	maxSizeMB  = 10240
	maxBackups = 1024
	maxAgeDays = 3650
)

// rotateConfig 按大小轮转的策略参数
type rotateConfig struct {
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	compress   bool
}

func defaultRotateConfig() rotateConfig {
	return rotateConfig{
		maxSizeMB:  DefaultMaxSizeMB,
		maxBackups: DefaultMaxBackups,
		maxAgeDays: DefaultMaxAgeDays,
		compress:   DefaultCompress,
	}
}

// validate 拒绝越界取值。MaxBackups 与 MaxAge 至少要启用一个，
// 否则备份无限堆积，迟早写满磁盘。
func (c rotateConfig) validate() error {
	if c.maxSizeMB < 1 || c.maxSizeMB > maxSizeMB {
		return fmt.Errorf("%w: %d (range 1~%d)", ErrInvalidMaxSize, c.maxSizeMB, maxSizeMB)
	}
	if c.maxBackups < 0 || c.maxBackups > maxBackups {
		return fmt.Errorf("%w: %d (range 0~%d)", ErrInvalidMaxBackups, c.maxBackups, maxBackups)
	}
	if c.maxAgeDays < 0 || c.maxAgeDays > maxAgeDays {
		return fmt.Errorf("%w: %d (range 0~%d)", ErrInvalidMaxAge, c.maxAgeDays, maxAgeDays)
	}
	if c.maxBackups == 0 && c.maxAgeDays == 0 {
		return fmt.Errorf("%w: enable MaxBackups or MaxAge to bound disk usage", ErrNoCleanupPolicy)
	}
	return nil
}

// LumberjackOption 调整 NewLumberjack 的轮转策略
type LumberjackOption func(*rotateConfig)

// WithMaxSize 设置单个日志文件的大小上限（MB）
func WithMaxSize(mb int) LumberjackOption {
	return func(c *rotateConfig) { c.maxSizeMB = mb }
}

// WithMaxBackups 设置保留的备份文件数量，0 表示不按数量清理
func WithMaxBackups(n int) LumberjackOption {
	return func(c *rotateConfig) { c.maxBackups = n }
}

// WithMaxAge 设置备份文件的保留天数，0 表示不按天数清理
func WithMaxAge(days int) LumberjackOption {
	return func(c *rotateConfig) { c.maxAgeDays = days }
}

// WithCompress 设置是否 gzip 压缩轮转出的备份
func WithCompress(compress bool) LumberjackOption {
	return func(c *rotateConfig) { c.compress = compress }
}

// lumberjackRotator 用 lumberjack v2 实现 [Rotator]。
// 按大小切换、备份清理和压缩都由 lumberjack 完成，这一层补上
// 路径净化、参数校验和关闭后的 [ErrClosed] 契约。
type lumberjackRotator struct {
	logger *lumberjack.Logger
	closed atomic.Bool
}

// NewLumberjack 创建按大小轮转的日志写入器。
//
// filename 会先做净化（拒绝 ".." 穿越和目录路径），缺失的父目录以
// 0750 权限自动创建。日志文件本身由 lumberjack 延迟到首次写入时创建。
// 备份文件名中的时间戳固定使用 UTC，不受宿主机时区影响。
func NewLumberjack(filename string, opts ...LumberjackOption) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := defaultRotateConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	path, err := sanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	return &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.maxSizeMB,
			MaxBackups: cfg.maxBackups,
			MaxAge:     cfg.maxAgeDays,
			Compress:   cfg.compress,
		},
	}, nil
}

// Write 实现 io.Writer，写满大小上限时由 lumberjack 自动轮转。
func (r *lumberjackRotator) Write(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	n, err := r.logger.Write(p)
	if err != nil && r.closed.Load() {
		// 前置检查通过后 Close 可能并发完成，底层此时返回的 I/O 错误
		// 实际含义是"已关闭"。复查 closed，让调用方稳定拿到 ErrClosed。
		return n, ErrClosed
	}
	return n, err
}

// Rotate 立即把当前文件转为备份并开始写新文件。
func (r *lumberjackRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.logger.Rotate(); err != nil {
		// 与 Write 相同的关闭竞争复查
		if r.closed.Load() {
			return ErrClosed
		}
		return err
	}
	return nil
}

// Close 关闭轮转器。关闭后的 Write/Rotate 以及重复 Close 都返回 [ErrClosed]。
//
// 首次 Close 即使底层失败也不回退 closed 标记：此后不允许新写入到达
// 底层 logger，避免半关闭状态下的并发写。
func (r *lumberjackRotator) Close() error {
	if !r.closed.Swap(true) {
		return r.logger.Close()
	}
	return ErrClosed
}
