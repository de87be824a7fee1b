package xconf

import (
	"strings"
	"time"
)

// Settings 聚合各组件的文件配置，可从 YAML/JSON 文档整体反序列化：
//
//	gate:
//	  max_err_rate: 0.15
//	  window_sec: 300
//	lease:
//	  key: locks/reporter
//	  ttl_ms: 3000
//	  renew_ms: 1500
//	log:
//	  level: info
//	  format: text
//
// 推荐加载方式：先取 [DefaultSettings] 再反序列化，文档中省略的字段
// 保持默认值；加载后调用 Normalize 收紧越界值：
//
//	s := xconf.DefaultSettings()
//	if err := cfg.Unmarshal("", &s); err != nil { ... }
//	s.Normalize()
//
// 设计决策: 数值越界一律钳位而非拒绝加载，配置错误只应出现在文档本身
// 无法解析时。各字段默认值与对应组件的推荐默认保持一致，空文档的行为
// 等同于代码直接构造组件。
type Settings struct {
	// Gate 熔断闸门配置。
	Gate GateConfig `koanf:"gate"`

	// Lease 分布式租约配置。
	Lease LeaseConfig `koanf:"lease"`

	// Log 日志输出配置。
	Log LogConfig `koanf:"log"`
}

// DefaultSettings 返回带推荐默认值的 Settings。
func DefaultSettings() Settings {
	return Settings{
		Gate:  DefaultGateConfig(),
		Lease: DefaultLeaseConfig(),
		Log:   DefaultLogConfig(),
	}
}

// Normalize 依次收紧各子配置的越界值。
func (s *Settings) Normalize() {
	s.Gate.Normalize()
	s.Lease.Normalize()
	s.Log.Normalize()
}

// =============================================================================
// 熔断闸门配置
// =============================================================================

// 闸门配置默认值，与 xgate 的推荐默认保持一致。
const (
	defaultGateMaxErrRate    = 0.15
	defaultGateWindowSec     = 300
	defaultGateMinClosedSec  = 180
	defaultGateHalfOpenProbe = 5
	defaultGateLogBudget     = 10
)

// GateConfig 熔断闸门的文件配置，字段与 xgate 的构造参数一一对应。
type GateConfig struct {
	// Name 闸门名称，用于调用方标识。
	Name string `koanf:"name"`

	// MaxErrRate 窗口错误率阈值（比例），取值 [0,1]。
	MaxErrRate float64 `koanf:"max_err_rate"`

	// WindowSec 滑动窗口跨度（秒）。
	WindowSec int `koanf:"window_sec"`

	// MinClosedSec 封闸最短时长（秒）。
	MinClosedSec int `koanf:"min_closed_sec"`

	// HalfOpenProbe 半开态放行的探测数。
	HalfOpenProbe int `koanf:"half_open_probe"`

	// ThreadSafe 是否启用内部互斥锁。
	ThreadSafe bool `koanf:"thread_safe"`

	// MaxBins 窗口桶数上限，0 表示按 WindowSec 与 EventsPerSecHint 推导。
	MaxBins int `koanf:"max_bins"`

	// EventsPerSecHint 每秒事件量级提示，用于推导窗口桶数上限。
	EventsPerSecHint int `koanf:"events_per_sec_hint"`

	// LogBudget 迁移日志每秒最多输出的行数，0 表示完全关闭日志。
	LogBudget int `koanf:"log_budget"`
}

// DefaultGateConfig 返回带推荐默认值的闸门配置。
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxErrRate:       defaultGateMaxErrRate,
		WindowSec:        defaultGateWindowSec,
		MinClosedSec:     defaultGateMinClosedSec,
		HalfOpenProbe:    defaultGateHalfOpenProbe,
		EventsPerSecHint: 1,
		LogBudget:        defaultGateLogBudget,
	}
}

// Normalize 将越界值钳位到有效范围，与 xgate 构造时的钳位规则一致。
// LogBudget 为负视为未设置，回落默认预算；0 保留（显式关闭日志）。
func (c *GateConfig) Normalize() {
	if c.MaxErrRate < 0 {
		c.MaxErrRate = 0
	}
	if c.MaxErrRate > 1 {
		c.MaxErrRate = 1
	}
	if c.WindowSec <= 0 {
		c.WindowSec = defaultGateWindowSec
	}
	if c.MinClosedSec < 0 {
		c.MinClosedSec = 0
	}
	if c.HalfOpenProbe < 0 {
		c.HalfOpenProbe = 0
	}
	if c.MaxBins < 0 {
		c.MaxBins = 0
	}
	if c.EventsPerSecHint <= 0 {
		c.EventsPerSecHint = 1
	}
	if c.LogBudget < 0 {
		c.LogBudget = defaultGateLogBudget
	}
}

// =============================================================================
// 分布式租约配置
// =============================================================================

// 租约配置默认值，与 xlease 的推荐默认保持一致。
const (
	defaultLeaseTTLMs   = 3000
	defaultLeaseRenewMs = 1500
)

// LeaseConfig 分布式租约的文件配置。
type LeaseConfig struct {
	// Key 锁键，同一部署内唯一标识一把领导权锁。
	Key string `koanf:"key"`

	// TTLMs 初次获取的租约时长（毫秒）。
	TTLMs int64 `koanf:"ttl_ms"`

	// RenewMs 续期节奏（毫秒），同时是续期后的新租期。
	RenewMs int64 `koanf:"renew_ms"`

	// HolderID 持有者标识，为空时由 xlease 自动生成。
	HolderID string `koanf:"holder_id"`

	// Env 指标的 env 标签。
	Env string `koanf:"env"`

	// Service 指标的 service 标签。
	Service string `koanf:"service"`
}

// DefaultLeaseConfig 返回带推荐默认值的租约配置。
// Key 无默认值，留给调用方按部署填写。
func DefaultLeaseConfig() LeaseConfig {
	return LeaseConfig{
		TTLMs:   defaultLeaseTTLMs,
		RenewMs: defaultLeaseRenewMs,
	}
}

// Normalize 将非正时长收紧为 1 毫秒，与 xlease 构造时的收紧规则一致。
func (c *LeaseConfig) Normalize() {
	if c.TTLMs <= 0 {
		c.TTLMs = 1
	}
	if c.RenewMs <= 0 {
		c.RenewMs = 1
	}
}

// TTL 返回租约时长。
func (c *LeaseConfig) TTL() time.Duration {
	return time.Duration(c.TTLMs) * time.Millisecond
}

// RenewInterval 返回续期节奏。
func (c *LeaseConfig) RenewInterval() time.Duration {
	return time.Duration(c.RenewMs) * time.Millisecond
}

// =============================================================================
// 日志配置
// =============================================================================

// 日志配置默认值，级别与格式跟随 xlog 默认，轮转参数跟随 xrotate 默认。
const (
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	defaultLogMaxSizeMB  = 500
	defaultLogMaxBackups = 7
	defaultLogMaxAgeDays = 30

	// 轮转参数上限，与 xrotate 的校验上限一致。
	maxLogSizeMB  = 10240
	maxLogBackups = 1024
	maxLogAgeDays = 3650
)

// LogConfig 日志输出的文件配置。
type LogConfig struct {
	// Level 日志级别：debug/info/warn/error。
	Level string `koanf:"level"`

	// Format 输出格式：text 或 json。
	Format string `koanf:"format"`

	// File 日志文件路径，为空时输出到标准错误。
	File string `koanf:"file"`

	// MaxSizeMB 单个日志文件最大大小（MB），仅当 File 非空时生效。
	MaxSizeMB int `koanf:"max_size_mb"`

	// MaxBackups 保留的备份文件数量。
	MaxBackups int `koanf:"max_backups"`

	// MaxAgeDays 保留备份的天数。
	MaxAgeDays int `koanf:"max_age_days"`

	// Compress 是否压缩备份文件。
	Compress bool `koanf:"compress"`
}

// DefaultLogConfig 返回带推荐默认值的日志配置。
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:      defaultLogLevel,
		Format:     defaultLogFormat,
		MaxSizeMB:  defaultLogMaxSizeMB,
		MaxBackups: defaultLogMaxBackups,
		MaxAgeDays: defaultLogMaxAgeDays,
		Compress:   true,
	}
}

// Normalize 收紧日志配置：未知级别与格式回落默认，轮转数值钳位到
// xrotate 可接受的范围。数量与天数同时为 0 意味着没有清理策略，
// xrotate 会拒绝这种组合，此处一并回落默认。
func (c *LogConfig) Normalize() {
	c.Level = strings.ToLower(strings.TrimSpace(c.Level))
	switch c.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		c.Level = defaultLogLevel
	}

	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format != "text" && c.Format != "json" {
		c.Format = defaultLogFormat
	}

	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.MaxSizeMB > maxLogSizeMB {
		c.MaxSizeMB = maxLogSizeMB
	}
	if c.MaxBackups < 0 {
		c.MaxBackups = defaultLogMaxBackups
	}
	if c.MaxBackups > maxLogBackups {
		c.MaxBackups = maxLogBackups
	}
	if c.MaxAgeDays < 0 {
		c.MaxAgeDays = defaultLogMaxAgeDays
	}
	if c.MaxAgeDays > maxLogAgeDays {
		c.MaxAgeDays = maxLogAgeDays
	}
	if c.MaxBackups == 0 && c.MaxAgeDays == 0 {
		c.MaxBackups = defaultLogMaxBackups
		c.MaxAgeDays = defaultLogMaxAgeDays
	}
}
