package xlog

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level 日志级别，底层即 slog.Level
type Level slog.Level

// 级别常量与 slog 取值一致，可与标准库生态直接互转
const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// levelNames 解析表，warning 是 warn 的配置文件常见别名
var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// ParseLevel 解析字符串为日志级别
//
// 大小写不敏感，输入先 TrimSpace（与 [Builder.SetFormat] 的宽容度一致）。
// 解析失败返回 LevelInfo 与错误。
func ParseLevel(s string) (Level, error) {
	if level, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return level, nil
	}
	return LevelInfo, fmt.Errorf("xlog: unknown level %q", s)
}

// String 返回级别的大写名称（DEBUG/INFO/WARN/ERROR），
// 非标准取值沿用 slog 的写法，如 "INFO+2"。
func (l Level) String() string {
	return slog.Level(l).String()
}

// MarshalText 实现 encoding.TextMarshaler，支持写入配置文件
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler，支持从配置文件反序列化
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err == nil {
		*l = parsed
	}
	return err
}
