package xconf

import "github.com/knadh/koanf/v2"

// Format 配置文件格式。
type Format string

// 支持的配置格式。
const (
	// FormatYAML YAML 格式，闸门与租约的默认配置文件格式。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式，多用于程序生成的配置。
	FormatJSON Format = "json"
)

// Config 配置加载接口。
// 只封装增值能力（类型化反序列化、并发安全重载），
// 点路径读取等基础操作直接走 Client() 返回的 koanf 实例。
type Config interface {
	// Client 返回底层 koanf 实例，可执行全部 koanf 操作。
	Client() *koanf.Koanf

	// Unmarshal 将指定路径下的配置反序列化到目标结构体。
	// path 为空串时反序列化整个配置树。
	Unmarshal(path string, target any) error

	// MustUnmarshal 同 Unmarshal，失败时 panic。
	// 用于进程启动期的必要配置，缺了就不该继续跑。
	MustUnmarshal(path string, target any)

	// Reload 重新读取配置文件，并发安全。
	// 仅文件来源的 Config 支持；字节来源的调用返回错误。
	Reload() error

	// Path 返回配置文件路径，字节来源的返回空串。
	Path() string

	// Format 返回加载时识别出的配置格式。
	Format() Format
}
