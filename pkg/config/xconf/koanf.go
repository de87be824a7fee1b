package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// parsers 各格式对应的 koanf 解析器。
// 两个解析器都是无状态的，单实例复用即可。
var parsers = map[Format]koanf.Parser{
	FormatYAML: yaml.Parser(),
	FormatJSON: json.Parser(),
}

// extFormats 扩展名到格式的映射，查表前扩展名先转小写。
var extFormats = map[string]Format{
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".json": FormatJSON,
}

// koanfConfig Config 接口的 koanf 实现。
//
// mu 保护 k 的替换：Reload 构建新实例后整体换引用，
// 读侧始终看到完整的一代配置，不会读到半新半旧。
type koanfConfig struct {
	path   string
	format Format
	opts   *Options

	mu sync.RWMutex
	k  *koanf.Koanf

	isBytes bool // 字节来源标记，Reload/Watch 据此拒绝
}

// newKoanf 应用选项并构建空的 koanf 实例，New 与 NewFromBytes 共用。
func newKoanf(opts []Option) (*koanf.Koanf, *Options) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return koanf.New(options.Delim), options
}

// New 从文件路径创建配置实例。
// 格式按扩展名自动识别：.yaml/.yml 或 .json。
func New(path string, opts ...Option) (Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	k, options := newKoanf(opts)
	if err := parseInto(k, data, format); err != nil {
		return nil, err
	}
	return &koanfConfig{k: k, path: path, format: format, opts: options}, nil
}

// NewFromBytes 从字节数据创建配置实例，格式需显式指定。
// 适用于内嵌默认配置和测试场景。
func NewFromBytes(data []byte, format Format, opts ...Option) (Config, error) {
	if _, ok := parsers[format]; !ok {
		return nil, ErrUnsupportedFormat
	}

	k, options := newKoanf(opts)
	// 空数据（含 nil）等价于空文件：得到可正常使用的空配置，
	// Unmarshal 返回目标结构体的零值
	if len(data) > 0 {
		if err := parseInto(k, data, format); err != nil {
			return nil, err
		}
	}
	return &koanfConfig{k: k, format: format, opts: options, isBytes: true}, nil
}

// Client 返回底层 koanf 实例。
func (c *koanfConfig) Client() *koanf.Koanf {
	c.mu.RLock()
	k := c.k
	c.mu.RUnlock()
	return k
}

// Unmarshal 把 path 子树解码到 target，空 path 解码整棵配置树。
func (c *koanfConfig) Unmarshal(path string, target any) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	conf := koanf.UnmarshalConf{Tag: c.opts.Tag}
	if err := c.k.UnmarshalWithConf(path, target, conf); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// MustUnmarshal 同 Unmarshal，失败时 panic。
func (c *koanfConfig) MustUnmarshal(path string, target any) {
	if err := c.Unmarshal(path, target); err != nil {
		panic(err)
	}
}

// Reload 重新读取配置文件。
// 先在锁外完成读取与解析，成功后才换引用；
// 解析失败时旧配置原样保留。
func (c *koanfConfig) Reload() error {
	if c.isBytes {
		return fmt.Errorf("%w: cannot reload config created from bytes", ErrNotFromFile)
	}

	// 锁外读盘解析，失败不影响在用配置
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	fresh := koanf.New(c.opts.Delim)
	if err := parseInto(fresh, data, c.format); err != nil {
		return err
	}

	c.mu.Lock()
	c.k = fresh
	c.mu.Unlock()
	return nil
}

// Path 返回配置文件路径，字节来源为空串。
func (c *koanfConfig) Path() string { return c.path }

// Format 返回配置格式。
func (c *koanfConfig) Format() Format { return c.format }

// detectFormat 按文件扩展名识别配置格式。
func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if format, ok := extFormats[ext]; ok {
		return format, nil
	}
	return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
}

// parseInto 按格式解析数据并装入 koanf 实例。
func parseInto(k *koanf.Koanf, data []byte, format Format) error {
	parser, ok := parsers[format]
	if !ok {
		return ErrUnsupportedFormat
	}
	err := k.Load(rawbytes.Provider(data), parser)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}
