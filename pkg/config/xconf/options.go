package xconf

// Options 配置加载选项。
type Options struct {
	// Delim 配置键路径的分隔符，默认 "."（如 "gate.max_err_rate"）。
	Delim string

	// Tag Unmarshal 使用的结构体标签名，默认 "koanf"。
	Tag string
}

// Option 配置选项函数。
type Option func(*Options)

// defaultOptions 返回默认加载选项。
func defaultOptions() *Options {
	return &Options{Delim: ".", Tag: "koanf"}
}

// WithDelim 设置键路径分隔符。
func WithDelim(delim string) Option {
	return func(o *Options) {
		o.Delim = delim
	}
}

// WithTag 设置反序列化用的结构体标签名。
// 与已有 json 标签的结构体共用时设为 "json" 免去重复打标。
func WithTag(tag string) Option {
	return func(o *Options) {
		o.Tag = tag
	}
}
