package xconf

import "errors"

// 加载与解析阶段的哨兵错误，调用方用 errors.Is 区分失败环节。
var (
	// ErrEmptyPath 配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 不支持的配置格式或文件扩展名。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 配置文件读取失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 配置内容解析失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 配置反序列化到结构体失败。
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")
)

// 监视相关的哨兵错误。
var (
	// ErrNotFromFile 配置非文件来源，不支持 Reload/Watch。
	ErrNotFromFile = errors.New("xconf: config not created from file")

	// ErrNilCallback 监视回调为 nil。
	ErrNilCallback = errors.New("xconf: nil watch callback")

	// ErrInvalidDebounce 防抖时长非正。
	ErrInvalidDebounce = errors.New("xconf: invalid debounce duration")

	// ErrWatchFailed 监视器创建失败。
	ErrWatchFailed = errors.New("xconf: failed to watch config")
)
