package xrotate

import "errors"

// 构造期校验错误，均可用 errors.Is 判别。
var (
	// ErrEmptyFilename 未指定日志文件路径
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidMaxSize 单文件大小上限越界（允许 1~10240 MB）
	ErrInvalidMaxSize = errors.New("xrotate: invalid MaxSizeMB")

	// ErrInvalidMaxBackups 备份数量越界（允许 0~1024）
	ErrInvalidMaxBackups = errors.New("xrotate: invalid MaxBackups")

	// ErrInvalidMaxAge 保留天数越界（允许 0~3650）
	ErrInvalidMaxAge = errors.New("xrotate: invalid MaxAgeDays")

	// ErrNoCleanupPolicy 备份数量与保留天数同时为 0，磁盘占用将没有上限
	ErrNoCleanupPolicy = errors.New("xrotate: no cleanup policy configured")

	// ErrInvalidPath 路径格式非法（空字节、目录路径或缺少文件名）
	ErrInvalidPath = errors.New("xrotate: invalid path")

	// ErrPathTraversal 路径包含 ".." 段
	ErrPathTraversal = errors.New("xrotate: path traversal")
)

// ErrClosed 轮转器已关闭，之后的 Write/Rotate/Close 都返回此错误
var ErrClosed = errors.New("xrotate: rotator is closed")
