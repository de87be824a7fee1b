package xrotate

import "io"

// Rotator 是带轮转能力的日志输出目标。
//
// 它是 [io.WriteCloser] 的超集，可以直接挂到 xlog 的文件输出上；
// Rotate 用于在写满之外的时机（比如收到 SIGHUP）强制切换文件。
//
// 实现约定：
//   - Write 并发安全
//   - Close 之后的 Write/Rotate 返回 [ErrClosed]，重复 Close 同样返回 [ErrClosed]
type Rotator interface {
	io.WriteCloser

	// Rotate 关闭当前日志文件，将其重命名为备份后开始写新文件
	Rotate() error
}
