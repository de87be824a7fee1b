// Package xrotate 为文件日志提供按大小轮转的写入器。
//
// [NewLumberjack] 返回的 [Rotator] 是并发安全的 io.WriteCloser：
// 文件写满配置的大小上限后自动切换，旧备份按数量和天数清理，可选
// gzip 压缩。常规用法是作为 xlog 的文件输出目标：
//
//	slogger, cleanup, err := xlog.New().
//		SetRotation("/var/log/guard/soak.log",
//			xrotate.WithMaxSize(64),
//			xrotate.WithMaxBackups(3),
//		).
//		BuildSlog()
//
// 备份文件名中的时间戳固定使用 UTC，不受宿主机时区影响。
//
// 设计决策: 内部出错（轮转失败、磁盘写满）只通过返回值上报，不打日志。
// Rotator 本身就是日志输出目标，在这里再写日志会形成递归。
package xrotate
