// Package xlog 基于 log/slog 的结构化日志库。
//
// # 核心功能
//
//   - Builder 模式配置（输出目标、级别、格式、源码位置、文件轮转）
//   - 动态级别调整（运行时热更新，派生 logger 同步生效）
//   - 内部错误回调（Handler 写入失败可接入指标/告警）
//   - 双终结方法：[Builder.Build] 产出 [LoggerWithLevel]，
//     [Builder.BuildSlog] 产出标准库 *slog.Logger
//
// # 创建 Logger
//
// Builder 为 first-error-wins：只记录第一个配置错误，终结方法返回它
// 并拒绝构建。Builder 一次性使用，终结后需通过 [New] 重建。
// 可用配置：SetOutput、SetLevel、SetLevelString、SetFormat、
// SetAddSource、SetRotation、SetOnError。
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString(cfg.Level).
//		SetFormat("json").
//		SetRotation(cfg.File).
//		Build()
//
// cleanup 负责关闭轮转文件，进程退出前必须调用。
//
// # 与标准库互操作
//
// 需要向只认 *slog.Logger 的组件注入日志器时（典型如压测编排器的
// --log-file 输出），使用 [Builder.BuildSlog]，两条路径共享同一套
// 配置与轮转管道。
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)，
// 取值与 slog 一致。[ParseLevel] 从字符串解析（含 "warning" 别名）。
// Level 实现 encoding.TextMarshaler/TextUnmarshaler，
// 配置文件中的级别字段可直接反序列化。
//
// # 派生 Logger 与级别控制
//
// [Logger.With] 和 [Logger.WithGroup] 返回 [Logger] 接口（不含 [Leveler]）。
// 底层实现同时实现 [LoggerWithLevel]，可通过类型断言取回级别控制：
//
//	child := logger.With(slog.String("component", "lease"))
//	if lwl, ok := child.(xlog.LoggerWithLevel); ok {
//	    lwl.SetLevel(xlog.LevelDebug)
//	}
//
// 派生 logger 共享父级的 LevelVar，动态级别变更对整棵派生树生效。
package xlog
