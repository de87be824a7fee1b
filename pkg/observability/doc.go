// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，log/slog 之上加动态级别与错误回调
//   - xmetrics: 指标汇聚接口，附带 OpenTelemetry 出口
//   - xrotate: 基于 lumberjack 的日志文件轮转
//
// 设计原则：
//   - 指标出口可空，未接线时上报是零开销空操作
//   - 日志自身的故障走独立回调而非日志流，避免递归
//   - 轮转大小、备份数量与压缩全部由选项配置
package observability
