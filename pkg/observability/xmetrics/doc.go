// Package xmetrics 提供统一的指标上报接口。
//
// # 设计理念
//
// xmetrics 仅定义最小化接口：Sink/Attr，
// 业务代码只依赖接口；具体实现可替换。
// 默认实现基于 OpenTelemetry，兼容主流可观测栈。
//
// Sink 只有两个操作：Gauge 覆盖当前值，Add 累加增量。
// 熔断门、租约等组件通过 Sink 上报状态，不感知底层指标系统。
//
// # 使用示例
//
//	sink, _ := xmetrics.NewOTelSink()
//	xmetrics.Gauge(sink, "circuit_state", 1,
//		xmetrics.String("name", "payments"))
//	xmetrics.Add(sink, "transitions_total", 1)
//
// # 事件桥接
//
// EventSink 将事件回调（event + fields）翻译为 Sink 调用，
// 用于对接按事件名上报的组件：
//
//	gate := xgate.New("payments", xgate.DefaultParams(),
//		xgate.WithMetricsFunc(xmetrics.EventSink(sink)))
//
// 仪表创建失败自动降级为空操作，上报永远不影响调用方。
package xmetrics
