// Package xgate 提供基于时间窗口错误率的熔断闸门（circuit gate）。
//
// # 设计理念
//
// xgate 用"闸门"比喻熔断：OPEN 表示闸门敞开、流量放行；TRIPPED 表示
// 闸门落下、流量阻断；HALF_OPEN 表示闸门半开、放入有限探测流量。
// 与基于连续失败计数的熔断器不同，xgate 以逐秒聚合桶统计滑动窗口内的
// 错误率，能在高频洪泛下保持内存有界：
//   - 同一秒内的全部结果合并进一个桶（coalescing），超出首个的事件只
//     递增洪泛计数，不增长窗口
//   - 桶序列容量有上界 min(10000, window_sec*events_per_sec_hint)
//   - 状态迁移只由 Record 调用触发，没有任何后台定时器；长时间静默会
//     让闸门保持 TRIPPED（fail-closed）
//
// # 核心概念
//
//   - Gate: 单个受保护资源的熔断闸门，进程生命周期内复用
//   - Params: 熔断判定参数（错误率阈值、窗口、封闸时长、探测数）
//   - State: OPEN(0) / TRIPPED(1) / HALF_OPEN(2)，名称与整数码同源
//   - Snapshot: 状态、窗口错误率、桶数、最近迁移时刻的一致性读取
//
// # 状态迁移
//
//	OPEN      --错误率超阈值-->              TRIPPED   (trip)
//	TRIPPED   --封闸满 MinClosedSec-->       HALF_OPEN (probe_start)
//	HALF_OPEN --任一探测失败-->              TRIPPED   (probe_fail)
//	HALF_OPEN --连续 HalfOpenProbe 次成功--> OPEN      (probe_success)
//
// 触发 TRIPPED→HALF_OPEN 的那次 Record 被迁移本身消耗，不计入探测；
// 探测严格按每次 Record 处理一个结果。相同状态的重复迁移是幂等空操作。
//
// # 可观测性
//
// 每次状态迁移输出一行固定字段序的 ASCII 日志（详见 Gate 文档），
// 并受每秒行数预算限制。指标通过两代回调上报：旧式逐项回调
// （状态 gauge、错误率 gauge、迁移计数）与统一事件回调，二者相互独立、
// 可任意组合；回调抛出的 panic 在调用点被吞掉，绝不影响主流程。
// 统一回调可用 xmetrics.EventSink 桥接到指标后端。
//
// # 并发模型
//
// 默认面向单协程协作式调用。WithThreadSafe(true) 启用互斥保护后，
// Record/State/Snapshot 共享同一把非可重入锁；Record 不得在其触发的
// 回调内被重入。
package xgate
