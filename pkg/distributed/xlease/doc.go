// Package xlease 提供基于 KV 租约的领导权互斥。
//
// # 设计理念
//
// 租约是对单个 key 的限时独占声明，互斥完全建立在 KV 条件写入
// （SetNX）的原子性之上，不做 fencing token 或多数派逻辑。
// 所有协作者（存储、时钟、指标、日志）在构造时注入，
// 实例由调用方显式持有，便于用假时钟和内存 KV 做确定性测试。
//
// # 核心语义
//
//   - 信念 vs 权威：本地"自认为领导者"的标志仅是建议性的，
//     [Lease.IsLeader] 重读 KV 才是权威判定。
//   - 节奏续期：距上次续期不足 RenewInterval 的 Renew 调用
//     不接触 KV，直接返回 true。
//   - 续期延长 RenewInterval 而非 TTL：稳态租期收敛到
//     RenewInterval（保留自既有行为，见 Renew 文档）。
//   - 故障降级：任何 KV 错误都降级为"非领导者"，绝不传播；
//     瞬时 KV 故障的代价是保守地让出领导权，而非进程崩溃。
//
// # 使用模式
//
//	lease, err := xlease.New(store, "svc/leader",
//		xlease.WithTTL(3*time.Second),
//		xlease.WithRenewInterval(1500*time.Millisecond))
//	if err != nil {
//		return err
//	}
//
//	// 外部 tick 循环驱动（参见 xfailover.Coordinator）
//	if !lease.BelievedLeader() {
//		lease.TryAcquire(ctx, nowMs)
//	} else {
//		lease.Renew(ctx, nowMs)
//	}
//	if lease.IsLeader(ctx) {
//		// 执行领导者职责
//	}
//
// 详细使用示例请参考 example_test.go。
package xlease
