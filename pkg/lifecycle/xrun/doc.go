// Package xrun 提供基于 errgroup + context 的进程生命周期管理。
//
// # 概述
//
// xrun 围绕 [errgroup] 组织进程内的长驻服务：
//   - 多服务并发运行，任一出错即协调关闭
//   - 系统信号处理（SIGINT、SIGTERM 等），退出原因可分类
//   - 生命周期事件的结构化日志
//   - Ticker 周期任务封装
//
// # 快速开始
//
// 守护类进程的典型入口是 Run：信号监听 + 业务服务一次挂齐。
//
//	err := xrun.Run(ctx,
//	    func(ctx context.Context) error { return lease.Run(ctx) },
//	    xrun.Ticker(500*time.Millisecond, true, coordinator.Tick),
//	)
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 信号退出，正常下线
//	}
//
// 需要更细的控制（自定义取消时机、命名服务）时直接用 Group：
//
//	g, ctx := xrun.NewGroup(ctx, xrun.WithName("guard"))
//	g.GoWithName("lease-renewer", renewLoop)
//	g.GoWithName("failover-tick", tickLoop)
//	if err := g.Wait(); err != nil {
//	    log.Fatal(err)
//	}
//
// 所有服务遵循同一契约：监听 ctx.Done() 并在取消后尽快返回。
//
// # 退出错误
//
// Wait 的返回值区分三类退出：
//   - 服务错误：第一个非 nil、非 context.Canceled 的错误原样返回
//     （errgroup 单错误语义；其余服务经 context 收到取消通知）。
//   - 协调关闭：Cancel(cause) 或信号处理设置的显式原因被返回，
//     普通取消（Cancel(nil)、父 context 取消）返回 nil。
//   - 服务内部的 context.Canceled：Group 未被取消时不过滤，原样
//     返回——它来自业务逻辑（例如下游调用的包装），不是协调关闭。
//
// 信号退出的原因是 *SignalError：
//
//	var sigErr *xrun.SignalError
//	if errors.As(err, &sigErr) {
//	    log.Printf("received signal: %v", sigErr.Signal)
//	}
//
// # 信号处理
//
// Run/RunWithOptions 自动注册信号服务，默认监听 SIGHUP、SIGINT、
// SIGTERM、SIGQUIT；WithSignals 可自定义列表，WithoutSignalHandler
// 完全禁用。直接使用 NewGroup 时不含信号处理，需自行管理。
//
// Kubernetes 在 Pod 终止前发送 SIGTERM，Run 默认监听并触发优雅
// 关闭；服务的收尾逻辑应在 terminationGracePeriodSeconds（默认
// 30s）内完成。
//
// # 设计决策
//
// 取消原因用 context.WithCancelCause 承载，而不是额外的错误通道：
// cause 沿 context 树自然传播，Wait 统一判读，不引入新的同步点。
//
// 不提供 OnShutdown 之类的全局回调注册。关闭逻辑内聚在各服务的
// ctx.Done() 处理中，避免回调排序与错误传播的复杂度。
//
// 关闭超时不内置。需要限时收尾的调用方用 context.WithTimeout 包住
// 自己的清理逻辑即可。
//
// [errgroup]: https://pkg.go.dev/golang.org/x/sync/errgroup
package xrun
