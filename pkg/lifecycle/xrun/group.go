package xrun

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Group 基于 errgroup 管理一组服务的并发运行与协调关闭。
//
// 任一服务返回错误、Group 被 Cancel、或父 context 被取消时，
// 派生 context 进入取消态，其余服务应监听 ctx.Done() 优雅退出。
//
// Go、GoWithName、Cancel 可从多个 goroutine 并发调用；
// Wait 只应调用一次。
//
//	g, ctx := xrun.NewGroup(ctx, xrun.WithName("reporter"))
//	g.GoWithName("renew", func(ctx context.Context) error {
//	    return lease.Run(ctx) // 租约续期循环
//	})
//	g.GoWithName("failover", func(ctx context.Context) error {
//	    return coordinator.Run(ctx) // 按拍推进故障转移
//	})
//	if err := g.Wait(); err != nil {
//	    logger.Error("group exited", slog.Any("error", err))
//	}
type Group struct {
	eg   *errgroup.Group
	ctx  context.Context
	opts *groupOptions

	// cancelCtx 只在主动取消（Cancel 或父 context）时进入取消态，
	// 用来和服务出错引发的 errgroup 取消相区分。
	cancelCtx context.Context
	cancel    context.CancelCauseFunc
}

// NewGroup 创建 Group 并返回派生 context。
// 派生 context 在任一服务出错或 Group 被取消时关闭。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	// context.WithCancelCause(nil) 会 panic，归一化为 Background。
	// 保持与 errgroup.WithContext 对齐的签名，所以静默归一而非返回错误。
	if ctx == nil {
		ctx = context.Background()
	}

	g := &Group{opts: newOptions(opts)}
	g.cancelCtx, g.cancel = context.WithCancelCause(ctx)
	g.eg, g.ctx = errgroup.WithContext(g.cancelCtx)
	return g, g.ctx
}

// Go 启动一个服务 goroutine。
//
// fn 应监听 ctx.Done() 响应协调关闭；返回非 nil 错误会取消其余服务。
// fn 为 nil 时该服务以 ErrNilFunc 结束。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn != nil {
			return fn(g.ctx)
		}
		return ErrNilFunc
	})
}

// GoWithName 与 Go 相同，并为该服务记录启停日志。
// name 为空时日志中出现 service=""，建议传入有意义的名称。
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		log := g.opts.logger.With(
			slog.String("group", g.opts.name),
			slog.String("service", name),
		)
		log.Debug("service starting")
		err := fn(g.ctx)
		switch {
		case err == nil, errors.Is(err, context.Canceled):
			log.Debug("service stopped")
		default:
			log.Warn("service exited with error", slog.Any("error", err))
		}
		return err
	})
}

// Wait 阻塞到所有服务结束，返回对外的退出错误。
//
// 错误映射规则：
//   - 服务返回的普通错误原样返回（errgroup 语义，取第一个）。
//   - 协调关闭产生的 context.Canceled 被吞掉：Cancel(cause) 与信号
//     处理设置的显式原因优先返回，普通取消返回 nil。
//   - 服务内部自行返回的 context.Canceled（Group 并未被取消）不过滤。
//   - 所有服务返回 nil 但存在显式取消原因时，仍返回该原因，调用方
//     始终能基于退出原因做分类决策。
func (g *Group) Wait() error {
	// CancelCauseFunc 幂等，已取消时为空操作；defer 保证 cause 判读
	// 完成后才释放 context 资源。
	defer g.cancel(nil)

	g.opts.logger.Debug("waiting for services", slog.String("group", g.opts.name))
	err := g.eg.Wait()
	g.opts.logger.Debug("all services stopped", slog.String("group", g.opts.name))

	return g.resolve(err)
}

// resolve 把 errgroup 的返回值映射为 Wait 的对外错误。
//
// 取消来源靠两层 context 区分：cancelCtx 只在 Group 被主动取消
// （Cancel 或父 context）时进入取消态；errgroup 的 context 在任一
// 服务出错时也会取消。cancelCtx 未取消而错误是 context.Canceled，
// 说明它来自服务内部逻辑（例如下游 RPC 的包装），不属于协调关闭。
func (g *Group) resolve(err error) error {
	groupCanceled := g.cancelCtx.Err() != nil

	switch {
	case errors.Is(err, context.Canceled):
		if !groupCanceled {
			return err
		}
		return g.explicitCause()
	case err == nil && groupCanceled:
		return g.explicitCause()
	default:
		return err
	}
}

// explicitCause 返回主动取消携带的原因。
// 普通取消（cause 是 context.Canceled 本身）返回 nil。
func (g *Group) explicitCause() error {
	if cause := context.Cause(g.cancelCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// Cancel 取消所有服务，cause 会作为退出原因由 Wait 返回。
// cause 为 nil 表示普通关闭，Wait 返回 nil。
//
// cause 不应包装 context.Canceled（例如 fmt.Errorf("...: %w",
// context.Canceled)），否则会被当作普通取消过滤掉。有语义的退出
// 原因应使用独立错误类型，如 SignalError 或自定义业务错误。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回 Group 的派生 context。
func (g *Group) Context() context.Context {
	return g.ctx
}
