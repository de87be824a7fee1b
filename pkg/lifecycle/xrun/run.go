package xrun

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// DefaultSignals 返回默认监听的系统信号：SIGHUP、SIGINT、SIGTERM、
// SIGQUIT。注意 SIGHUP 在终端断开（如 SSH 断连）时也会触发，容器化
// 部署通常无此问题；需要排除时用 [WithSignals] 自定义列表。
//
// 每次调用返回新切片，调用者可安全修改。
func DefaultSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}
}

// Run 是最常用的启动入口：注册信号监听并发运行全部服务。
//
// 收到被监听的信号（默认 DefaultSignals）后 ctx 被取消，所有服务
// 应优雅关闭，Run 返回 *SignalError：
//
//	err := xrun.Run(ctx, func(ctx context.Context) error {
//	    for {
//	        select {
//	        case <-ctx.Done():
//	            return ctx.Err()
//	        case ev := <-events:
//	            handle(ctx, ev)
//	        }
//	    }
//	})
//	if errors.Is(err, xrun.ErrSignal) {
//	    log.Println("received signal, shutting down")
//	}
//
// 周期性任务推荐用 [Ticker] 包装，它封装了 ticker 启停与取消逻辑。
func Run(ctx context.Context, services ...func(ctx context.Context) error) error {
	return run(ctx, nil, services)
}

// RunWithOptions 与 Run 相同，但支持配置选项
// （WithName、WithLogger、WithSignals、WithoutSignalHandler）。
func RunWithOptions(ctx context.Context, opts []Option, services ...func(ctx context.Context) error) error {
	return run(ctx, opts, services)
}

// run 是 Run/RunWithOptions 的共享实现：建组、按需挂信号服务、
// 注册业务服务、等待退出。
func run(ctx context.Context, opts []Option, services []func(ctx context.Context) error) error {
	g, _ := NewGroup(ctx, opts...)

	if !g.opts.noSignalHandler {
		g.Go(signalActor(g))
	}
	for _, svc := range services {
		g.Go(svc)
	}

	return g.Wait()
}

// signalActor 返回监听系统信号的服务函数。收到信号后以
// &SignalError{Signal: sig} 为原因取消整个 Group，Wait 据此返回
// 信号退出错误。
func signalActor(g *Group) func(ctx context.Context) error {
	signals := g.opts.signals
	// 空列表与 nil 等价，回落默认：signal.Notify 的无参调用会订阅
	// 所有信号，那不是调用方想要的行为。
	if len(signals) == 0 {
		signals = DefaultSignals()
	}

	return func(ctx context.Context) error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, signals...)
		defer signal.Stop(sigCh)

		var sig os.Signal
		select {
		case sig = <-testSigChan(ctx):
		case sig = <-sigCh:
		case <-ctx.Done():
			return ctx.Err()
		}

		g.opts.logger.Info("received signal",
			slog.String("group", g.opts.name),
			slog.String("signal", sig.String()),
		)
		g.cancel(&SignalError{Signal: sig})
		return nil
	}
}

// 测试通道注入放在非测试文件，因为 signalActor（生产代码）需要从
// context 读取它。这样测试不必向进程发送真实信号（可能被 CI 拦截或
// 影响并行测试），生产路径只多一次 context.Value 查找。

type testSigChanKey struct{}

// testSigChan 取出测试注入的信号通道；生产环境返回 nil，
// 对 nil 通道的接收永远阻塞，select 分支等同不存在。
func testSigChan(ctx context.Context) <-chan os.Signal {
	c, _ := ctx.Value(testSigChanKey{}).(<-chan os.Signal)
	return c
}

func withTestSigChan(ctx context.Context, c <-chan os.Signal) context.Context {
	return context.WithValue(ctx, testSigChanKey{}, c)
}
