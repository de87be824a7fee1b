package xrun

import (
	"context"
	"time"
)

// Ticker 把 fn 包装成按固定周期执行的服务函数。
//
// interval 必须为正，否则服务以 ErrInvalidInterval 结束；fn 为 nil
// 时以 ErrNilFunc 结束。immediate 为 true 时启动即执行一次，之后每个
// 周期执行一次；fn 返回错误或 ctx 被取消时服务结束。
//
//	g.Go(xrun.Ticker(500*time.Millisecond, true, func(ctx context.Context) error {
//	    return coordinator.Tick(ctx)
//	}))
func Ticker(interval time.Duration, immediate bool, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		switch {
		case interval <= 0:
			return ErrInvalidInterval
		case fn == nil:
			return ErrNilFunc
		}

		if immediate {
			// 已取消的 context 不触发业务副作用（发消息、写库）。
			err := ctx.Err()
			if err == nil {
				err = fn(ctx)
			}
			if err != nil {
				return err
			}
		}

		tick := time.NewTicker(interval)
		defer tick.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick.C:
				if err := fn(ctx); err != nil {
					return err
				}
			}
		}
	}
}
