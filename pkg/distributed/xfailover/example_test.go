package xfailover_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/omeyang/guardkit/pkg/distributed/xfailover"
	"github.com/omeyang/guardkit/pkg/distributed/xlease"
	"github.com/omeyang/guardkit/pkg/storage/xkv"
)

// Example 演示两个节点的主备切换循环
func Example() {
	ctx := context.Background()
	clock := xkv.NewManualClock(0)
	store := xkv.NewMemory(clock)
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	newNode := func(holder string) *xfailover.Coordinator {
		l, _ := xlease.New(store, "orders/leader",
			xlease.WithHolderID(holder),
			xlease.WithTTL(3*time.Second),
			xlease.WithRenewInterval(1500*time.Millisecond),
			xlease.WithLogger(quiet),
		)
		c, _ := xfailover.New(l, xfailover.WithLogger(quiet))
		return c
	}
	a := newNode("node-a")
	b := newNode("node-b")

	fmt.Println("a:", a.Tick(ctx, 0))
	fmt.Println("b:", b.Tick(ctx, 0))

	// a 停止心跳，租约到期后 b 的下一拍接管
	clock.Set(3000)
	fmt.Println("b:", b.Tick(ctx, 3000))
	fmt.Println("a:", a.Tick(ctx, 3000))

	// Output:
	// a: leader
	// b: follower
	// b: leader
	// a: follower
}

// ExampleCoordinator_Role 演示只观察不竞争的角色查询
func ExampleCoordinator_Role() {
	ctx := context.Background()
	store := xkv.NewMemory(xkv.NewManualClock(0))
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	l, _ := xlease.New(store, "orders/leader",
		xlease.WithHolderID("node-a"),
		xlease.WithLogger(quiet),
	)
	c, _ := xfailover.New(l, xfailover.WithLogger(quiet))

	fmt.Println("before:", c.Role(ctx))
	c.Tick(ctx, 0)
	fmt.Println("after:", c.Role(ctx))

	// Output:
	// before: follower
	// after: leader
}
