package xlease

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/omeyang/guardkit/pkg/storage/xkv"
)

// FuzzLeaseOps 用随机操作序列驱动两个竞争实例，
// 验证互斥不变量在任意交错下都成立。
func FuzzLeaseOps(f *testing.F) {
	f.Add(uint16(0), uint16(0))
	f.Add(uint16(0xFFFF), uint16(0))
	f.Add(uint16(0xAAAA), uint16(0x5555))
	f.Add(uint16(0x0F0F), uint16(0xF0F0))
	f.Add(uint16(1), uint16(0x8000))

	f.Fuzz(func(t *testing.T, aBits, bBits uint16) {
		ctx := context.Background()
		clock := xkv.NewManualClock(0)
		store := xkv.NewMemory(clock)
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

		mk := func(holder string) *Lease {
			l, err := New(store, "fuzz/leader",
				WithHolderID(holder),
				WithTTL(300*time.Millisecond),
				WithRenewInterval(150*time.Millisecond),
				WithLogger(quiet),
			)
			if err != nil {
				t.Fatalf("New(%q): %v", holder, err)
			}
			return l
		}
		a := mk("a")
		b := mk("b")

		step := func(l *Lease, active bool, now int64) {
			if !active {
				return
			}
			if l.BelievedLeader() {
				l.Renew(ctx, now)
			} else {
				l.TryAcquire(ctx, now)
			}
		}

		now := int64(0)
		for i := 0; i < 16; i++ {
			now += 100
			clock.Set(now)

			step(a, (aBits>>i)&1 == 1, now)
			step(b, (bBits>>i)&1 == 1, now)

			aLeads := a.IsLeader(ctx)
			bLeads := b.IsLeader(ctx)
			if aLeads && bLeads {
				t.Fatalf("step %d now=%d: both instances report leadership", i, now)
			}

			// 权威判定必须与存储中的 holder 一致
			holder := a.Holder(ctx)
			if aLeads != (holder == "a") {
				t.Fatalf("step %d now=%d: a IsLeader=%v but holder=%q", i, now, aLeads, holder)
			}
			if bLeads != (holder == "b") {
				t.Fatalf("step %d now=%d: b IsLeader=%v but holder=%q", i, now, bLeads, holder)
			}
		}
	})
}

// FuzzHolderParsing 验证任意持有者标识经 SetNX 写入后原样读回
func FuzzHolderParsing(f *testing.F) {
	f.Add("node-a")
	f.Add("host:1234:abcd1234")
	f.Add("实例-甲")
	f.Add("")
	f.Add("a:b:c:d:e")

	f.Fuzz(func(t *testing.T, holder string) {
		ctx := context.Background()
		clock := xkv.NewManualClock(0)
		store := xkv.NewMemory(clock)

		l, err := New(store, "fuzz/holder",
			WithHolderID(holder),
			WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		)
		if err != nil {
			t.Fatalf("New: %v", err)
		}

		if !l.TryAcquire(ctx, 0) {
			t.Fatal("first acquire on empty store must succeed")
		}
		got := l.Holder(ctx)
		if got != l.HolderID() {
			t.Fatalf("holder round trip: wrote %q read %q", l.HolderID(), got)
		}
		if !l.IsLeader(ctx) {
			t.Fatal("IsLeader must be true right after acquire")
		}
	})
}
