package xfailover

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/guardkit/pkg/distributed/xlease"
	"github.com/omeyang/guardkit/pkg/storage/xkv"
)

// ============================================================================
// 测试辅助
// ============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLease(t *testing.T, store xkv.Store, holder string) *xlease.Lease {
	t.Helper()
	l, err := xlease.New(store, "svc/leader",
		xlease.WithHolderID(holder),
		xlease.WithTTL(3*time.Second),
		xlease.WithRenewInterval(1500*time.Millisecond),
		xlease.WithLogger(discardLogger()),
	)
	require.NoError(t, err)
	return l
}

func newTestCoordinator(t *testing.T, store xkv.Store, holder string, opts ...Option) *Coordinator {
	t.Helper()
	base := []Option{WithLogger(discardLogger())}
	c, err := New(newTestLease(t, store, holder), append(base, opts...)...)
	require.NoError(t, err)
	return c
}

// opCountStore 统计 SetNX 调用次数
type opCountStore struct {
	xkv.Store
	setnx int
}

func (s *opCountStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.setnx++
	return s.Store.SetNX(ctx, key, value, ttl)
}

// downStore 模拟完全不可用的 KV
type downStore struct {
	err error
}

func (s *downStore) SetNX(context.Context, string, string, time.Duration) (bool, error) {
	return false, s.err
}
func (s *downStore) PExpire(context.Context, string, time.Duration) (bool, error) {
	return false, s.err
}
func (s *downStore) Get(context.Context, string) (string, error) { return "", s.err }
func (s *downStore) Del(context.Context, string) error           { return s.err }
func (s *downStore) NowMs() int64                                { return 0 }

// ============================================================================
// New 测试
// ============================================================================

func TestNew(t *testing.T) {
	t.Run("nil lease", func(t *testing.T) {
		c, err := New(nil)
		require.ErrorIs(t, err, ErrNilLease)
		assert.Nil(t, c)
	})

	t.Run("defaults", func(t *testing.T) {
		store := xkv.NewMemory(xkv.NewManualClock(0))
		l := newTestLease(t, store, "node-a")

		c, err := New(l)
		require.NoError(t, err)
		assert.Same(t, l, c.Lease())
		assert.Equal(t, RoleFollower, c.lastRole)
	})

	t.Run("nil option ignored", func(t *testing.T) {
		store := xkv.NewMemory(xkv.NewManualClock(0))
		c, err := New(newTestLease(t, store, "node-a"), nil, WithLogger(discardLogger()))
		require.NoError(t, err)
		assert.NotNil(t, c)
	})
}

// ============================================================================
// Tick 测试
// ============================================================================

func TestCoordinator_Tick(t *testing.T) {
	ctx := context.Background()

	t.Run("follower acquires leadership", func(t *testing.T) {
		store := xkv.NewMemory(xkv.NewManualClock(0))
		a := newTestCoordinator(t, store, "node-a")

		assert.Equal(t, RoleLeader, a.Tick(ctx, 0))
	})

	t.Run("holder renews on subsequent ticks", func(t *testing.T) {
		clock := xkv.NewManualClock(0)
		store := xkv.NewMemory(clock)
		a := newTestCoordinator(t, store, "node-a")

		require.Equal(t, RoleLeader, a.Tick(ctx, 0))

		// 节奏内的拍子走幂等续期，不接触 KV
		for now := int64(100); now <= 500; now += 100 {
			clock.Set(now)
			assert.Equal(t, RoleLeader, a.Tick(ctx, now))
		}
		assert.Equal(t, uint64(5), a.Lease().IdemHits())
	})

	t.Run("contender stays follower", func(t *testing.T) {
		store := xkv.NewMemory(xkv.NewManualClock(0))
		a := newTestCoordinator(t, store, "node-a")
		b := newTestCoordinator(t, store, "node-b")

		require.Equal(t, RoleLeader, a.Tick(ctx, 0))
		assert.Equal(t, RoleFollower, b.Tick(ctx, 0))
	})

	t.Run("takes over after expiry", func(t *testing.T) {
		clock := xkv.NewManualClock(0)
		store := xkv.NewMemory(clock)
		a := newTestCoordinator(t, store, "node-a")
		b := newTestCoordinator(t, store, "node-b")

		require.Equal(t, RoleLeader, a.Tick(ctx, 0))

		// a 停止心跳，租约 3000 到期，b 接管
		clock.Set(3000)
		assert.Equal(t, RoleLeader, b.Tick(ctx, 3000))

		// a 回归时权威判定把它降为跟随者
		clock.Set(3100)
		assert.Equal(t, RoleFollower, a.Tick(ctx, 3100))
		assert.False(t, a.Lease().BelievedLeader())
	})

	t.Run("kv outage degrades to follower", func(t *testing.T) {
		store := &downStore{err: errors.New("kv down")}
		a := newTestCoordinator(t, store, "node-a")

		assert.NotPanics(t, func() {
			assert.Equal(t, RoleFollower, a.Tick(ctx, 0))
		})
	})
}

// ============================================================================
// Role 测试
// ============================================================================

func TestCoordinator_Role(t *testing.T) {
	ctx := context.Background()

	t.Run("does not compete", func(t *testing.T) {
		counting := &opCountStore{Store: xkv.NewMemory(xkv.NewManualClock(0))}
		a := newTestCoordinator(t, counting, "node-a")

		assert.Equal(t, RoleFollower, a.Role(ctx))
		assert.Zero(t, counting.setnx, "Role 只观察，不竞争")
	})

	t.Run("reflects external lease state", func(t *testing.T) {
		store := xkv.NewMemory(xkv.NewManualClock(0))
		l := newTestLease(t, store, "node-a")
		c, err := New(l, WithLogger(discardLogger()))
		require.NoError(t, err)

		// 租约在协调器之外被获取，Role 立即反映
		require.True(t, l.TryAcquire(ctx, 0))
		assert.Equal(t, RoleLeader, c.Role(ctx))
	})
}

// ============================================================================
// 角色变化回调测试
// ============================================================================

func TestCoordinator_RoleChange(t *testing.T) {
	ctx := context.Background()

	type change struct{ from, to Role }

	t.Run("fires on promotion and demotion", func(t *testing.T) {
		clock := xkv.NewManualClock(0)
		store := xkv.NewMemory(clock)

		var changes []change
		a := newTestCoordinator(t, store, "node-a",
			WithOnRoleChange(func(from, to Role) {
				changes = append(changes, change{from, to})
			}),
		)
		b := newTestCoordinator(t, store, "node-b")

		require.Equal(t, RoleLeader, a.Tick(ctx, 0))

		clock.Set(3000)
		require.Equal(t, RoleLeader, b.Tick(ctx, 3000))
		require.Equal(t, RoleFollower, a.Tick(ctx, 3000))

		require.Len(t, changes, 2)
		assert.Equal(t, change{RoleFollower, RoleLeader}, changes[0])
		assert.Equal(t, change{RoleLeader, RoleFollower}, changes[1])
	})

	t.Run("does not fire without transition", func(t *testing.T) {
		store := xkv.NewMemory(xkv.NewManualClock(0))

		fired := 0
		a := newTestCoordinator(t, store, "node-a",
			WithOnRoleChange(func(Role, Role) { fired++ }),
		)

		a.Tick(ctx, 0)
		a.Tick(ctx, 100)
		a.Tick(ctx, 200)
		assert.Equal(t, 1, fired)
	})

	t.Run("callback panic swallowed", func(t *testing.T) {
		store := xkv.NewMemory(xkv.NewManualClock(0))
		a := newTestCoordinator(t, store, "node-a",
			WithOnRoleChange(func(Role, Role) { panic("boom") }),
		)

		assert.NotPanics(t, func() {
			assert.Equal(t, RoleLeader, a.Tick(ctx, 0))
		})
	})
}

// ============================================================================
// 双协调器互斥测试
// ============================================================================

func TestCoordinator_TwoNodes_NeverBothLead(t *testing.T) {
	ctx := context.Background()
	clock := xkv.NewManualClock(0)
	store := xkv.NewMemory(clock)
	a := newTestCoordinator(t, store, "node-a")
	b := newTestCoordinator(t, store, "node-b")

	assertExclusive := func(ra, rb Role) {
		t.Helper()
		assert.False(t, ra == RoleLeader && rb == RoleLeader, "both nodes report leader")
	}

	// a 正常心跳到 900 后停摆
	require.Equal(t, RoleLeader, a.Tick(ctx, 0))
	for now := int64(100); now <= 900; now += 100 {
		clock.Set(now)
		ra := a.Tick(ctx, now)
		assertExclusive(ra, b.Role(ctx))
	}

	// b 在租约存续期内的尝试全部落空
	for _, now := range []int64{1500, 2500} {
		clock.Set(now)
		rb := b.Tick(ctx, now)
		assert.Equal(t, RoleFollower, rb)
		assertExclusive(a.Role(ctx), rb)
	}

	// 租约 3000 到期，b 在 4100 接管
	clock.Set(4100)
	require.Equal(t, RoleLeader, b.Tick(ctx, 4100))

	// a 回归后保持跟随者
	clock.Set(4400)
	ra := a.Tick(ctx, 4400)
	rb := b.Tick(ctx, 4400)
	assert.Equal(t, RoleFollower, ra)
	assert.Equal(t, RoleLeader, rb)
	assertExclusive(ra, rb)
}
