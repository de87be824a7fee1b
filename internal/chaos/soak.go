package chaos

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/omeyang/guardkit/pkg/distributed/xfailover"
	"github.com/omeyang/guardkit/pkg/distributed/xlease"
	"github.com/omeyang/guardkit/pkg/storage/xkv"
)

const (
	// leaseKey 场景内两个节点竞争的唯一租约键。
	leaseKey = "chaos/leader"

	defaultTTL   = 3 * time.Second
	defaultRenew = 1500 * time.Millisecond
)

// 行协议中的锁动作。
const (
	lockAcq   = "acq"
	lockRenew = "renew"
	lockMiss  = "miss"
)

// Summary 汇总一次场景运行的结果。
type Summary struct {
	// TakeoverMs 旧租约到期到新持有者接管之间的毫秒数，未发生接管时为 0。
	TakeoverMs int64
	// IdemHitsTotal 两个节点节奏内幂等续期的总次数。
	IdemHitsTotal uint64
	// OK 全程是否满足单一领导者约束。
	OK bool
}

// config 场景参数。
type config struct {
	ttl    time.Duration
	renew  time.Duration
	logger *slog.Logger
}

// Option 配置场景参数。
type Option func(*config)

// WithTTL 设置初次获取的租约时长，默认 3s。非正值忽略。
func WithTTL(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithRenewInterval 设置续期节奏，默认 1.5s。非正值忽略。
func WithRenewInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.renew = d
		}
	}
}

// WithLogger 设置租约与协调器的日志出口。
// 默认丢弃：行协议要求输出流里只出现 CHAOS 行。
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// step 脚本中的一拍：在 atMs 时刻驱动 node 下标对应的节点。
type step struct {
	atMs int64
	node int
}

// script 返回经典时间线：A 在 t=0 获取、每 100ms 心跳至 t=900 后停摆；
// B 在 t=500/1500/2500 试探、t=4100 接管；A 在 t=4400 回归。
// 同一时刻 A 先于 B。
func script() []step {
	steps := []step{{0, 0}}
	for t := int64(100); t <= 900; t += 100 {
		steps = append(steps, step{t, 0})
	}
	steps = append(steps,
		step{500, 1},
		step{1500, 1},
		step{2500, 1},
		step{4100, 1},
		step{4400, 0},
	)
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].atMs < steps[j].atMs
	})
	return steps
}

// node 把协调器捆在它在行协议中的名字上。
type node struct {
	name  string
	coord *xfailover.Coordinator
}

// runner 承载一次运行的可变状态。
//
// holder/expiryMs 是驱动侧对 KV 内租约的影子账本：获取把到期设为
// now+ttl，触达 KV 的续期延长 renew，幂等命中不改变到期时刻。
// 接管耗时由影子账本推出，单一领导者断言则始终走 KV 权威判定。
type runner struct {
	w       io.Writer
	clock   *xkv.ManualClock
	nodes   []*node
	ttlMs   int64
	renewMs int64

	holder     string
	expiryMs   int64
	takeoverMs int64
	ok         bool
}

// Run 在 w 上重放场景并返回汇总。
//
// 输出只包含行协议内容。ctx 取消或 w 写入失败时中止并返回错误，
// 此时不再写 SUMMARY/RESULT 行。
func Run(ctx context.Context, w io.Writer, opts ...Option) (Summary, error) {
	cfg := &config{
		ttl:    defaultTTL,
		renew:  defaultRenew,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	clock := xkv.NewManualClock(0)
	store := xkv.NewMemory(clock)

	nodes := make([]*node, 0, 2)
	for _, name := range []string{"A", "B"} {
		l, err := xlease.New(store, leaseKey,
			xlease.WithHolderID(name),
			xlease.WithTTL(cfg.ttl),
			xlease.WithRenewInterval(cfg.renew),
			xlease.WithLogger(cfg.logger),
		)
		if err != nil {
			return Summary{}, fmt.Errorf("chaos: build lease for %s: %w", name, err)
		}
		c, err := xfailover.New(l, xfailover.WithLogger(cfg.logger))
		if err != nil {
			return Summary{}, fmt.Errorf("chaos: build coordinator for %s: %w", name, err)
		}
		nodes = append(nodes, &node{name: name, coord: c})
	}

	r := &runner{
		w:       w,
		clock:   clock,
		nodes:   nodes,
		ttlMs:   cfg.ttl.Milliseconds(),
		renewMs: cfg.renew.Milliseconds(),
		ok:      true,
	}
	return r.run(ctx)
}

func (r *runner) run(ctx context.Context) (Summary, error) {
	for _, s := range script() {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		r.clock.Set(s.atMs)
		if err := r.tick(ctx, r.nodes[s.node], s.atMs); err != nil {
			return Summary{}, err
		}
		r.checkExclusive(ctx)
	}

	sum := Summary{
		TakeoverMs:    r.takeoverMs,
		IdemHitsTotal: r.idemHitsTotal(),
		OK:            r.ok,
	}
	if _, err := fmt.Fprintf(r.w, "CHAOS_SUMMARY takeover_ms=%d idem_hits_total=%d\n",
		sum.TakeoverMs, sum.IdemHitsTotal); err != nil {
		return Summary{}, err
	}
	result := "OK"
	if !sum.OK {
		result = "FAIL"
	}
	if _, err := fmt.Fprintf(r.w, "CHAOS_RESULT=%s\n", result); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// tick 驱动一个节点一拍，推导锁动作并写事件行。
//
// 动作从协调器周围的可观测量推出：拍前不自认领导者时走的是获取，
// 权威角色为 leader 即 acq；拍前自认领导者时走的是续期，保住领导
// 即 renew；其余一律 miss。幂等计数没有增长的成功续期触达了 KV，
// 影子账本相应延长到期时刻。
func (r *runner) tick(ctx context.Context, n *node, nowMs int64) error {
	lease := n.coord.Lease()
	believed := lease.BelievedLeader()
	idemBefore := lease.IdemHits()

	role := n.coord.Tick(ctx, nowMs)

	action := lockMiss
	switch {
	case !believed && role == xfailover.RoleLeader:
		action = lockAcq
		if r.holder != "" && r.holder != n.name {
			r.takeoverMs = nowMs - r.expiryMs
		}
		r.holder = n.name
		r.expiryMs = nowMs + r.ttlMs
	case believed && role == xfailover.RoleLeader:
		action = lockRenew
		if lease.IdemHits() == idemBefore {
			r.expiryMs = nowMs + r.renewMs
		}
	}

	state := "follower"
	if role == xfailover.RoleLeader {
		state = "leader"
	}
	_, err := fmt.Fprintf(r.w, "CHAOS t=%d role=%s state=%s lock=%s\n", nowMs, n.name, state, action)
	return err
}

// checkExclusive 每拍之后用权威判定断言至多一个领导者。
func (r *runner) checkExclusive(ctx context.Context) {
	leaders := 0
	for _, n := range r.nodes {
		if n.coord.Role(ctx) == xfailover.RoleLeader {
			leaders++
		}
	}
	if leaders > 1 {
		r.ok = false
	}
}

func (r *runner) idemHitsTotal() uint64 {
	var total uint64
	for _, n := range r.nodes {
		total += n.coord.Lease().IdemHits()
	}
	return total
}
