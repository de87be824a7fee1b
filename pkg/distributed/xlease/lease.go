package xlease

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/guardkit/pkg/observability/xmetrics"
	"github.com/omeyang/guardkit/pkg/storage/xkv"
)

const (
	// defaultTTL 初次获取的默认租期。
	defaultTTL = 3 * time.Second
	// defaultRenewInterval 默认续期节奏（同时是续期后的新租期）。
	defaultRenewInterval = 1500 * time.Millisecond

	// minLeaseSpan 租期与续期间隔的下限，非正配置收紧到该值。
	minLeaseSpan = time.Millisecond
)

// 租约指标名。
const (
	metricLeaderState    = "leader_state"
	metricElectionsTotal = "leader_elections_total"
	metricRenewFailTotal = "renew_fail_total"
)

// Lease 是对单个 key 的租约式领导权声明。
//
// 多个竞争进程对同一 key 各持一个 Lease 实例，依赖 KV 的
// 条件写入（SetNX）保证同一时刻最多一个持有者。
//
// # 信念与权威
//
// 实例内部维护"自认为是领导者"的本地信念，用于快速短路与续期节奏；
// 但租约到期是时间驱动的，领导权可能在没有任何本地调用的情况下丢失。
// 因此本地信念仅是建议性的，[Lease.IsLeader] 重读 KV 才是权威判定。
//
// # 并发模型
//
// Lease 无内部锁，设计为每进程恰好一个协调循环驱动；
// 多 goroutine 并发调用需由调用方自行串行化。
// 不启动任何后台 goroutine 或定时器，所有时间推进都由调用触发。
type Lease struct {
	store xkv.Store
	key   string

	ttl      time.Duration
	renew    time.Duration
	holderID string
	env      string
	service  string

	logger *slog.Logger
	sink   xmetrics.Sink
	attrs  []xmetrics.Attr

	believedLeader bool
	lastRenewMs    int64
	idemHits       uint64
}

// New 创建租约实例。
//
// store 为 nil 返回 [ErrNilStore]；key 为空白返回 [ErrEmptyKey]。
// 非正的 TTL/续期间隔被收紧为 1ms 而非拒绝。
// 运行期操作不再返回错误：KV 故障一律降级为"非领导者"。
func New(store xkv.Store, key string, opts ...Option) (*Lease, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if strings.TrimSpace(key) == "" {
		return nil, ErrEmptyKey
	}

	l := &Lease{
		store:  store,
		key:    key,
		ttl:    defaultTTL,
		renew:  defaultRenewInterval,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(l)
	}

	if l.holderID == "" {
		l.holderID = defaultHolderID()
	}
	if l.ttl < minLeaseSpan {
		l.ttl = minLeaseSpan
	}
	if l.renew < minLeaseSpan {
		l.renew = minLeaseSpan
	}
	l.attrs = l.buildMetricAttrs()

	return l, nil
}

// TryAcquire 尝试以本实例身份建立租约。
//
// SetNX 成功 ⇒ 成为领导者，记录选举计数并以 nowMs 作为续期基准。
// SetNX 失败 ⇒ 重读当前持有者：若存储的就是本实例的 holder id
// （过期信念丢失后的重入调用），仍视为领导者。
// 任何 KV 错误都视为获取失败，绝不在错误时假设领导权。
func (l *Lease) TryAcquire(ctx context.Context, nowMs int64) bool {
	ok, err := l.store.SetNX(ctx, l.key, l.holderID, l.ttl)
	if err != nil {
		l.logger.Warn("lease_kv_error", "op", "setnx", "key", l.key, "err", err)
		l.believedLeader = false
		l.publishLeaderGauge()
		return false
	}

	if ok {
		l.believedLeader = true
		l.lastRenewMs = nowMs
		xmetrics.Add(l.sink, metricElectionsTotal, 1, l.attrs...)
		l.publishLeaderGauge()
		l.logger.Info("lease_acquire", "key", l.key, "holder", l.holderID, "now_ms", nowMs)
		return true
	}

	// 键已存在：可能是本实例此前建立、尚未到期的租约
	holder, err := l.store.Get(ctx, l.key)
	if err != nil {
		if !xkv.IsKeyNotFound(err) {
			l.logger.Warn("lease_kv_error", "op", "get", "key", l.key, "err", err)
		}
		l.believedLeader = false
		l.publishLeaderGauge()
		return false
	}
	l.believedLeader = holder == l.holderID
	l.publishLeaderGauge()
	return l.believedLeader
}

// Renew 续期租约。
//
// 未自认为领导者时立即返回 false。距上次续期不足 RenewInterval 时
// 返回 true 且不接触 KV（续期是按节奏的，不是每 tick 一次）。
// 真正续期调用 PExpire(key, RenewInterval)：租约被延长 RenewInterval
// 而非最初的 TTL，稳态租期收敛到 RenewInterval。
//
// 续期失败后重读 KV 校准本地信念（键可能已过期或被他人接管），
// 返回 false。注意 PExpire 不校验持有者，Renew 的返回值不构成
// 领导权证明，权威判定见 [Lease.IsLeader]。
func (l *Lease) Renew(ctx context.Context, nowMs int64) bool {
	if !l.believedLeader {
		return false
	}

	if nowMs-l.lastRenewMs < l.renew.Milliseconds() {
		l.idemHits++
		return true
	}

	ok, err := l.store.PExpire(ctx, l.key, l.renew)
	if err == nil && ok {
		l.lastRenewMs = nowMs
		return true
	}
	if err != nil {
		l.logger.Warn("lease_kv_error", "op", "pexpire", "key", l.key, "err", err)
	}

	holder, gerr := l.store.Get(ctx, l.key)
	if gerr != nil && !xkv.IsKeyNotFound(gerr) {
		l.logger.Warn("lease_kv_error", "op", "get", "key", l.key, "err", gerr)
	}
	l.believedLeader = gerr == nil && holder == l.holderID
	xmetrics.Add(l.sink, metricRenewFailTotal, 1, l.attrs...)
	l.publishLeaderGauge()
	l.logger.Warn("lease_renew_fail", "key", l.key, "holder", l.holderID, "now_ms", nowMs)
	return false
}

// Release 放弃租约。
//
// 自认为领导者时删除键；无论删除是否成功，本地信念都会被清除，
// 删除失败只意味着租约要等到 TTL 自然到期。
func (l *Lease) Release(ctx context.Context) {
	if l.believedLeader {
		if err := l.store.Del(ctx, l.key); err != nil {
			l.logger.Warn("lease_kv_error", "op", "del", "key", l.key, "err", err)
		}
	}
	l.believedLeader = false
	l.publishLeaderGauge()
	l.logger.Info("lease_release", "key", l.key, "holder", l.holderID)
}

// IsLeader 权威判定当前是否持有租约。
//
// 重读 KV 并与本实例 holder id 比较，同时校准本地信念。
// 租约到期是时间驱动的，调用方必须依赖本方法而非缓存的信念。
// KV 错误返回 false。
func (l *Lease) IsLeader(ctx context.Context) bool {
	holder, err := l.store.Get(ctx, l.key)
	if err != nil {
		if !xkv.IsKeyNotFound(err) {
			l.logger.Warn("lease_kv_error", "op", "get", "key", l.key, "err", err)
		}
		l.believedLeader = false
		l.publishLeaderGauge()
		return false
	}
	l.believedLeader = holder == l.holderID
	l.publishLeaderGauge()
	return l.believedLeader
}

// Holder 返回当前持有者标识，诊断用途。
// 键不存在或 KV 错误时返回空字符串。
func (l *Lease) Holder(ctx context.Context) string {
	holder, err := l.store.Get(ctx, l.key)
	if err != nil {
		return ""
	}
	return holder
}

// Key 返回租约 key。
func (l *Lease) Key() string { return l.key }

// HolderID 返回本实例的持有者标识。
func (l *Lease) HolderID() string { return l.holderID }

// TTL 返回初次获取的租期（已收紧）。
func (l *Lease) TTL() time.Duration { return l.ttl }

// RenewInterval 返回续期节奏（已收紧）。
func (l *Lease) RenewInterval() time.Duration { return l.renew }

// BelievedLeader 返回本地信念，不接触 KV。
// 仅供协调器与测试使用，权威判定见 [Lease.IsLeader]。
func (l *Lease) BelievedLeader() bool { return l.believedLeader }

// IdemHits 返回未接触 KV 的节奏内续期次数。
func (l *Lease) IdemHits() uint64 { return l.idemHits }

// publishLeaderGauge 将本地信念同步到 leader_state 读数。
func (l *Lease) publishLeaderGauge() {
	v := 0.0
	if l.believedLeader {
		v = 1.0
	}
	xmetrics.Gauge(l.sink, metricLeaderState, v, l.attrs...)
}

// buildMetricAttrs 生成 env/service/instance 指标标签，空标签省略。
func (l *Lease) buildMetricAttrs() []xmetrics.Attr {
	attrs := make([]xmetrics.Attr, 0, 3)
	if l.env != "" {
		attrs = append(attrs, xmetrics.String("env", l.env))
	}
	if l.service != "" {
		attrs = append(attrs, xmetrics.String("service", l.service))
	}
	attrs = append(attrs, xmetrics.String("instance", l.holderID))
	return attrs
}

// defaultHolderID 生成默认持有者标识（hostname:pid:uuid 片段）。
func defaultHolderID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), uuid.NewString()[:8])
}
