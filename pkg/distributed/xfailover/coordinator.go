package xfailover

import (
	"context"
	"log/slog"

	"github.com/omeyang/guardkit/pkg/distributed/xlease"
)

// Role 表示协调器观察到的当前角色
type Role string

const (
	// RoleLeader 权威判定为领导者
	RoleLeader Role = "leader"
	// RoleFollower 未持有租约或判定失败
	RoleFollower Role = "follower"
)

// Coordinator 把租约原语编排成"每拍一步"的主备切换循环。
//
// 每次 Tick 根据本地信念选择动作：未自认为领导者则竞争获取，
// 否则续期；动作完成后以 KV 权威判定给出本拍角色。
// 调用方只需周期性驱动 Tick，租约细节由 xlease 承担。
//
// 与 Lease 相同，Coordinator 不做内部加锁，单进程内应只有
// 一个调用方驱动它。
type Coordinator struct {
	lease        *xlease.Lease
	logger       *slog.Logger
	onRoleChange func(from, to Role)

	lastRole Role
}

// New 创建协调器。lease 为空返回 ErrNilLease。
func New(lease *xlease.Lease, opts ...Option) (*Coordinator, error) {
	if lease == nil {
		return nil, ErrNilLease
	}

	c := &Coordinator{
		lease:    lease,
		logger:   slog.Default(),
		lastRole: RoleFollower,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Tick 执行一拍主备循环并返回本拍角色。
//
// 续期失败不致命：xlease 内部已把信念校准到 KV 实情，
// 下一拍会自然转入竞争获取。
func (c *Coordinator) Tick(ctx context.Context, nowMs int64) Role {
	if c.lease.BelievedLeader() {
		c.lease.Renew(ctx, nowMs)
	} else {
		c.lease.TryAcquire(ctx, nowMs)
	}
	return c.observe(ctx)
}

// Role 返回当前权威角色，不尝试获取或续期。
// 观察到的角色变化同样会触发日志与回调。
func (c *Coordinator) Role(ctx context.Context) Role {
	return c.observe(ctx)
}

// Lease 返回底层租约，供诊断与指标访问
func (c *Coordinator) Lease() *xlease.Lease {
	return c.lease
}

// observe 做权威判定并在角色变化时记录一次转换
func (c *Coordinator) observe(ctx context.Context) Role {
	role := RoleFollower
	if c.lease.IsLeader(ctx) {
		role = RoleLeader
	}

	if role != c.lastRole {
		from := c.lastRole
		c.lastRole = role
		c.logger.Info("role_transition",
			slog.String("from", string(from)),
			slog.String("to", string(role)),
			slog.String("holder", c.lease.HolderID()),
		)
		c.fireRoleChange(from, role)
	}
	return role
}

// fireRoleChange 吞掉回调 panic，观测不回伤业务
func (c *Coordinator) fireRoleChange(from, to Role) {
	if c.onRoleChange == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	c.onRoleChange(from, to)
}
