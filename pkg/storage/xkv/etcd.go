package xkv

import (
	"context"
	"fmt"
	"math"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// etcdOps 定义 Etcd 存储需要的 etcd 操作子集，用于依赖注入和测试。
// 接口方法与 clientv3 保持一致。
type etcdOps interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
	Txn(ctx context.Context) clientv3.Txn
	Delete(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error)
	Grant(ctx context.Context, ttl int64) (*clientv3.LeaseGrantResponse, error)
	Revoke(ctx context.Context, id clientv3.LeaseID) (*clientv3.LeaseRevokeResponse, error)
}

// 确保 *clientv3.Client 实现 etcdOps 接口（编译时检查）
var _ etcdOps = (*clientv3.Client)(nil)

// Etcd 基于 etcd 的 Store 实现。
//
// etcd 没有毫秒级 TTL 与服务端时间查询，映射规则如下：
//   - SetNX: create-revision=0 事务守卫 + 租约写入，TTL 向上取整到秒
//   - PExpire: 重新授予租约并以 mod-revision 守卫重写原值
//   - NowMs: 使用注入的 Clock
//
// 设计决策: TTL 向上取整（ceil）确保键不会比调用方预期更早过期，
// 秒级粒度的误差由调用方的续期节奏吸收。
type Etcd struct {
	client etcdOps
	clock  Clock
}

var _ Store = (*Etcd)(nil)

// NewEtcd 创建 etcd 存储。
// client 必须是已初始化的 *clientv3.Client，生命周期由调用者管理。
// clock 为 nil 时使用系统时钟。
func NewEtcd(client *clientv3.Client, clock Clock) (*Etcd, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Etcd{client: client, clock: clock}, nil
}

// SetNX 在键不存在时写入。
// 以 create-revision=0 作为"不存在"守卫，存在性竞争由 etcd 事务仲裁。
func (e *Etcd) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	put := clientv3.OpPut(key, value)
	var leaseID clientv3.LeaseID
	if ttl > 0 {
		lease, err := e.client.Grant(ctx, ceilSeconds(ttl))
		if err != nil {
			return false, fmt.Errorf("xkv: grant lease: %w", err)
		}
		leaseID = lease.ID
		put = clientv3.OpPut(key, value, clientv3.WithLease(leaseID))
	}

	resp, err := e.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(put).
		Commit()
	if err != nil {
		e.tryRevokeLease(leaseID)
		return false, fmt.Errorf("xkv: setnx %q: %w", key, err)
	}
	if !resp.Succeeded {
		// 键已存在，撤销刚授予的租约避免泄漏
		e.tryRevokeLease(leaseID)
		return false, nil
	}
	return true, nil
}

// PExpire 重设已存在键的存活时间。
// etcd 的租约无法原地改期，采用重新授予租约并重写原值的方式；
// 以 mod-revision 守卫确保不覆盖并发修改。
func (e *Etcd) PExpire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	if ttl <= 0 {
		if err := e.Del(ctx, key); err != nil {
			return false, err
		}
		return true, nil
	}

	cur, err := e.client.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("xkv: pexpire get %q: %w", key, err)
	}
	if len(cur.Kvs) == 0 {
		return false, nil
	}
	kv := cur.Kvs[0]

	lease, err := e.client.Grant(ctx, ceilSeconds(ttl))
	if err != nil {
		return false, fmt.Errorf("xkv: grant lease: %w", err)
	}

	resp, err := e.client.Txn(ctx).
		If(clientv3.Compare(clientv3.ModRevision(key), "=", kv.ModRevision)).
		Then(clientv3.OpPut(key, string(kv.Value), clientv3.WithLease(lease.ID))).
		Commit()
	if err != nil {
		e.tryRevokeLease(lease.ID)
		return false, fmt.Errorf("xkv: pexpire %q: %w", key, err)
	}
	if !resp.Succeeded {
		// 键在读写之间被修改或删除，视为续期失败
		e.tryRevokeLease(lease.ID)
		return false, nil
	}
	return true, nil
}

// Get 读取键值。
func (e *Etcd) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	resp, err := e.client.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("xkv: get %q: %w", key, err)
	}
	if len(resp.Kvs) == 0 {
		return "", ErrKeyNotFound
	}
	return string(resp.Kvs[0].Value), nil
}

// Del 删除键，键不存在时不报错。
func (e *Etcd) Del(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if _, err := e.client.Delete(ctx, key); err != nil {
		return fmt.Errorf("xkv: delete %q: %w", key, err)
	}
	return nil
}

// NowMs 返回注入时钟的当前毫秒时间戳。
// etcd 没有服务端时间查询接口，时间源由部署方保证一致。
func (e *Etcd) NowMs(_ context.Context) (int64, error) {
	return e.clock.NowMs(), nil
}

// ceilSeconds 将时长向上取整为秒数，最小 1 秒。
func ceilSeconds(d time.Duration) int64 {
	sec := int64(math.Ceil(d.Seconds()))
	if sec < 1 {
		sec = 1
	}
	return sec
}

// revokeLeaseTimeout 租约撤销的超时时间。
// 撤销仅是 best-effort 清理，租约最终会自动过期，不应阻塞调用方。
const revokeLeaseTimeout = 3 * time.Second

// tryRevokeLease 尝试撤销租约，失败时静默处理。
// 使用独立的带超时 context，确保即使原 context 已取消也能执行。
func (e *Etcd) tryRevokeLease(leaseID clientv3.LeaseID) {
	if leaseID == clientv3.NoLease {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), revokeLeaseTimeout)
	defer cancel()
	if _, err := e.client.Revoke(ctx, leaseID); err != nil {
		// 租约会自动过期，撤销失败不影响主流程
		return
	}
}
