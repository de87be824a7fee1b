package xkv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis 基于 go-redis 的 Store 实现。
// 四个操作直接映射 Redis 命令，时钟使用服务端 TIME 命令，
// 多个客户端因此共享同一时间源。
type Redis struct {
	client redis.UniversalClient
}

var _ Store = (*Redis)(nil)

// NewRedis 创建 Redis 存储。
// client 必须是已初始化的 redis.UniversalClient，生命周期由调用者管理。
func NewRedis(client redis.UniversalClient) (*Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &Redis{client: client}, nil
}

// SetNX 执行 SET key value NX PX ttl。
func (r *Redis) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	if ttl < 0 {
		ttl = 0
	}

	ok, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("xkv: setnx %q: %w", key, err)
	}
	return ok, nil
}

// PExpire 执行 PEXPIRE key ttl。
func (r *Redis) PExpire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	ok, err := r.client.PExpire(ctx, key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("xkv: pexpire %q: %w", key, err)
	}
	return ok, nil
}

// Get 执行 GET key，redis.Nil 映射为 ErrKeyNotFound。
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("xkv: get %q: %w", key, err)
	}
	return val, nil
}

// Del 执行 DEL key。
func (r *Redis) Del(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("xkv: del %q: %w", key, err)
	}
	return nil
}

// NowMs 通过 TIME 命令读取 Redis 服务端时间。
func (r *Redis) NowMs(ctx context.Context) (int64, error) {
	t, err := r.client.Time(ctx).Result()
	if err != nil {
		return 0, fmt.Errorf("xkv: time: %w", err)
	}
	return t.UnixMilli(), nil
}

// Client 返回底层的 redis.UniversalClient。
func (r *Redis) Client() redis.UniversalClient {
	return r.client
}
