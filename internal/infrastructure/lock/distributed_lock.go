// Package lock Redis 互斥锁
//
// SET key owner NX EX ttl 抢锁，owner 用于释放时确认锁仍属于自己；
// 释放用 Lua 脚本把"比较 owner"和"删除"合成一步
package lock

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrLockFailed = errors.New("获取分布式锁失败")

const provisionLockTTL = 10 * time.Second

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type DistributedLock struct {
	client *redis.Client
	key    string
	owner  string
	ttl    time.Duration
}

func NewDistributedLock(client *redis.Client, key, owner string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{client: client, key: key, owner: owner, ttl: ttl}
}

// NewProvisionLock 新用户开户锁，同一 uid 同一时刻只有一个实例在开户
func NewProvisionLock(client *redis.Client, userID, owner string) *DistributedLock {
	return NewDistributedLock(client, "provision:lock:user:"+userID, owner, provisionLockTTL)
}

// TryLock 非阻塞
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
}

// Lock 抢不到时每隔 retryInterval 再试，共尝试 attempts 次
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, attempts int) error {
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for i := 0; i < attempts; i++ {
		acquired, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if acquired {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return ErrLockFailed
}

// Unlock 返回 false 表示锁已过期或已被别人持有，此时不会删除任何东西
func (l *DistributedLock) Unlock(ctx context.Context) (bool, error) {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// WithLock 持锁执行 fn
// 请求被取消时也要释放锁，所以释放使用脱离取消信号的 ctx
func (l *DistributedLock) WithLock(ctx context.Context, retryInterval time.Duration, attempts int, fn func() error) error {
	if err := l.Lock(ctx, retryInterval, attempts); err != nil {
		return fmt.Errorf("获取锁 %s 失败: %w", l.key, err)
	}

	defer func() {
		released, err := l.Unlock(context.WithoutCancel(ctx))
		switch {
		case err != nil:
			log.Printf("[Lock] 释放锁失败: key=%s, err=%v", l.key, err)
		case !released:
			log.Printf("[Lock] 锁在业务完成前已过期: key=%s", l.key)
		}
	}()

	return fn()
}
