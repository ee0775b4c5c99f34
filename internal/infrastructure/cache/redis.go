package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"shortscript/internal/config"

	"github.com/go-redis/redis/v8"
)

// Connect 建立 Redis 连接并 ping 一次
// 未启用时返回 (nil, nil)，开户时退化为只靠数据库主键去重
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opts := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}
	if cfg.TimeoutMillis > 0 {
		timeout := time.Duration(cfg.TimeoutMillis) * time.Millisecond
		opts.DialTimeout = timeout
		opts.ReadTimeout = timeout
		opts.WriteTimeout = timeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接 Redis %s 失败: %w", opts.Addr, err)
	}
	return client, nil
}

// InitRedis 启动时调用，连接失败直接退出
func InitRedis(cfg *config.RedisConfig) *redis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if client == nil {
		log.Println("Redis 未启用，开户不加分布式锁")
		return nil
	}

	log.Printf("Redis 连接成功: %s:%d", cfg.Host, cfg.Port)
	return client
}
