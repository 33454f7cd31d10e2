package cache

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend 多实例共享的缓存；过期交给 Redis 的 TTL
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// RedisOptions Redis 连接参数
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	Prefix      string
	DialTimeout time.Duration
}

// NewRedisBackend 创建 Redis 后端（不主动连接）
func NewRedisBackend(opts RedisOptions) *RedisBackend {
	if opts.Prefix == "" {
		opts.Prefix = "docforge:id:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})
	log.Printf("[INFO] redis cache backend: %s", opts.Addr)
	return &RedisBackend{client: client, prefix: opts.Prefix}
}

// Load 读取；redis.Nil 视为未命中
func (r *RedisBackend) Load(ctx context.Context, key string, _ time.Time) (string, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Store SET key value EX ttl
func (r *RedisBackend) Store(ctx context.Context, key, value string, _ time.Time, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}

// Close 关闭连接池
func (r *RedisBackend) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
