package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "sommelier:"

type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// ReplyCache 基于 Redis 的回复缓存，nil 值表示禁用
type ReplyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New 连接 Redis，失败时返回错误由调用方决定是否禁用缓存
func New(ctx context.Context, opts Options) (*ReplyCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}

	slog.Info("redis connected", "addr", opts.Addr, "db", opts.DB, "ttl", opts.TTL)
	return NewWithClient(client, opts.TTL), nil
}

func NewWithClient(client *redis.Client, ttl time.Duration) *ReplyCache {
	return &ReplyCache{client: client, ttl: ttl}
}

// Key 对请求做 JSON 规范化后取 SHA-256
func Key(namespace string, request any) string {
	data, err := json.Marshal(request)
	if err != nil {
		data = fmt.Appendf(nil, "%v", request)
	}
	sum := sha256.Sum256(data)
	return keyPrefix + namespace + ":" + hex.EncodeToString(sum[:])
}

// Get 命中时解码到 dest 并返回 true
func (c *ReplyCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), dest); err != nil {
		return false, fmt.Errorf("cache unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (c *ReplyCache) Set(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *ReplyCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
