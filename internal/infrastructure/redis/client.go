package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/cinema-ticket-booking/internal/config"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
)

// NewClient はロック・座席キャッシュ・解放キューが共有するクライアントを作成する
// 接続は遅延して張られるため、起動時は Ping で疎通を確認すること
func NewClient(cfg *config.RedisConfig) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	return redis.NewClient(opts)
}

// Ping はRedis接続を確認する
func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return apperror.NewStorageError("redis.ping", err)
	}
	return nil
}
