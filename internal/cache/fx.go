package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/giftway/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides an optional redis client; consumers fall back to the
// in-memory TTLCache when no redis address is configured.
var Module = fx.Module("cache",
	fx.Provide(NewRedisClient),
)

// NewRedisClient returns nil when redis is not configured.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis unreachable, caching degrades to in-memory", zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}
