package redemption

import (
	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/giftway/internal/cache"
	"github.com/smallbiznis/giftway/internal/config"
	"github.com/smallbiznis/giftway/internal/redemption/matrix"
	"github.com/smallbiznis/giftway/internal/redemption/service"
	storedomain "github.com/smallbiznis/giftway/internal/store/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("redemption.service",
	fx.Provide(NewMatrixClient),
	fx.Provide(NewStoreCache),
	fx.Provide(service.NewService),
)

// NewMatrixClient picks the stub in non-production setups without an
// upstream endpoint configured.
func NewMatrixClient(cfg config.Config, log *zap.Logger) matrix.Client {
	if cfg.MatrixStub || cfg.MatrixBaseURL == "" {
		if cfg.IsProduction() {
			log.Warn("matrix provider stubbed in production")
		}
		return matrix.NewStubClient()
	}
	return matrix.NewHTTPClient(cfg, log)
}

// NewStoreCache prefers redis so hot store lookups are shared across
// instances, falling back to the in-process TTL cache.
func NewStoreCache(client *redis.Client) cache.Cache[string, storedomain.Store] {
	if client != nil {
		return cache.NewRedisCache[storedomain.Store](client, "giftway:store:")
	}
	return cache.NewTTLCache[string, storedomain.Store]()
}
