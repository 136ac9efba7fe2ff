// @title           Giftway API
// @version         1.0
// @description     Gift card issuance, redemption, and billing back office
// @BasePath  /v1
// @Schemes 	http https

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/giftway/internal/activation"
	"github.com/smallbiznis/giftway/internal/auth"
	"github.com/smallbiznis/giftway/internal/cache"
	"github.com/smallbiznis/giftway/internal/card"
	"github.com/smallbiznis/giftway/internal/catalog"
	"github.com/smallbiznis/giftway/internal/clock"
	"github.com/smallbiznis/giftway/internal/company"
	"github.com/smallbiznis/giftway/internal/config"
	"github.com/smallbiznis/giftway/internal/events"
	"github.com/smallbiznis/giftway/internal/invoice"
	"github.com/smallbiznis/giftway/internal/migration"
	"github.com/smallbiznis/giftway/internal/observability"
	"github.com/smallbiznis/giftway/internal/redemption"
	"github.com/smallbiznis/giftway/internal/reporting"
	"github.com/smallbiznis/giftway/internal/scanlog"
	"github.com/smallbiznis/giftway/internal/scheduler"
	"github.com/smallbiznis/giftway/internal/seed"
	"github.com/smallbiznis/giftway/internal/server"
	"github.com/smallbiznis/giftway/internal/store"
	"github.com/smallbiznis/giftway/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		cache.Module,
		fx.Provide(events.NewOutbox),

		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if cfg.Bootstrap.EnsureDefaultCompanyAndAdmin {
				return seed.EnsureDefaultCompanyAndAdmin(conn)
			}
			return nil
		}),

		auth.Module,
		company.Module,
		store.Module,
		catalog.Module,
		card.Module,
		scanlog.Module,
		redemption.Module,
		activation.Module,
		invoice.Module,
		reporting.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
