package scanlog

import (
	"github.com/smallbiznis/giftway/internal/scanlog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("scanlog.service",
	fx.Provide(service.NewService),
)
