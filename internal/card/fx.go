package card

import (
	"github.com/smallbiznis/giftway/internal/card/service"
	"go.uber.org/fx"
)

var Module = fx.Module("card.service",
	fx.Provide(service.NewService),
)
