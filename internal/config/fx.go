package config

import (
	"errors"

	"go.uber.org/fx"
)

var ErrMissingWebhookSecret = errors.New("missing_webhook_secret")

var Module = fx.Module("config",
	fx.Provide(Load),
)
