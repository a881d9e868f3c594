package pdf

import (
	"github.com/smallbiznis/storefront/internal/config"
	"go.uber.org/fx"
)

const defaultStoreName = "Storefront"

type Config struct {
	StoreName string
}

func configFrom(cfg config.Config) Config {
	return Config{StoreName: cfg.AppName}
}

var Module = fx.Module("providers.pdf",
	fx.Provide(configFrom),
	fx.Provide(New),
)
