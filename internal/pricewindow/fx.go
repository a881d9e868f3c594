package pricewindow

import (
	"github.com/smallbiznis/storefront/internal/pricewindow/repository"
	"github.com/smallbiznis/storefront/internal/pricewindow/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricewindow.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
