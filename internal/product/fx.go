package product

import (
	"go.uber.org/fx"

	"github.com/facturio/facturio/internal/product/repository"
	"github.com/facturio/facturio/internal/product/service"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
