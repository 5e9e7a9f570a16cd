package supplier

import (
	"go.uber.org/fx"

	"github.com/facturio/facturio/internal/supplier/repository"
	"github.com/facturio/facturio/internal/supplier/service"
)

var Module = fx.Module("supplier.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
