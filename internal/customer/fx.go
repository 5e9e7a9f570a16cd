package customer

import (
	"go.uber.org/fx"

	"github.com/facturio/facturio/internal/customer/repository"
	"github.com/facturio/facturio/internal/customer/service"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
