package tax

import (
	"go.uber.org/fx"

	"github.com/facturio/facturio/internal/tax/repository"
	"github.com/facturio/facturio/internal/tax/service"
)

var Module = fx.Module("tax.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewSnapshotProvider),
	fx.Provide(service.NewService),
)
