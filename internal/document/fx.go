package document

import (
	"go.uber.org/fx"

	"github.com/facturio/facturio/internal/document/repository"
	"github.com/facturio/facturio/internal/document/service"
)

var Module = fx.Module("document.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
