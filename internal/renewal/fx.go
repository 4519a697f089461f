package renewal

import (
	"go.uber.org/fx"

	"github.com/contenivelabs/renewal/internal/renewal/service"
)

var Module = fx.Module("renewal.service",
	fx.Provide(service.NewMetrics),
	fx.Provide(service.NewService),
)
