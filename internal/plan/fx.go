package plan

import (
	"go.uber.org/fx"

	"github.com/contenivelabs/renewal/internal/plan/repository"
	"github.com/contenivelabs/renewal/internal/plan/service"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
