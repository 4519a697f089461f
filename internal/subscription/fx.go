package subscription

import (
	"go.uber.org/fx"

	"github.com/contenivelabs/renewal/internal/subscription/repository"
	"github.com/contenivelabs/renewal/internal/subscription/service"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
