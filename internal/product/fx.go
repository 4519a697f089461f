package product

import (
	"go.uber.org/fx"

	"github.com/contenivelabs/renewal/internal/product/repository"
)

var Module = fx.Module("product",
	fx.Provide(repository.Provide),
)
