package account

import (
	"go.uber.org/fx"

	"github.com/contenivelabs/renewal/internal/account/repository"
)

var Module = fx.Module("account",
	fx.Provide(repository.Provide),
)
