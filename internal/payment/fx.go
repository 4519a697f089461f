package payment

import (
	"go.uber.org/fx"

	"github.com/contenivelabs/renewal/internal/config"
	paymentdomain "github.com/contenivelabs/renewal/internal/payment/domain"
	"github.com/contenivelabs/renewal/internal/payment/repository"
	"github.com/contenivelabs/renewal/internal/payment/service"
	"github.com/contenivelabs/renewal/internal/payment/stripe"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config) paymentdomain.ProcessorClient {
		return stripe.NewClient(cfg.Stripe.APIKey, cfg.Stripe.BaseURL)
	}),
	fx.Provide(service.NewCharger),
)
