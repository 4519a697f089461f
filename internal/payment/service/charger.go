package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountdomain "github.com/contenivelabs/renewal/internal/account/domain"
	"github.com/contenivelabs/renewal/internal/clock"
	paymentdomain "github.com/contenivelabs/renewal/internal/payment/domain"
	productdomain "github.com/contenivelabs/renewal/internal/product/domain"
)

type Charger struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	repo        paymentdomain.Repository
	accountRepo accountdomain.Repository
	productRepo productdomain.Repository
	processor   paymentdomain.ProcessorClient
}

type ChargerParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock

	Repo        paymentdomain.Repository
	AccountRepo accountdomain.Repository
	ProductRepo productdomain.Repository
	Processor   paymentdomain.ProcessorClient
}

func NewCharger(p ChargerParam) paymentdomain.Charger {
	return &Charger{
		db:    p.DB,
		log:   p.Log.Named("payment.charger"),
		genID: p.GenID,
		clock: p.Clock,

		repo:        p.Repo,
		accountRepo: p.AccountRepo,
		productRepo: p.ProductRepo,
		processor:   p.Processor,
	}
}

// Charge resolves the renewal product from the account's last payment
// and submits exactly one charge for it. Missing lookup data is fatal:
// the caller must not settle the subscription over a data-integrity
// defect. A provider decline passes through as ErrCardDeclined.
func (c *Charger) Charge(ctx context.Context, accountID, cycleID snowflake.ID) (*paymentdomain.Payment, error) {
	account, err := c.accountRepo.FindByID(ctx, c.db, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, accountdomain.ErrAccountNotFound
	}

	lastPayment, err := c.repo.FindLastByAccountID(ctx, c.db, accountID)
	if err != nil {
		return nil, err
	}
	if lastPayment == nil {
		return nil, paymentdomain.ErrPaymentNotFound
	}

	product, err := c.productRepo.FindByID(ctx, c.db, lastPayment.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product %s", productdomain.ErrProductNotFound, lastPayment.ProductID)
	}

	currency := strings.ToLower(strings.TrimSpace(account.Currency))
	price, err := product.PriceFor(currency)
	if err != nil {
		return nil, fmt.Errorf("%w: product %s currency %s", err, product.ID, currency)
	}

	customerID := strings.TrimSpace(account.ProcessorCustomerID)
	if customerID == "" {
		return nil, fmt.Errorf("%w: account %s", paymentdomain.ErrProcessorCustomerNotFound, accountID)
	}

	methodID := strings.TrimSpace(account.DefaultPaymentMethodID)
	if methodID == "" {
		return nil, fmt.Errorf("%w: account %s", paymentdomain.ErrPaymentMethodNotFound, accountID)
	}

	amount := int64(math.Round(price * 100))

	result, err := c.processor.CreateCharge(ctx, paymentdomain.ChargeRequest{
		CustomerID:      customerID,
		PaymentMethodID: methodID,
		Amount:          amount,
		Currency:        currency,
		IdempotencyKey:  "plan_renewal:" + cycleID.String(),
	})
	if err != nil {
		return nil, err
	}

	payment := &paymentdomain.Payment{
		ID:                  c.genID.Generate(),
		AccountID:           accountID,
		ProductID:           product.ID,
		Processor:           c.processor.Processor(),
		ProcessorCustomerID: customerID,
		ProcessorStatus:     result.Status,
		Amount:              amount,
		Currency:            currency,
		CreatedAt:           c.clock.Now(ctx),
	}
	if err := c.repo.Insert(ctx, c.db, payment); err != nil {
		return nil, err
	}

	c.log.Info("renewal charge captured",
		zap.String("account_id", accountID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("provider_payment_id", result.ProviderPaymentID),
		zap.Int64("amount", amount),
		zap.String("currency", currency),
	)
	return payment, nil
}
