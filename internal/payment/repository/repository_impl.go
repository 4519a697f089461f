package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	paymentdomain "github.com/contenivelabs/renewal/internal/payment/domain"
)

type repo struct{}

func Provide() paymentdomain.Repository {
	return &repo{}
}

const paymentColumns = `id, account_id, product_id, processor, processor_customer_id, processor_status, amount, currency, created_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *paymentdomain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.AccountID,
		p.ProductID,
		p.Processor,
		p.ProcessorCustomerID,
		p.ProcessorStatus,
		p.Amount,
		p.Currency,
		p.CreatedAt,
	).Error
}

func (r *repo) FindLastByAccountID(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*paymentdomain.Payment, error) {
	var p paymentdomain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments
		 WHERE account_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		accountID,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}
