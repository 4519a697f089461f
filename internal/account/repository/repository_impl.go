package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	accountdomain "github.com/contenivelabs/renewal/internal/account/domain"
)

type repo struct{}

func Provide() accountdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, a *accountdomain.Account) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO accounts (
			id, email, currency, processor_customer_id, default_payment_method_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Email,
		a.Currency,
		a.ProcessorCustomerID,
		a.DefaultPaymentMethodID,
		a.CreatedAt,
		a.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*accountdomain.Account, error) {
	var a accountdomain.Account
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, currency, processor_customer_id, default_payment_method_id, created_at, updated_at
		 FROM accounts WHERE id = ?`,
		id,
	).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == 0 {
		return nil, nil
	}
	return &a, nil
}

func (r *repo) SetOption(ctx context.Context, db *gorm.DB, accountID snowflake.ID, name, value string) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO account_options (account_id, name, value) VALUES (?, ?, ?)
		 ON CONFLICT (account_id, name) DO UPDATE SET value = excluded.value`,
		accountID,
		name,
		value,
	).Error
}

func (r *repo) AutorenewEnabled(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (bool, error) {
	var value string
	err := db.WithContext(ctx).Raw(
		`SELECT value FROM account_options WHERE account_id = ? AND name = ?`,
		accountID,
		accountdomain.OptionAutorenew,
	).Scan(&value).Error
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true, nil
	default:
		return false, nil
	}
}
