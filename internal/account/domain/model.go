package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound = errors.New("account_not_found")
)

// OptionAutorenew controls whether an expired plan is renewed by charging
// the account's payment method.
const OptionAutorenew = "autorenew"

type Account struct {
	ID                     snowflake.ID `json:"id" gorm:"primaryKey"`
	Email                  string       `json:"email" gorm:"type:text;not null"`
	Currency               string       `json:"currency" gorm:"type:text;not null;default:usd"`
	ProcessorCustomerID    string       `json:"processor_customer_id" gorm:"type:text;not null;default:''"`
	DefaultPaymentMethodID string       `json:"default_payment_method_id" gorm:"type:text;not null;default:''"`
	CreatedAt              time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt              time.Time    `json:"updated_at" gorm:"not null"`
}

func (Account) TableName() string { return "accounts" }

type AccountOption struct {
	AccountID snowflake.ID `json:"account_id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"primaryKey;type:text"`
	Value     string       `json:"value" gorm:"type:text;not null"`
}

func (AccountOption) TableName() string { return "account_options" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *Account) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Account, error)
	SetOption(ctx context.Context, db *gorm.DB, accountID snowflake.ID, name, value string) error
	// AutorenewEnabled reads the autorenew option and normalizes it to a
	// bool at this boundary; a missing option means disabled.
	AutorenewEnabled(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (bool, error)
}
