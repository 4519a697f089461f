package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	// ErrCardDeclined is a processor-level rejection; the workflow
	// recovers from it, so it is distinct from the fatal lookup errors.
	ErrCardDeclined              = errors.New("card_declined")
	ErrPaymentNotFound           = errors.New("payment_not_found")
	ErrProcessorCustomerNotFound = errors.New("processor_customer_not_found")
	ErrPaymentMethodNotFound     = errors.New("payment_method_not_found")
)

// Payment records one successful provider charge. Rows are immutable;
// declined charges produce none.
type Payment struct {
	ID                  snowflake.ID `json:"id" gorm:"primaryKey"`
	AccountID           snowflake.ID `json:"account_id" gorm:"not null;index"`
	ProductID           snowflake.ID `json:"product_id" gorm:"not null"`
	Processor           string       `json:"processor" gorm:"type:text;not null"`
	ProcessorCustomerID string       `json:"processor_customer_id" gorm:"type:text;not null"`
	ProcessorStatus     string       `json:"processor_status" gorm:"type:text;not null"`
	Amount              int64        `json:"amount" gorm:"not null"`
	Currency            string       `json:"currency" gorm:"type:text;not null"`
	CreatedAt           time.Time    `json:"created_at" gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindLastByAccountID(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*Payment, error)
}

type ChargeRequest struct {
	CustomerID      string
	PaymentMethodID string
	// Amount is in minor currency units.
	Amount         int64
	Currency       string
	IdempotencyKey string
}

type ChargeResult struct {
	ProviderPaymentID string
	Status            string
}

// ProcessorClient submits one charge to the payment provider. A declined
// card surfaces as ErrCardDeclined; implementations never retry.
type ProcessorClient interface {
	Processor() string
	CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// Charger performs the single, non-duplicating charge attempt for one
// renewal cycle and persists the resulting payment.
type Charger interface {
	Charge(ctx context.Context, accountID, cycleID snowflake.ID) (*Payment, error)
}
