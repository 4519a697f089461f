package domain

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product_not_found")
	ErrPriceNotFound   = errors.New("price_not_found")
)

// Product carries a per-currency price map; prices are keyed by lowercase
// ISO currency code and stored in major units.
type Product struct {
	ID        snowflake.ID      `json:"id" gorm:"primaryKey"`
	Name      string            `json:"name" gorm:"type:text;not null"`
	Prices    datatypes.JSONMap `json:"prices" gorm:"type:jsonb;not null"`
	CreatedAt time.Time         `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time         `json:"updated_at" gorm:"not null"`
}

func (Product) TableName() string { return "products" }

func (p *Product) PriceFor(currency string) (float64, error) {
	currency = strings.ToLower(strings.TrimSpace(currency))
	raw, ok := p.Prices[currency]
	if !ok {
		return 0, ErrPriceNotFound
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, ErrPriceNotFound
		}
		return parsed, nil
	default:
		return 0, ErrPriceNotFound
	}
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
}
