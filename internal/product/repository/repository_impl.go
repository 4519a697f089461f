package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	productdomain "github.com/contenivelabs/renewal/internal/product/domain"
)

type repo struct{}

func Provide() productdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *productdomain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (id, name, prices, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID,
		p.Name,
		p.Prices,
		p.CreatedAt,
		p.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*productdomain.Product, error) {
	var p productdomain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, prices, created_at, updated_at FROM products WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}
