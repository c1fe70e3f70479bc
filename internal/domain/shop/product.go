package shop

import (
	"fmt"

	"github.com/erp/orderstats/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is a value object describing a sellable product.
// It is immutable.
type Product struct {
	name  string
	price decimal.Decimal
	color Color
}

// NewProduct creates a new Product.
// Price must be non-negative and color must be a known enumerant.
func NewProduct(name string, price decimal.Decimal, color Color) (Product, error) {
	if price.IsNegative() {
		return Product{}, fmt.Errorf("%w: product price cannot be negative", shared.ErrInvalidInput)
	}
	if !color.IsValid() {
		return Product{}, fmt.Errorf("%w: invalid product color %q", shared.ErrInvalidInput, color)
	}
	return Product{name: name, price: price, color: color}, nil
}

// MustNewProduct creates a new Product, panics on error
func MustNewProduct(name string, price decimal.Decimal, color Color) Product {
	p, err := NewProduct(name, price, color)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the product name
func (p Product) Name() string {
	return p.name
}

// Price returns the unit price
func (p Product) Price() decimal.Decimal {
	return p.price
}

// Color returns the product color
func (p Product) Color() Color {
	return p.color
}
