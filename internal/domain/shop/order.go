package shop

import (
	"fmt"
	"slices"

	"github.com/erp/orderstats/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a line of an order: a product and the number of units bought
type OrderItem struct {
	product  Product
	quantity int
}

// NewOrderItem creates a new OrderItem; quantity must be at least 1
func NewOrderItem(product Product, quantity int) (OrderItem, error) {
	if quantity < 1 {
		return OrderItem{}, fmt.Errorf("%w: item quantity must be at least 1, got %d", shared.ErrInvalidInput, quantity)
	}
	return OrderItem{product: product, quantity: quantity}, nil
}

// MustNewOrderItem creates a new OrderItem, panics on error
func MustNewOrderItem(product Product, quantity int) OrderItem {
	item, err := NewOrderItem(product, quantity)
	if err != nil {
		panic(err)
	}
	return item
}

// Product returns the product of the line
func (i OrderItem) Product() Product {
	return i.product
}

// Quantity returns the number of units
func (i OrderItem) Quantity() int {
	return i.quantity
}

// Amount returns price x quantity
func (i OrderItem) Amount() decimal.Decimal {
	return i.product.Price().Mul(decimal.NewFromInt(int64(i.quantity)))
}

// Order is a read-only record of a paid order
type Order struct {
	id          uuid.UUID
	paymentInfo PaymentInfo
	items       []OrderItem
}

// NewOrder creates a new Order with a generated ID
func NewOrder(paymentInfo PaymentInfo, items ...OrderItem) *Order {
	return NewOrderWithID(uuid.New(), paymentInfo, items...)
}

// NewOrderWithID creates a new Order with a known ID (used when loading stored orders)
func NewOrderWithID(id uuid.UUID, paymentInfo PaymentInfo, items ...OrderItem) *Order {
	return &Order{
		id:          id,
		paymentInfo: paymentInfo,
		items:       slices.Clone(items),
	}
}

// ID returns the order ID
func (o *Order) ID() uuid.UUID {
	return o.id
}

// PaymentInfo returns the payment used for the order
func (o *Order) PaymentInfo() PaymentInfo {
	return o.paymentInfo
}

// Items returns a copy of the order lines
func (o *Order) Items() []OrderItem {
	return slices.Clone(o.items)
}

// ItemCount returns the number of lines (not units)
func (o *Order) ItemCount() int {
	return len(o.items)
}
