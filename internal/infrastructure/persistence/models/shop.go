package models

import (
	"fmt"

	"github.com/erp/orderstats/internal/domain/shop"
	"github.com/google/uuid"
)

// CustomerModel is the persistence model for a customer.
// Position keeps the dataset traversal order stable across loads.
type CustomerModel struct {
	BaseModel
	Position int          `gorm:"not null;index"`
	Email    string       `gorm:"type:varchar(320);not null;index"`
	Country  string       `gorm:"type:varchar(100);not null;index"`
	City     string       `gorm:"type:varchar(100)"`
	Detail   string       `gorm:"type:varchar(255)"`
	Orders   []OrderModel `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// OrderModel is the persistence model for an order.
type OrderModel struct {
	BaseModel
	CustomerID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Position   int              `gorm:"not null"`
	CardType   string           `gorm:"type:varchar(20);not null;index"`
	CardNumber string           `gorm:"type:varchar(64);not null;index"`
	Items      []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is the persistence model for an order line.
type OrderItemModel struct {
	BaseModel
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Position    int       `gorm:"not null"`
	ProductName string    `gorm:"type:varchar(200);not null"`
	Price       Price     `gorm:"not null"`
	Color       string    `gorm:"type:varchar(20);not null"`
	Quantity    int       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// CustomerModelFromDomain maps a customer and its orders to persistence models.
func CustomerModelFromDomain(c *shop.Customer, position int) *CustomerModel {
	m := &CustomerModel{
		BaseModel: BaseModel{ID: c.ID()},
		Position:  position,
		Email:     c.Email(),
		Country:   c.Address().Country(),
		City:      c.Address().City(),
		Detail:    c.Address().Detail(),
	}
	for i, o := range c.Orders() {
		om := OrderModel{
			BaseModel:  BaseModel{ID: o.ID()},
			CustomerID: c.ID(),
			Position:   i,
			CardType:   o.PaymentInfo().CardType().String(),
			CardNumber: o.PaymentInfo().CardNumber(),
		}
		for j, it := range o.Items() {
			om.Items = append(om.Items, OrderItemModel{
				BaseModel:   BaseModel{ID: uuid.New()},
				OrderID:     o.ID(),
				Position:    j,
				ProductName: it.Product().Name(),
				Price:       NewPrice(it.Product().Price()),
				Color:       it.Product().Color().String(),
				Quantity:    it.Quantity(),
			})
		}
		m.Orders = append(m.Orders, om)
	}
	return m
}

// ToDomain converts the model, with preloaded orders and items, to a domain customer.
func (m *CustomerModel) ToDomain() (*shop.Customer, error) {
	address, err := shop.NewAddress(m.Country, shop.WithCity(m.City), shop.WithDetail(m.Detail))
	if err != nil {
		return nil, err
	}

	orders := make([]*shop.Order, 0, len(m.Orders))
	for i := range m.Orders {
		o, err := m.Orders[i].ToDomain()
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", m.Orders[i].ID, err)
		}
		orders = append(orders, o)
	}
	return shop.NewCustomerWithID(m.ID, m.Email, address, orders...)
}

// ToDomain converts the model and its preloaded items to a domain order.
func (m *OrderModel) ToDomain() (*shop.Order, error) {
	cardType, err := shop.ParseCardType(m.CardType)
	if err != nil {
		return nil, err
	}
	payment, err := shop.NewPaymentInfo(cardType, m.CardNumber)
	if err != nil {
		return nil, err
	}

	items := make([]shop.OrderItem, 0, len(m.Items))
	for _, im := range m.Items {
		color, err := shop.ParseColor(im.Color)
		if err != nil {
			return nil, err
		}
		product, err := shop.NewProduct(im.ProductName, im.Price.Decimal, color)
		if err != nil {
			return nil, err
		}
		item, err := shop.NewOrderItem(product, im.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return shop.NewOrderWithID(m.ID, payment, items...), nil
}
