package shop

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"

	"github.com/erp/orderstats/internal/domain/shared"
	"github.com/google/uuid"
)

// Customer is a read-only record of a shop customer and the orders they placed
type Customer struct {
	id      uuid.UUID
	email   string
	address Address
	orders  []*Order
}

// NewCustomer creates a new Customer with a generated ID
func NewCustomer(email string, address Address, orders ...*Order) (*Customer, error) {
	return NewCustomerWithID(uuid.New(), email, address, orders...)
}

// NewCustomerWithID creates a new Customer with a known ID
func NewCustomerWithID(id uuid.UUID, email string, address Address, orders ...*Order) (*Customer, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: customer email cannot be empty", shared.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid customer email %q", shared.ErrInvalidInput, email)
	}
	if address.Country() == "" {
		return nil, fmt.Errorf("%w: customer address must have a country", shared.ErrInvalidInput)
	}
	for i, o := range orders {
		if o == nil {
			return nil, fmt.Errorf("%w: order %d is nil", shared.ErrInvalidInput, i)
		}
	}
	return &Customer{
		id:      id,
		email:   email,
		address: address,
		orders:  slices.Clone(orders),
	}, nil
}

// MustNewCustomer creates a new Customer, panics on error
func MustNewCustomer(email string, address Address, orders ...*Order) *Customer {
	c, err := NewCustomer(email, address, orders...)
	if err != nil {
		panic(err)
	}
	return c
}

// ID returns the customer ID
func (c *Customer) ID() uuid.UUID {
	return c.id
}

// Email returns the customer email
func (c *Customer) Email() string {
	return c.email
}

// Address returns the customer address
func (c *Customer) Address() Address {
	return c.address
}

// Orders returns a copy of the customer's orders in placement order
func (c *Customer) Orders() []*Order {
	return slices.Clone(c.orders)
}
