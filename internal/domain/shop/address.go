package shop

import (
	"fmt"
	"strings"

	"github.com/erp/orderstats/internal/domain/shared"
)

// Address is a value object representing a customer address.
// Only the country takes part in aggregation.
type Address struct {
	country string
	city    string
	detail  string
}

// AddressOption is a functional option for configuring Address
type AddressOption func(*Address)

// WithCity sets the city for the address
func WithCity(city string) AddressOption {
	return func(a *Address) {
		a.city = strings.TrimSpace(city)
	}
}

// WithDetail sets the street level detail for the address
func WithDetail(detail string) AddressOption {
	return func(a *Address) {
		a.detail = strings.TrimSpace(detail)
	}
}

// NewAddress creates a new Address; country is required
func NewAddress(country string, opts ...AddressOption) (Address, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return Address{}, fmt.Errorf("%w: country cannot be empty", shared.ErrInvalidInput)
	}
	if len(country) > 100 {
		return Address{}, fmt.Errorf("%w: country cannot exceed 100 characters", shared.ErrInvalidInput)
	}

	addr := Address{country: country}
	for _, opt := range opts {
		opt(&addr)
	}
	return addr, nil
}

// MustNewAddress creates a new Address, panics on error
func MustNewAddress(country string, opts ...AddressOption) Address {
	addr, err := NewAddress(country, opts...)
	if err != nil {
		panic(err)
	}
	return addr
}

// Country returns the country name
func (a Address) Country() string {
	return a.country
}

// City returns the city
func (a Address) City() string {
	return a.city
}

// Detail returns the street level detail
func (a Address) Detail() string {
	return a.detail
}

// String returns a single line representation of the address
func (a Address) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.detail, a.city, a.country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
