package shop

import (
	"iter"
	"slices"
)

// Customers adapts a slice of customers to a sequence
func Customers(customers ...*Customer) iter.Seq[*Customer] {
	return slices.Values(customers)
}

// Orders adapts a slice of orders to a sequence
func Orders(orders ...*Order) iter.Seq[*Order] {
	return slices.Values(orders)
}

// AllOrders flattens the orders of every customer, customer by customer
func AllOrders(customers iter.Seq[*Customer]) iter.Seq[*Order] {
	return func(yield func(*Order) bool) {
		for c := range customers {
			for _, o := range c.orders {
				if !yield(o) {
					return
				}
			}
		}
	}
}
