package integration

import (
	"context"

	"github.com/erp/orderstats/internal/domain/shop"
)

type staticSource []*shop.Customer

func (s staticSource) LoadCustomers(context.Context) ([]*shop.Customer, error) {
	return s, nil
}
