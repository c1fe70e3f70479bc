// Package testutil provides shared fixtures and database doubles for tests
// that span more than one package.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/orderstats/internal/domain/shop"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a postgres-dialect GORM handle backed by sqlmock.
// The connection is closed on test cleanup.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err, "Failed to open GORM connection")

	t.Cleanup(func() { _ = mockDB.Close() })

	return &MockDB{
		DB:    gormDB,
		Mock:  mock,
		SqlDB: mockDB,
	}
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	err := m.Mock.ExpectationsWereMet()
	require.NoError(t, err, "Unmet database expectations")
}

// NewTestUUID generates a deterministic UUID for testing.
// Uses the provided seed string to create a reproducible UUID.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// Item builds an order item for a product named after its price.
func Item(price string, color shop.Color, qty int) shop.OrderItem {
	return shop.MustNewOrderItem(shop.MustNewProduct("p-"+price, decimal.RequireFromString(price), color), qty)
}

// Order builds an order paid with the given card.
func Order(cardType shop.CardType, card string, items ...shop.OrderItem) *shop.Order {
	return shop.NewOrder(shop.MustNewPaymentInfo(cardType, card), items...)
}

// Customer builds a customer with a stable ID derived from email and country.
func Customer(email, country string, orders ...*shop.Order) *shop.Customer {
	c, err := shop.NewCustomerWithID(NewTestUUID(email+"/"+country), email, shop.MustNewAddress(country), orders...)
	if err != nil {
		panic(err)
	}
	return c
}

// SampleCustomers returns four customers with five orders:
//
//	ann  USA   VISA 4111 [RED 100 x1]            MASTERCARD 5500 [BLUE 10 x3]
//	bob  USA   VISA 4111 [RED 200.50 x2, GREEN 1 x1]
//	cat  Chad  VISA 4222 [RED 5 x1]
//	ann  Peru  AMEX 3700 []
//
// Card 4111 averages 125.50; USA is the most popular country.
func SampleCustomers() []*shop.Customer {
	return []*shop.Customer{
		Customer("ann@example.com", "USA",
			Order(shop.CardTypeVisa, "4111", Item("100", shop.ColorRed, 1)),
			Order(shop.CardTypeMasterCard, "5500", Item("10", shop.ColorBlue, 3)),
		),
		Customer("bob@example.com", "USA",
			Order(shop.CardTypeVisa, "4111", Item("200.50", shop.ColorRed, 2), Item("1", shop.ColorGreen, 1)),
		),
		Customer("cat@example.com", "Chad",
			Order(shop.CardTypeVisa, "4222", Item("5", shop.ColorRed, 1)),
		),
		Customer("ann@example.com", "Peru",
			Order(shop.CardTypeAmex, "3700"),
		),
	}
}
