package dataset

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erp/orderstats/internal/domain/shared"
	"github.com/erp/orderstats/internal/domain/shop"
	"github.com/erp/orderstats/internal/domain/stats"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleYAML = `customers:
  - id: 4f1c2a8e-1d3b-4c55-9a0e-0c7f6b1e2d3a
    email: ada@example.com
    address:
      country: USA
      city: Boston
    orders:
      - payment:
          card_type: visa
          card_number: "4111111111111111"
        items:
          - product: {name: Lamp, price: "10.00", color: RED}
            quantity: 2
          - product: {name: Mug, price: 25, color: blue}
            quantity: 1
  - email: bob@example.com
    address:
      country: Germany
    orders: []
`

const sampleJSON = `{"customers":[{"email":"cy@example.com","address":{"country":"Chad"},"orders":[
 {"payment":{"card_type":"MASTERCARD","card_number":"5500"},"items":[{"product":{"name":"Pen","price":"1.50","color":"BLACK"},"quantity":4}]}]}]}`

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"data.yaml", FormatYAML, false},
		{"data.YML", FormatYAML, false},
		{"/tmp/x/data.json", FormatJSON, false},
		{"data.csv", "", true},
		{"data", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeYAML(t *testing.T) {
	doc, err := DecodeBytes([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)
	require.Len(t, doc.Customers, 2)

	customers, err := doc.ToDomain()
	require.NoError(t, err)
	require.Len(t, customers, 2)

	ada := customers[0]
	assert.Equal(t, "4f1c2a8e-1d3b-4c55-9a0e-0c7f6b1e2d3a", ada.ID().String())
	assert.Equal(t, "USA", ada.Address().Country())
	assert.Equal(t, "Boston", ada.Address().City())
	require.Len(t, ada.Orders(), 1)

	order := ada.Orders()[0]
	assert.Equal(t, shop.CardTypeVisa, order.PaymentInfo().CardType())
	require.Len(t, order.Items(), 2)
	assert.True(t, decimal.NewFromInt(25).Equal(order.Items()[1].Product().Price()))
	assert.Equal(t, shop.ColorBlue, order.Items()[1].Product().Color())

	avg, err := stats.AveragePriceForCreditCard(shop.Customers(customers...), "4111111111111111")
	require.NoError(t, err)
	assert.Equal(t, "15", avg.String())

	assert.Empty(t, customers[1].Orders())
}

func TestDecodeJSON(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleJSON), FormatJSON)
	require.NoError(t, err)

	customers, err := doc.ToDomain()
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, shop.CardTypeMasterCard, customers[0].Orders()[0].PaymentInfo().CardType())
}

func TestDecode_EmptyYAML(t *testing.T) {
	doc, err := DecodeBytes(nil, FormatYAML)
	require.NoError(t, err)

	customers, err := doc.ToDomain()
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestDocumentValidation(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		errMsg string
	}{
		{
			name:   "missing email",
			doc:    `customers: [{address: {country: USA}}]`,
			errMsg: "email",
		},
		{
			name:   "bad email",
			doc:    `customers: [{email: nope, address: {country: USA}}]`,
			errMsg: "email",
		},
		{
			name:   "missing country",
			doc:    `customers: [{email: a@b.io, address: {}}]`,
			errMsg: "country",
		},
		{
			name:   "zero quantity",
			doc:    `customers: [{email: a@b.io, address: {country: USA}, orders: [{payment: {card_type: VISA, card_number: "1"}, items: [{product: {name: X, price: 1, color: RED}, quantity: 0}]}]}]`,
			errMsg: "quantity",
		},
		{
			name:   "bad id",
			doc:    `customers: [{id: "123", email: a@b.io, address: {country: USA}}]`,
			errMsg: "id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeBytes([]byte(tt.doc), FormatYAML)
			require.NoError(t, err)

			_, err = doc.ToDomain()
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDocumentDomainErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown card type", `customers: [{email: a@b.io, address: {country: USA}, orders: [{payment: {card_type: JCB, card_number: "1"}, items: []}]}]`},
		{"unknown color", `customers: [{email: a@b.io, address: {country: USA}, orders: [{payment: {card_type: VISA, card_number: "1"}, items: [{product: {name: X, price: 1, color: PINK}, quantity: 1}]}]}]`},
		{"negative price", `customers: [{email: a@b.io, address: {country: USA}, orders: [{payment: {card_type: VISA, card_number: "1"}, items: [{product: {name: X, price: -1, color: RED}, quantity: 1}]}]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeBytes([]byte(tt.doc), FormatYAML)
			require.NoError(t, err)

			_, err = doc.ToDomain()
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
			assert.Contains(t, err.Error(), "customers[0]")
		})
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "customers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	src, err := NewFileSource(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "file", src.Name())

	customers, err := src.LoadCustomers(context.Background())
	require.NoError(t, err)
	assert.Len(t, customers, 2)

	country, ok := stats.MostPopularCountry(shop.Customers(customers...))
	assert.True(t, ok)
	assert.Equal(t, "USA", country)
}

func TestFileSource_Errors(t *testing.T) {
	_, err := NewFileSource("customers.txt", zap.NewNop())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	src, err := NewFileSource(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())
	require.NoError(t, err)
	_, err = src.LoadCustomers(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.LoadCustomers(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerator_Deterministic(t *testing.T) {
	g1 := NewGenerator(DefaultGeneratorConfig(42, 25))
	g2 := NewGenerator(DefaultGeneratorConfig(42, 25))

	assert.Equal(t, g1.Generate(), g2.Generate())
	assert.Equal(t, g1.Generate(), g1.Generate())
	assert.Equal(t, uint64(42), g1.Seed())
}

func TestGenerator_ProducesValidCustomers(t *testing.T) {
	g := NewGenerator(GeneratorConfig{Seed: 7, Customers: 40})

	customers, err := g.LoadCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 40)

	allowed := DefaultGeneratorConfig(0, 0).Countries
	for _, c := range customers {
		assert.Contains(t, allowed, c.Address().Country())
		for _, o := range c.Orders() {
			assert.True(t, o.PaymentInfo().CardType().IsValid())
			for _, it := range o.Items() {
				assert.GreaterOrEqual(t, it.Quantity(), 1)
				assert.True(t, it.Product().Price().IsPositive())
			}
		}
	}
}

func TestGenerator_RandomSeedIsStable(t *testing.T) {
	g := NewGenerator(GeneratorConfig{Customers: 3})

	assert.NotZero(t, g.Seed())
	assert.Equal(t, g.Generate(), g.Generate())
}

func TestGenerator_DuplicateEmails(t *testing.T) {
	cfg := DefaultGeneratorConfig(3, 30)
	cfg.DuplicateEmail = 1
	doc := NewGenerator(cfg).Generate()

	for _, c := range doc.Customers[1:] {
		assert.Equal(t, doc.Customers[0].Email, c.Email)
	}
}

func TestGenerator_WriteRoundTrip(t *testing.T) {
	g := NewGenerator(DefaultGeneratorConfig(11, 5))

	for _, format := range []Format{FormatYAML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, g.Write(&buf, format))

			doc, err := Decode(&buf, format)
			require.NoError(t, err)

			want, err := g.Generate().ToDomain()
			require.NoError(t, err)
			got, err := doc.ToDomain()
			require.NoError(t, err)

			assert.Equal(t,
				stats.CardsCountForCustomer(shop.Customers(want...)),
				stats.CardsCountForCustomer(shop.Customers(got...)),
			)
			wantCountry, _ := stats.MostPopularCountry(shop.Customers(want...))
			gotCountry, _ := stats.MostPopularCountry(shop.Customers(got...))
			assert.Equal(t, wantCountry, gotCountry)
		})
	}
}
