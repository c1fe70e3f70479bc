package dataset

import (
	"context"
	"io"
	"math/rand/v2"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/erp/orderstats/internal/domain/shop"
	"github.com/shopspring/decimal"
)

// GeneratorConfig controls the shape of a synthetic dataset.
type GeneratorConfig struct {
	Seed           uint64 // 0 picks a random seed once per Generator
	Customers      int
	MaxOrders      int      // per customer, inclusive
	MaxItems       int      // per order, inclusive
	MaxQuantity    int      // per item, inclusive
	MaxCards       int      // distinct cards per customer, inclusive
	Countries      []string // customers are spread over these countries
	DuplicateEmail float64  // probability a customer reuses an earlier email
}

// DefaultGeneratorConfig returns a config producing n customers.
func DefaultGeneratorConfig(seed uint64, n int) GeneratorConfig {
	return GeneratorConfig{
		Seed:        seed,
		Customers:   n,
		MaxOrders:   4,
		MaxItems:    5,
		MaxQuantity: 3,
		MaxCards:    3,
		Countries:   []string{"USA", "Germany", "France", "Japan", "Brazil", "Türkiye", "Chad"},
	}
}

var fakerCardTypes = map[shop.CardType]string{
	shop.CardTypeVisa:       "visa",
	shop.CardTypeMasterCard: "mastercard",
	shop.CardTypeAmex:       "american-express",
	shop.CardTypeDiscover:   "discover",
}

// Generator produces deterministic synthetic datasets with gofakeit.
// Every call with the same seed yields the same document.
type Generator struct {
	config GeneratorConfig
}

// NewGenerator creates a Generator, filling unset limits from DefaultGeneratorConfig.
func NewGenerator(cfg GeneratorConfig) *Generator {
	defaults := DefaultGeneratorConfig(cfg.Seed, cfg.Customers)
	if cfg.Seed == 0 {
		cfg.Seed = rand.Uint64() | 1
	}
	if cfg.MaxOrders <= 0 {
		cfg.MaxOrders = defaults.MaxOrders
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = defaults.MaxItems
	}
	if cfg.MaxQuantity <= 0 {
		cfg.MaxQuantity = defaults.MaxQuantity
	}
	if cfg.MaxCards <= 0 {
		cfg.MaxCards = defaults.MaxCards
	}
	if len(cfg.Countries) == 0 {
		cfg.Countries = defaults.Countries
	}
	return &Generator{config: cfg}
}

// Seed returns the effective seed.
func (g *Generator) Seed() uint64 {
	return g.config.Seed
}

// Name identifies the source in logs and metrics.
func (g *Generator) Name() string {
	return "generated"
}

// Generate builds the dataset document.
func (g *Generator) Generate() *Document {
	f := gofakeit.New(g.config.Seed)
	cardTypes := shop.AllCardTypes()
	colors := shop.AllColors()

	doc := &Document{Customers: make([]CustomerRecord, 0, g.config.Customers)}
	for i := 0; i < g.config.Customers; i++ {
		email := f.Email()
		if i > 0 && g.config.DuplicateEmail > 0 && f.Float64() < g.config.DuplicateEmail {
			email = doc.Customers[f.IntN(i)].Email
		}

		cards := make([]PaymentRecord, f.IntRange(1, g.config.MaxCards))
		for c := range cards {
			cardType := cardTypes[f.IntN(len(cardTypes))]
			cards[c] = PaymentRecord{
				CardType: cardType.String(),
				CardNumber: f.CreditCardNumber(&gofakeit.CreditCardOptions{
					Types: []string{fakerCardTypes[cardType]},
				}),
			}
		}

		orders := make([]OrderRecord, f.IntRange(0, g.config.MaxOrders))
		for o := range orders {
			items := make([]ItemRecord, f.IntRange(0, g.config.MaxItems))
			for it := range items {
				items[it] = ItemRecord{
					Product: ProductRecord{
						Name:  f.ProductName(),
						Price: decimal.NewFromFloat(f.Price(1, 500)).Round(2),
						Color: colors[f.IntN(len(colors))].String(),
					},
					Quantity: f.IntRange(1, g.config.MaxQuantity),
				}
			}
			orders[o] = OrderRecord{
				ID:      f.UUID(),
				Payment: cards[f.IntN(len(cards))],
				Items:   items,
			}
		}

		doc.Customers = append(doc.Customers, CustomerRecord{
			ID:    f.UUID(),
			Email: email,
			Address: AddressRecord{
				Country: g.config.Countries[f.IntN(len(g.config.Countries))],
				City:    f.City(),
				Detail:  f.Street(),
			},
			Orders: orders,
		})
	}
	return doc
}

// LoadCustomers regenerates the dataset and converts it to the domain model.
func (g *Generator) LoadCustomers(ctx context.Context) ([]*shop.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.Generate().ToDomain()
}

// Write encodes a freshly generated dataset to w.
func (g *Generator) Write(w io.Writer, format Format) error {
	return Encode(w, g.Generate(), format)
}
