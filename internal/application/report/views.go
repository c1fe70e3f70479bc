package report

import (
	"github.com/erp/orderstats/internal/domain/shop"
	"github.com/erp/orderstats/internal/domain/stats"
	"github.com/shopspring/decimal"
)

// ItemView is an order line in report output
type ItemView struct {
	Product  string          `json:"product"`
	Price    decimal.Decimal `json:"price"`
	Color    string          `json:"color"`
	Quantity int             `json:"quantity"`
}

// OrderView is an order in report output; the card number is masked
type OrderView struct {
	ID         string          `json:"id"`
	CardType   string          `json:"card_type"`
	CardNumber string          `json:"card_number"`
	Lines      int             `json:"lines"`
	Units      int             `json:"units"`
	Total      decimal.Decimal `json:"total"`
	Items      []ItemView      `json:"items"`
}

// OrderSizeBucket groups orders with the same total quantity
type OrderSizeBucket struct {
	Size   int         `json:"size"`
	Orders []OrderView `json:"orders"`
}

// ColorCheck is the result of the color report
type ColorCheck struct {
	Color              string `json:"color"`
	OrdersChecked      int    `json:"orders_checked"`
	AllOrdersHaveColor bool   `json:"all_orders_have_color"`
}

// PopularCountry is the winning country and the full ranking behind it
type PopularCountry struct {
	Country string               `json:"country"`
	Count   int64                `json:"count"`
	Ranking []stats.CountryCount `json:"ranking"`
}

// AveragePrice is the quantity-weighted average item price for a card
type AveragePrice struct {
	CardNumber string          `json:"card_number"`
	Average    decimal.Decimal `json:"average"`
	Scale      int32           `json:"scale"`
	Quantity   int64           `json:"quantity"`
}

// SummaryRequest selects the parameterized reports included in a Summary.
// Empty fields skip the corresponding report.
type SummaryRequest struct {
	CardType   string `json:"card_type,omitempty"`
	Color      string `json:"color,omitempty"`
	CardNumber string `json:"card_number,omitempty"`
}

// Summary bundles every report computed over one load of the data source
type Summary struct {
	Source         string            `json:"source"`
	CustomerCount  int               `json:"customer_count"`
	OrderCount     int               `json:"order_count"`
	OrdersByCard   []OrderView       `json:"orders_by_card,omitempty"`
	OrderSizes     []OrderSizeBucket `json:"order_sizes"`
	ColorCheck     *ColorCheck       `json:"color_check,omitempty"`
	CardCounts     map[string]int64  `json:"card_counts"`
	PopularCountry *PopularCountry   `json:"popular_country,omitempty"`
	AveragePrice   *AveragePrice     `json:"average_price,omitempty"`
	Cached         bool              `json:"cached"`
}

func toOrderView(o *shop.Order) OrderView {
	items := o.Items()
	view := OrderView{
		ID:         o.ID().String(),
		CardType:   o.PaymentInfo().CardType().String(),
		CardNumber: o.PaymentInfo().MaskedCardNumber(),
		Lines:      o.ItemCount(),
		Units:      stats.OrderSize(o),
		Total:      decimal.Zero,
		Items:      make([]ItemView, 0, len(items)),
	}
	for _, it := range items {
		view.Total = view.Total.Add(it.Amount())
		view.Items = append(view.Items, ItemView{
			Product:  it.Product().Name(),
			Price:    it.Product().Price(),
			Color:    it.Product().Color().String(),
			Quantity: it.Quantity(),
		})
	}
	return view
}

func toOrderViews(orders []*shop.Order) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	return views
}
