// Package dataset reads, validates and generates customer datasets for the reports.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/erp/orderstats/internal/domain/shared"
	"github.com/erp/orderstats/internal/domain/shop"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Format is a dataset serialization format
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for dataset files that are neither YAML nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// Document is the on-disk representation of a dataset.
type Document struct {
	Customers []CustomerRecord `json:"customers" yaml:"customers" validate:"dive"`
}

// CustomerRecord describes one customer and the orders it placed.
type CustomerRecord struct {
	ID      string        `json:"id,omitempty" yaml:"id,omitempty" validate:"omitempty,uuid"`
	Email   string        `json:"email" yaml:"email" validate:"required,email"`
	Address AddressRecord `json:"address" yaml:"address"`
	Orders  []OrderRecord `json:"orders" yaml:"orders" validate:"dive"`
}

// AddressRecord is a customer address.
type AddressRecord struct {
	Country string `json:"country" yaml:"country" validate:"required,max=100"`
	City    string `json:"city,omitempty" yaml:"city,omitempty"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// OrderRecord is one order and its line items.
type OrderRecord struct {
	ID      string        `json:"id,omitempty" yaml:"id,omitempty" validate:"omitempty,uuid"`
	Payment PaymentRecord `json:"payment" yaml:"payment"`
	Items   []ItemRecord  `json:"items" yaml:"items" validate:"dive"`
}

// PaymentRecord identifies the card an order was paid with.
type PaymentRecord struct {
	CardType   string `json:"card_type" yaml:"card_type" validate:"required"`
	CardNumber string `json:"card_number" yaml:"card_number" validate:"required"`
}

// ItemRecord is an order line.
type ItemRecord struct {
	Product  ProductRecord `json:"product" yaml:"product"`
	Quantity int           `json:"quantity" yaml:"quantity" validate:"min=1"`
}

// ProductRecord describes a product; Price is written as a decimal string.
type ProductRecord struct {
	Name  string          `json:"name" yaml:"name" validate:"required"`
	Price decimal.Decimal `json:"price" yaml:"price"`
	Color string          `json:"color" yaml:"color" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode reads a document in the given format.
func Decode(r io.Reader, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing yaml dataset: %w", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing json dataset: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &doc, nil
}

// Encode writes the document in the given format.
func Encode(w io.Writer, doc *Document, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding yaml dataset: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding json dataset: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Validate checks the struct-level constraints of the document.
func (d *Document) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", shared.ErrInvalidInput, strings.Join(msgs, "; "))
}

// ToDomain validates the document and converts it to the domain model.
func (d *Document) ToDomain() ([]*shop.Customer, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	customers := make([]*shop.Customer, 0, len(d.Customers))
	for i, rec := range d.Customers {
		c, err := rec.toDomain()
		if err != nil {
			return nil, fmt.Errorf("customers[%d]: %w", i, err)
		}
		customers = append(customers, c)
	}
	return customers, nil
}

func (r CustomerRecord) toDomain() (*shop.Customer, error) {
	address, err := shop.NewAddress(r.Address.Country,
		shop.WithCity(r.Address.City),
		shop.WithDetail(r.Address.Detail),
	)
	if err != nil {
		return nil, err
	}

	orders := make([]*shop.Order, 0, len(r.Orders))
	for i, o := range r.Orders {
		order, err := o.toDomain()
		if err != nil {
			return nil, fmt.Errorf("orders[%d]: %w", i, err)
		}
		orders = append(orders, order)
	}

	id, err := parseOptionalID(r.ID)
	if err != nil {
		return nil, err
	}
	return shop.NewCustomerWithID(id, r.Email, address, orders...)
}

func (r OrderRecord) toDomain() (*shop.Order, error) {
	cardType, err := shop.ParseCardType(r.Payment.CardType)
	if err != nil {
		return nil, err
	}
	payment, err := shop.NewPaymentInfo(cardType, r.Payment.CardNumber)
	if err != nil {
		return nil, err
	}

	items := make([]shop.OrderItem, 0, len(r.Items))
	for i, it := range r.Items {
		color, err := shop.ParseColor(it.Product.Color)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		product, err := shop.NewProduct(it.Product.Name, it.Product.Price, color)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		item, err := shop.NewOrderItem(product, it.Quantity)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		items = append(items, item)
	}

	id, err := parseOptionalID(r.ID)
	if err != nil {
		return nil, err
	}
	return shop.NewOrderWithID(id, payment, items...), nil
}

// parseOptionalID returns a fresh ID for records that carry none.
func parseOptionalID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", shared.ErrInvalidInput, s)
	}
	return id, nil
}

// DecodeBytes is a convenience wrapper over Decode.
func DecodeBytes(data []byte, format Format) (*Document, error) {
	return Decode(bytes.NewReader(data), format)
}
