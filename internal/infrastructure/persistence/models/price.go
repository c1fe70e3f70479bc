package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Price is a decimal column that keeps every digit: unconstrained numeric on
// postgres, text elsewhere (sqlite would coerce numeric affinity to REAL).
type Price struct {
	decimal.Decimal
}

// NewPrice wraps d for storage.
func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d}
}

// GormDBDataType implements schema.GormDBDataTypeInterface.
func (Price) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "numeric"
	}
	return "text"
}
