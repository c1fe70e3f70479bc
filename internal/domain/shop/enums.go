package shop

import (
	"fmt"
	"strings"

	"github.com/erp/orderstats/internal/domain/shared"
)

// CardType is the payment network of a card
type CardType string

const (
	CardTypeVisa       CardType = "VISA"
	CardTypeMasterCard CardType = "MASTERCARD"
	CardTypeAmex       CardType = "AMEX"
	CardTypeDiscover   CardType = "DISCOVER"
)

// AllCardTypes returns all known card types
func AllCardTypes() []CardType {
	return []CardType{CardTypeVisa, CardTypeMasterCard, CardTypeAmex, CardTypeDiscover}
}

// IsValid returns true if the card type is a known enumerant
func (c CardType) IsValid() bool {
	switch c {
	case CardTypeVisa, CardTypeMasterCard, CardTypeAmex, CardTypeDiscover:
		return true
	}
	return false
}

// String returns the string representation of the card type
func (c CardType) String() string {
	return string(c)
}

// ParseCardType parses a card type name, case-insensitively
func ParseCardType(s string) (CardType, error) {
	c := CardType(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: unknown card type %q", shared.ErrInvalidInput, s)
	}
	return c, nil
}

// Color is the color of a product
type Color string

const (
	ColorRed    Color = "RED"
	ColorGreen  Color = "GREEN"
	ColorBlue   Color = "BLUE"
	ColorBlack  Color = "BLACK"
	ColorWhite  Color = "WHITE"
	ColorYellow Color = "YELLOW"
)

// AllColors returns all known colors
func AllColors() []Color {
	return []Color{ColorRed, ColorGreen, ColorBlue, ColorBlack, ColorWhite, ColorYellow}
}

// IsValid returns true if the color is a known enumerant
func (c Color) IsValid() bool {
	switch c {
	case ColorRed, ColorGreen, ColorBlue, ColorBlack, ColorWhite, ColorYellow:
		return true
	}
	return false
}

// String returns the string representation of the color
func (c Color) String() string {
	return string(c)
}

// ParseColor parses a color name, case-insensitively
func ParseColor(s string) (Color, error) {
	c := Color(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: unknown color %q", shared.ErrInvalidInput, s)
	}
	return c, nil
}
