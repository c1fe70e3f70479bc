package shop

import (
	"fmt"
	"strings"

	"github.com/erp/orderstats/internal/domain/shared"
)

// PaymentInfo describes the card an order was paid with
type PaymentInfo struct {
	cardType   CardType
	cardNumber string
}

// NewPaymentInfo creates a new PaymentInfo
func NewPaymentInfo(cardType CardType, cardNumber string) (PaymentInfo, error) {
	if !cardType.IsValid() {
		return PaymentInfo{}, fmt.Errorf("%w: invalid card type %q", shared.ErrInvalidInput, cardType)
	}
	cardNumber = strings.TrimSpace(cardNumber)
	if cardNumber == "" {
		return PaymentInfo{}, fmt.Errorf("%w: card number cannot be empty", shared.ErrInvalidInput)
	}
	return PaymentInfo{cardType: cardType, cardNumber: cardNumber}, nil
}

// MustNewPaymentInfo creates a new PaymentInfo, panics on error
func MustNewPaymentInfo(cardType CardType, cardNumber string) PaymentInfo {
	p, err := NewPaymentInfo(cardType, cardNumber)
	if err != nil {
		panic(err)
	}
	return p
}

// CardType returns the card network
func (p PaymentInfo) CardType() CardType {
	return p.cardType
}

// CardNumber returns the card number as given
func (p PaymentInfo) CardNumber() string {
	return p.cardNumber
}

// MaskedCardNumber returns the card number with all but the last four digits hidden
func (p PaymentInfo) MaskedCardNumber() string {
	return MaskCardNumber(p.cardNumber)
}

// MaskCardNumber hides all but the last four characters of a card number.
// Numbers of four characters or fewer are returned unchanged.
func MaskCardNumber(cardNumber string) string {
	n := len(cardNumber)
	if n <= 4 {
		return cardNumber
	}
	return strings.Repeat("*", n-4) + cardNumber[n-4:]
}
