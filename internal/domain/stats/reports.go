// Package stats implements the order statistics reports.
//
// Every report is a pure function over a single-use sequence of domain records.
// Inputs are trusted: quantities, prices and enumerants are not validated here.
package stats

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"unicode/utf8"

	"github.com/erp/orderstats/internal/domain/shared"
	"github.com/erp/orderstats/internal/domain/shop"
	"github.com/shopspring/decimal"
)

// OrdersForCardType returns the orders paid with cardType, in traversal order
func OrdersForCardType(customers iter.Seq[*shop.Customer], cardType shop.CardType) []*shop.Order {
	result := make([]*shop.Order, 0)
	for o := range shop.AllOrders(customers) {
		if o.PaymentInfo().CardType() == cardType {
			result = append(result, o)
		}
	}
	return result
}

// OrderSize returns the total number of units in an order
func OrderSize(o *shop.Order) int {
	size := 0
	for _, item := range o.Items() {
		size += item.Quantity()
	}
	return size
}

// OrderSizes groups orders by their size. Orders keep traversal order within a bucket.
func OrderSizes(orders iter.Seq[*shop.Order]) map[int][]*shop.Order {
	buckets := make(map[int][]*shop.Order)
	for o := range orders {
		size := OrderSize(o)
		buckets[size] = append(buckets[size], o)
	}
	return buckets
}

// HasColorProduct reports whether every order contains at least one product of color.
// An empty sequence yields true; an order without items yields false.
func HasColorProduct(orders iter.Seq[*shop.Order], color shop.Color) bool {
	for o := range orders {
		if !orderHasColor(o, color) {
			return false
		}
	}
	return true
}

func orderHasColor(o *shop.Order, color shop.Color) bool {
	for _, item := range o.Items() {
		if item.Product().Color() == color {
			return true
		}
	}
	return false
}

// DuplicatePolicy decides which entry wins when two customers share an email
type DuplicatePolicy string

const (
	// KeepLast keeps the count of the last customer seen with the email
	KeepLast DuplicatePolicy = "keep_last"
	// KeepFirst keeps the count of the first customer seen with the email
	KeepFirst DuplicatePolicy = "keep_first"
	// FailOnDuplicate rejects the input with ErrDuplicateEmail
	FailOnDuplicate DuplicatePolicy = "fail"
)

// ParseDuplicatePolicy parses a policy name; the empty string means KeepLast
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(s); p {
	case "":
		return KeepLast, nil
	case KeepLast, KeepFirst, FailOnDuplicate:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown duplicate policy %q", shared.ErrInvalidInput, s)
	}
}

// CardsCountForCustomer maps each customer email to the number of distinct card
// numbers used across that customer's orders. Duplicate emails resolve with KeepLast.
func CardsCountForCustomer(customers iter.Seq[*shop.Customer]) map[string]int64 {
	// KeepLast never fails
	counts, _ := CardsCountForCustomerWithPolicy(customers, KeepLast)
	return counts
}

// CardsCountForCustomerWithPolicy is CardsCountForCustomer with an explicit
// duplicate email policy.
func CardsCountForCustomerWithPolicy(customers iter.Seq[*shop.Customer], policy DuplicatePolicy) (map[string]int64, error) {
	switch policy {
	case KeepLast, KeepFirst, FailOnDuplicate:
	default:
		return nil, fmt.Errorf("%w: unknown duplicate policy %q", shared.ErrInvalidInput, policy)
	}

	// group
	var emails []string
	groups := make(map[string][]int64)
	for c := range customers {
		email := c.Email()
		if _, seen := groups[email]; !seen {
			emails = append(emails, email)
		}
		groups[email] = append(groups[email], distinctCardCount(c))
	}

	// reduce
	result := make(map[string]int64, len(groups))
	for _, email := range emails {
		counts := groups[email]
		switch policy {
		case KeepFirst:
			result[email] = counts[0]
		case KeepLast:
			result[email] = counts[len(counts)-1]
		case FailOnDuplicate:
			if len(counts) > 1 {
				return nil, fmt.Errorf("%w: %s (%d customers)", shared.ErrDuplicateEmail, email, len(counts))
			}
			result[email] = counts[0]
		}
	}
	return result, nil
}

func distinctCardCount(c *shop.Customer) int64 {
	seen := make(map[string]struct{})
	for _, o := range c.Orders() {
		seen[o.PaymentInfo().CardNumber()] = struct{}{}
	}
	return int64(len(seen))
}

// CountryCount is the number of customers living in a country
type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

// CountryRanking counts customers per country, ordered by popularity.
// Ties on count go to the shorter name (in runes), then to the lexicographically smaller one.
func CountryRanking(customers iter.Seq[*shop.Customer]) []CountryCount {
	counts := make(map[string]int64)
	for c := range customers {
		counts[c.Address().Country()]++
	}

	ranking := make([]CountryCount, 0, len(counts))
	for country, n := range counts {
		ranking = append(ranking, CountryCount{Country: country, Count: n})
	}
	slices.SortFunc(ranking, compareCountryCount)
	return ranking
}

func compareCountryCount(a, b CountryCount) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	if c := cmp.Compare(utf8.RuneCountInString(a.Country), utf8.RuneCountInString(b.Country)); c != 0 {
		return c
	}
	return cmp.Compare(a.Country, b.Country)
}

// MostPopularCountry returns the country with the most customers, using the
// CountryRanking tie-break. ok is false for an empty sequence.
func MostPopularCountry(customers iter.Seq[*shop.Customer]) (country string, ok bool) {
	ranking := CountryRanking(customers)
	if len(ranking) == 0 {
		return "", false
	}
	return ranking[0].Country, true
}

// AccumulateCardPrices feeds the prices of every item in orders paid with
// cardNumber into a WeightedAverage, weighted by quantity.
func AccumulateCardPrices(customers iter.Seq[*shop.Customer], cardNumber string) WeightedAverage {
	var acc WeightedAverage
	for o := range shop.AllOrders(customers) {
		if o.PaymentInfo().CardNumber() != cardNumber {
			continue
		}
		for _, item := range o.Items() {
			acc.AddWeighted(item.Product().Price(), int64(item.Quantity()))
		}
	}
	return acc
}

// AveragePriceForCreditCard returns the quantity-weighted average product price over
// orders paid with cardNumber, rounded to DefaultAverageScale places.
// Returns ErrNoData if no item matches.
func AveragePriceForCreditCard(customers iter.Seq[*shop.Customer], cardNumber string) (decimal.Decimal, error) {
	return AveragePriceForCreditCardScaled(customers, cardNumber, DefaultAverageScale)
}

// AveragePriceForCreditCardScaled is AveragePriceForCreditCard rounded to scale places
func AveragePriceForCreditCardScaled(customers iter.Seq[*shop.Customer], cardNumber string, scale int32) (decimal.Decimal, error) {
	acc := AccumulateCardPrices(customers, cardNumber)
	return acc.Average(scale)
}
