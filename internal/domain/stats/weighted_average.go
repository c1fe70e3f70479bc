package stats

import (
	"fmt"

	"github.com/erp/orderstats/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultAverageScale is the number of decimal places averages are rounded to
const DefaultAverageScale int32 = 2

// WeightedAverage accumulates decimal observations and their weights.
// The zero value is an empty accumulator ready for use.
//
// Partial accumulators are combined with Merge, which adds the running sums and
// weights; the division happens once, in Average.
type WeightedAverage struct {
	sum    decimal.Decimal
	weight int64
}

// Add records a single observation with weight 1
func (a *WeightedAverage) Add(value decimal.Decimal) {
	a.AddWeighted(value, 1)
}

// AddWeighted records value as if it had been added weight times.
// Non-positive weights are ignored.
func (a *WeightedAverage) AddWeighted(value decimal.Decimal, weight int64) {
	if weight <= 0 {
		return
	}
	a.sum = a.sum.Add(value.Mul(decimal.NewFromInt(weight)))
	a.weight += weight
}

// Merge folds other into a
func (a *WeightedAverage) Merge(other WeightedAverage) {
	a.sum = a.sum.Add(other.sum)
	a.weight += other.weight
}

// Sum returns the weighted sum of all observations
func (a WeightedAverage) Sum() decimal.Decimal {
	return a.sum
}

// Weight returns the total weight (number of unit observations)
func (a WeightedAverage) Weight() int64 {
	return a.weight
}

// IsEmpty returns true if nothing has been recorded
func (a WeightedAverage) IsEmpty() bool {
	return a.weight == 0
}

// Average returns sum/weight rounded half away from zero to scale decimal places.
// Returns ErrNoData if the accumulator is empty.
func (a WeightedAverage) Average(scale int32) (decimal.Decimal, error) {
	if a.weight == 0 {
		return decimal.Zero, fmt.Errorf("%w: average of zero observations", shared.ErrNoData)
	}
	return a.sum.DivRound(decimal.NewFromInt(a.weight), scale), nil
}
