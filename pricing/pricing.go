// Package pricing computes the service fee charged on top of a product's base
// price and converts amounts into the display currency.
//
// The fee schedule is tiered and evaluated in ascending order, first match
// wins:
//
//	base < 50          flat 8
//	50  <= base < 100  flat 12
//	100 <= base < 200  flat 20
//	base >= 200        20% of base
//
// All functions are pure and safe for concurrent use.
package pricing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidBase is returned for negative, NaN or infinite base prices.
var ErrInvalidBase = errors.New("pricing: base price must be a finite, non-negative number")

// Breakdown is the fee calculation for a single base price.
type Breakdown struct {
	Base    float64 `json:"base"`
	Fee     float64 `json:"fee"`
	FeeType string  `json:"fee_type"`
	Total   float64 `json:"total"`
}

type tier struct {
	below   float64 // exclusive upper bound
	flat    float64
	rate    float64
	feeType string
}

var tiers = []tier{
	{below: 50, flat: 8, feeType: "$8 flat fee"},
	{below: 100, flat: 12, feeType: "$12 flat fee"},
	{below: 200, flat: 20, feeType: "$20 flat fee"},
	{below: math.Inf(1), rate: 0.20, feeType: "20% of price"},
}

// ComputeBreakdown applies the fee schedule to base. No rounding is applied.
func ComputeBreakdown(base float64) (Breakdown, error) {
	if math.IsNaN(base) || math.IsInf(base, 0) || base < 0 {
		return Breakdown{}, fmt.Errorf("%w: got %v", ErrInvalidBase, base)
	}

	for _, t := range tiers {
		if base < t.below {
			fee := t.flat
			if t.rate != 0 {
				fee = base * t.rate
			}
			return Breakdown{
				Base:    base,
				Fee:     fee,
				FeeType: t.feeType,
				Total:   base + fee,
			}, nil
		}
	}

	// unreachable: the last tier is unbounded
	return Breakdown{}, fmt.Errorf("%w: got %v", ErrInvalidBase, base)
}

// FormatBase renders an amount in the base currency with two decimals.
func FormatBase(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
