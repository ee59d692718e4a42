// Package discount implements the large-pizza promotion.
//
// The promotion is driven only by the number of large units in the cart,
// whichever pizzas they are, and discounts only the large lines:
//
//	3+ large units  15%
//	2  large units   8%
//	otherwise        0%
package discount

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/pizzeria/internal/domain/cart"
	"github.com/xenking/pizzeria/internal/domain/catalog"
)

// Tier is one step of the promotion.
type Tier struct {
	MinUnits   int
	Percentage int
}

// Tiers are ordered highest first.
var Tiers = []Tier{
	{MinUnits: 3, Percentage: 15},
	{MinUnits: 2, Percentage: 8},
}

var hundred = decimal.NewFromInt(100)

// Result is the discount derived from a set of cart lines.
type Result struct {
	// Percentage is 0, 8 or 15.
	Percentage int
	// LargeUnits is the number of large pizzas counted.
	LargeUnits int
	// LargeSubtotal is the unrounded subtotal of the large lines.
	LargeSubtotal decimal.Decimal
	// Amount is LargeSubtotal × Percentage / 100, unrounded.
	Amount decimal.Decimal
}

// Evaluate computes the discount for lines.
func Evaluate(lines []cart.Line) Result {
	units := 0
	largeSubtotal := decimal.Zero
	for _, l := range lines {
		if l.Size != catalog.SizeLarge {
			continue
		}
		units += l.Quantity
		largeSubtotal = largeSubtotal.Add(l.Subtotal())
	}

	pct := percentageFor(units)
	return Result{
		Percentage:    pct,
		LargeUnits:    units,
		LargeSubtotal: largeSubtotal,
		Amount:        largeSubtotal.Mul(decimal.NewFromInt(int64(pct))).Div(hundred),
	}
}

func percentageFor(units int) int {
	for _, t := range Tiers {
		if units >= t.MinUnits {
			return t.Percentage
		}
	}
	return 0
}

// Applied reports whether any discount applies.
func (r Result) Applied() bool {
	return r.Percentage > 0
}

// NearMiss reports the single-large-pizza state, one unit short of the
// first tier.
func (r Result) NearMiss() bool {
	return r.Percentage == 0 && r.LargeUnits == 1
}

// NextTier returns the tier the cart would reach next and how many more large
// units it needs. ok is false once the top tier applies.
func (r Result) NextTier() (next Tier, missing int, ok bool) {
	for i := len(Tiers) - 1; i >= 0; i-- {
		t := Tiers[i]
		if r.LargeUnits < t.MinUnits {
			return t, t.MinUnits - r.LargeUnits, true
		}
	}
	return Tier{}, 0, false
}
