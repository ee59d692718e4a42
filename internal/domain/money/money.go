// Package money holds the presentation rules for monetary amounts.
//
// Amounts are accumulated at full precision and rounded to cents only when
// they are displayed or frozen into an order.
package money

import "github.com/shopspring/decimal"

// Places is the number of decimal places a displayed or frozen amount keeps.
const Places = 2

// Cents rounds d half away from zero to whole cents.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Format renders d as a dollar string such as "$26.40".
func Format(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(Places)
	}
	return "$" + d.StringFixed(Places)
}

// Settle rounds subtotal and discount to cents and derives the total from the
// rounded figures, so subtotal - discount == total holds exactly.
func Settle(subtotal, discount decimal.Decimal) (sub, disc, total decimal.Decimal) {
	sub = Cents(subtotal)
	disc = Cents(discount)
	return sub, disc, sub.Sub(disc)
}
