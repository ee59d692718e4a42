package session

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xenking/pizzeria/internal/domain/cart"
	"github.com/xenking/pizzeria/internal/domain/discount"
	"github.com/xenking/pizzeria/internal/domain/money"
)

// QuoteLine is a cart line with its subtotal.
type QuoteLine struct {
	Index    int
	Line     cart.Line
	Subtotal decimal.Decimal
}

// Quote is the priced view of a cart. Amounts are rounded to cents; the
// display strings are ready for the ticket.
type Quote struct {
	SessionID string
	Lines     []QuoteLine
	Units     int
	Subtotal  decimal.Decimal
	Discount  discount.Result
	// DiscountAmount is Discount.Amount rounded to cents.
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	// Label summarises the discount state for the ticket.
	Label string
	// Hint is an upsell message, empty unless one large pizza is in the cart.
	Hint string
}

// Display returns the subtotal, discount and total as ticket strings.
func (q Quote) Display() (subtotal, discount, total string) {
	return money.Format(q.Subtotal), "-" + money.Format(q.DiscountAmount), money.Format(q.Total)
}

// QuoteOf prices the cart of s.
func QuoteOf(s *Session) Quote {
	lines := s.Cart.Lines()
	d := discount.Evaluate(lines)

	q := Quote{
		SessionID: s.ID,
		Lines:     make([]QuoteLine, len(lines)),
		Units:     s.Cart.Units(),
		Discount:  d,
	}
	for i, l := range lines {
		q.Lines[i] = QuoteLine{Index: i, Line: l, Subtotal: money.Cents(l.Subtotal())}
	}

	q.Subtotal, q.DiscountAmount, q.Total = money.Settle(cart.Subtotal(lines), d.Amount)
	q.Label, q.Hint = describe(d)
	return q
}

func describe(d discount.Result) (label, hint string) {
	if d.Applied() {
		return fmt.Sprintf("%d%% off large pizzas (%d large)", d.Percentage, d.LargeUnits), ""
	}
	if d.NearMiss() {
		next, missing, _ := d.NextTier()
		return "No discount", fmt.Sprintf("Add %d more large pizza for %d%% off!", missing, next.Percentage)
	}
	return "No discount", ""
}
