package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/xenking/pizzeria/internal/domain/cart"
	"github.com/xenking/pizzeria/internal/domain/discount"
	"github.com/xenking/pizzeria/internal/domain/money"
)

// PhoneDigits is the exact length of a valid phone number.
const PhoneDigits = 10

// Reason tells which checkout precondition failed.
type Reason string

const (
	ReasonInvalidCustomer Reason = "invalid_customer"
	ReasonEmptyCart       Reason = "empty_cart"
)

// ValidationError is returned by Build when checkout is not allowed.
type ValidationError struct {
	Reason  Reason
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s %s", e.Reason, e.Field, e.Message)
}

// NormalizePhone drops every non-digit character from s.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// Validate checks the customer name is present and the phone holds exactly
// ten decimal digits. The phone is expected to be normalised already.
func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Reason: ReasonInvalidCustomer, Field: "name", Message: "is required"}
	}
	if !isDigits(c.Phone, PhoneDigits) {
		return &ValidationError{
			Reason:  ReasonInvalidCustomer,
			Field:   "phone",
			Message: fmt.Sprintf("must have exactly %d digits", PhoneDigits),
		}
	}
	return nil
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Build assembles an order from the customer and cart lines. It has no side
// effects: the caller persists the returned value. Amounts are frozen to
// cents and Total is derived from the frozen Subtotal and discount, so
// Subtotal − Discount.Amount == Total exactly.
func Build(customer Customer, lines []cart.Line, now time.Time) (*Order, error) {
	customer.Name = strings.TrimSpace(customer.Name)
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, &ValidationError{Reason: ReasonEmptyCart, Message: "cart is empty"}
	}

	frozen := make([]Line, len(lines))
	for i, l := range lines {
		frozen[i] = Line{
			ItemID:    l.ItemID,
			Name:      l.Name,
			Size:      l.Size,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  money.Cents(l.Subtotal()),
		}
	}

	d := discount.Evaluate(lines)
	subtotal, amount, total := money.Settle(cart.Subtotal(lines), d.Amount)

	return &Order{
		Customer: customer,
		Lines:    frozen,
		Subtotal: subtotal,
		Discount: Discount{
			Percentage: d.Percentage,
			Amount:     amount,
		},
		Total:     total,
		CreatedAt: now.UTC(),
		Status:    StatusPending,
	}, nil
}
