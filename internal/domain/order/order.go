package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pizzeria/internal/domain/catalog"
)

// Status is the kitchen progress of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
)

// statusRank orders the statuses along the kitchen flow.
var statusRank = map[Status]int{
	StatusPending:   0,
	StatusPreparing: 1,
	StatusReady:     2,
	StatusDelivered: 3,
}

var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrUnknownStatus is returned when parsing a status outside the flow.
	ErrUnknownStatus = errors.New("unknown order status")
	// ErrInvalidTransition is returned when a status change would move an
	// order backwards or out of its terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ParseStatus converts s into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statusRank[st]; !ok {
		return "", errors.Wrapf(ErrUnknownStatus, "%q", s)
	}
	return st, nil
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusDelivered
}

// CanTransition reports whether an order may move from s to next. Moves go
// forward only; skipping intermediate states is allowed.
func (s Status) CanTransition(next Status) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Customer identifies who placed the order.
type Customer struct {
	Name  string
	Phone string
}

// Line is a frozen copy of a cart line.
type Line struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	Size      catalog.Size    `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Discount is the promotion frozen into an order.
type Discount struct {
	Percentage int
	Amount     decimal.Decimal
}

// Order is a placed order. Everything but Status is immutable once built.
type Order struct {
	ID        string
	Customer  Customer
	Lines     []Line
	Subtotal  decimal.Decimal
	Discount  Discount
	Total     decimal.Decimal
	CreatedAt time.Time
	Status    Status
}

// Stats summarises the order book for the operations screen.
type Stats struct {
	TotalSales decimal.Decimal
	Orders     int
	Pending    int
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error
}
