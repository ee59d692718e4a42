package catalog

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Size is one of the fixed sizes every pizza is quoted in.
type Size string

const (
	SizeSmall      Size = "small"
	SizeMedium     Size = "medium"
	SizeLarge      Size = "large"
	SizeExtraLarge Size = "extra-large"
)

// Sizes lists every size in menu order.
var Sizes = []Size{SizeSmall, SizeMedium, SizeLarge, SizeExtraLarge}

var (
	// ErrNotFound is returned when a requested pizza does not exist.
	ErrNotFound = errors.New("pizza not found")
	// ErrUnknownSize is returned when a size outside the fixed set is parsed.
	ErrUnknownSize = errors.New("unknown size")
)

// ParseSize converts s into a Size.
func ParseSize(s string) (Size, error) {
	for _, size := range Sizes {
		if string(size) == s {
			return size, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownSize, "%q", s)
}

// Prices maps each size to its unit price.
type Prices map[Size]decimal.Decimal

// Item is a pizza on the menu.
type Item struct {
	ID          string
	Name        string
	Description string
	Prices      Prices
}

// Price returns the unit price quoted for size.
func (i Item) Price(size Size) (decimal.Decimal, bool) {
	p, ok := i.Prices[size]
	return p, ok
}

// clone returns a copy of i that shares no map with the original.
func (i Item) clone() Item {
	prices := make(Prices, len(i.Prices))
	for size, p := range i.Prices {
		prices[size] = p
	}
	i.Prices = prices
	return i
}

// ValidationError describes why an Item cannot be stored.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks that the item has a name, a description and a positive
// price for every size.
func (i Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if strings.TrimSpace(i.Description) == "" {
		return &ValidationError{Field: "description", Message: "is required"}
	}
	for _, size := range Sizes {
		p, ok := i.Prices[size]
		if !ok {
			return &ValidationError{Field: "prices." + string(size), Message: "is required"}
		}
		if !p.IsPositive() {
			return &ValidationError{Field: "prices." + string(size), Message: "must be greater than 0"}
		}
	}
	return nil
}

// Lister is the read side of the catalog store.
type Lister interface {
	List(ctx context.Context) ([]Item, error)
}

// Repository is the catalog store.
type Repository interface {
	Lister
	Get(ctx context.Context, id string) (*Item, error)
	Create(ctx context.Context, item *Item) error
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id string) error
}
