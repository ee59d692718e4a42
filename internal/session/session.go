// Package session owns the shopping sessions of the customer screen.
//
// A Session pairs one Cart with the menu Snapshot it was priced against.
// The Controller serialises every operation on a session, so a cart is only
// ever mutated by one goroutine at a time even though the HTTP server is
// concurrent.
package session

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/pizzeria/internal/domain/cart"
	"github.com/xenking/pizzeria/internal/domain/catalog"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Session is one customer's shopping state.
type Session struct {
	ID        string
	Snapshot  *catalog.Snapshot
	Cart      *cart.Cart
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a copy of s whose cart can be mutated independently.
// Snapshots are immutable and shared.
func (s *Session) Clone() *Session {
	c := *s
	c.Cart = cart.FromLines(s.Cart.Lines())
	return &c
}

// Store persists sessions between requests.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
