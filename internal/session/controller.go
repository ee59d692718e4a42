package session

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/pizzeria/internal/domain/cart"
	"github.com/xenking/pizzeria/internal/domain/catalog"
	"github.com/xenking/pizzeria/internal/domain/order"
)

// Menu loads the current catalog snapshot.
type Menu interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// OrderPlacer persists a built order and assigns its id.
type OrderPlacer interface {
	Place(ctx context.Context, o *order.Order) error
}

// Controller runs the customer screen operations against stored sessions.
type Controller struct {
	menu   Menu
	orders OrderPlacer
	store  Store
	locks  *keyedMutex
	now    func() time.Time
}

// NewController creates a Controller.
func NewController(menu Menu, orders OrderPlacer, store Store) *Controller {
	return &Controller{
		menu:   menu,
		orders: orders,
		store:  store,
		locks:  newKeyedMutex(),
		now:    time.Now,
	}
}

// Open starts a session with an empty cart and a freshly loaded menu.
func (c *Controller) Open(ctx context.Context) (*Session, error) {
	snap, err := c.menu.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load menu")
	}
	now := c.now()
	s := &Session{
		ID:        uuid.New().String(),
		Snapshot:  snap,
		Cart:      cart.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.store.Save(ctx, s); err != nil {
		return nil, errors.Wrap(err, "save session")
	}
	return s, nil
}

// Get returns the session with the given id.
func (c *Controller) Get(ctx context.Context, id string) (*Session, error) {
	return c.store.Get(ctx, id)
}

// Quote prices the session cart.
func (c *Controller) Quote(ctx context.Context, id string) (*Quote, error) {
	s, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	q := QuoteOf(s)
	return &q, nil
}

// Reload replaces the session menu with a fresh snapshot. Lines already in
// the cart keep the name and price they were added with.
func (c *Controller) Reload(ctx context.Context, id string) (*Session, error) {
	snap, err := c.menu.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load menu")
	}
	return c.mutate(ctx, id, func(s *Session) error {
		s.Snapshot = snap
		return nil
	})
}

// Add puts one pizza of the given size into the cart. Unknown pizzas are
// ignored.
func (c *Controller) Add(ctx context.Context, id, itemID string, size catalog.Size) (*Quote, error) {
	s, err := c.mutate(ctx, id, func(s *Session) error {
		if !s.Cart.AddItem(s.Snapshot, itemID, size) {
			zctx.From(ctx).Debug("Pizza not on session menu",
				zap.String("session", id),
				zap.String("pizza", itemID),
				zap.String("size", string(size)),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	q := QuoteOf(s)
	return &q, nil
}

// Remove deletes the cart line at index.
func (c *Controller) Remove(ctx context.Context, id string, index int) (*Quote, error) {
	s, err := c.mutate(ctx, id, func(s *Session) error {
		return s.Cart.RemoveLine(index)
	})
	if err != nil {
		return nil, err
	}
	q := QuoteOf(s)
	return &q, nil
}

// Adjust changes the quantity of the cart line at index by delta.
func (c *Controller) Adjust(ctx context.Context, id string, index, delta int) (*Quote, error) {
	s, err := c.mutate(ctx, id, func(s *Session) error {
		return s.Cart.AdjustQuantity(index, delta)
	})
	if err != nil {
		return nil, err
	}
	q := QuoteOf(s)
	return &q, nil
}

// Clear empties the cart.
func (c *Controller) Clear(ctx context.Context, id string) (*Quote, error) {
	s, err := c.mutate(ctx, id, func(s *Session) error {
		s.Cart.Clear()
		return nil
	})
	if err != nil {
		return nil, err
	}
	q := QuoteOf(s)
	return &q, nil
}

// Close discards the session.
func (c *Controller) Close(ctx context.Context, id string) error {
	unlock := c.locks.Lock(id)
	defer unlock()

	return c.store.Delete(ctx, id)
}

// Checkout builds an order from the cart, places it and empties the cart.
// The cart is left untouched when validation or placement fails.
func (c *Controller) Checkout(ctx context.Context, id string, customer order.Customer) (*order.Order, error) {
	unlock := c.locks.Lock(id)
	defer unlock()

	s, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	customer.Phone = order.NormalizePhone(customer.Phone)
	o, err := order.Build(customer, s.Cart.Lines(), c.now())
	if err != nil {
		return nil, err
	}
	if err := c.orders.Place(ctx, o); err != nil {
		return nil, errors.Wrap(err, "place order")
	}

	s.Cart.Clear()
	s.UpdatedAt = c.now()
	if err := c.store.Save(ctx, s); err != nil {
		// The order is already placed, so checkout still succeeds.
		zctx.From(ctx).Warn("Save session after checkout",
			zap.String("session", id),
			zap.String("order", o.ID),
			zap.Error(err),
		)
	}

	zctx.From(ctx).Info("Order placed",
		zap.String("session", id),
		zap.String("order", o.ID),
		zap.String("total", o.Total.StringFixed(2)),
		zap.Int("discount_pct", o.Discount.Percentage),
	)
	return o, nil
}

func (c *Controller) mutate(ctx context.Context, id string, fn func(s *Session) error) (*Session, error) {
	unlock := c.locks.Lock(id)
	defer unlock()

	s, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = c.now()
	if err := c.store.Save(ctx, s); err != nil {
		return nil, errors.Wrap(err, "save session")
	}
	return s, nil
}
