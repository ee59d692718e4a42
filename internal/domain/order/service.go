package order

import (
	"context"
	"sort"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Service encapsulates order book operations.
type Service struct {
	orders  Repository
	placed  metric.Int64Counter
	revenue metric.Float64Counter
}

// NewService creates an order Service. A nil meter disables metrics.
func NewService(orders Repository, meter metric.Meter) (*Service, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("")
	}
	placed, err := meter.Int64Counter("pizzeria.orders.placed",
		metric.WithDescription("Number of orders placed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create placed counter")
	}
	revenue, err := meter.Float64Counter("pizzeria.orders.revenue",
		metric.WithDescription("Sum of placed order totals"),
		metric.WithUnit("USD"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create revenue counter")
	}
	return &Service{
		orders:  orders,
		placed:  placed,
		revenue: revenue,
	}, nil
}

// Place assigns the order an id and persists it.
func (s *Service) Place(ctx context.Context, o *Order) error {
	o.ID = uuid.New().String()
	if err := s.orders.Create(ctx, o); err != nil {
		return errors.Wrap(err, "create order")
	}

	attrs := metric.WithAttributes(attribute.Bool("discounted", o.Discount.Percentage > 0))
	s.placed.Add(ctx, 1, attrs)
	s.revenue.Add(ctx, o.Total.InexactFloat64(), attrs)
	return nil
}

// List returns every order, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// Get returns one order by id.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get order")
	}
	return o, nil
}

// UpdateStatus moves an order along the kitchen flow. Setting the current
// status again is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == status {
		return o, nil
	}
	if !o.Status.CanTransition(status) {
		return nil, errors.Wrapf(ErrInvalidTransition, "%s to %s", o.Status, status)
	}

	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "update order status")
	}
	o.Status = status
	return o, nil
}

// Delete removes an order.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "delete order")
	}
	return nil
}

// Stats aggregates sales over every stored order.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}

	st := &Stats{TotalSales: decimal.Zero, Orders: len(orders)}
	for _, o := range orders {
		st.TotalSales = st.TotalSales.Add(o.Total)
		if o.Status == StatusPending {
			st.Pending++
		}
	}
	return st, nil
}
