package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type mockOrderRepo struct {
	orders    map[string]Order
	lastOrder *Order
	err       error
	updateErr error
	updates   int
}

func newOrderRepo(orders ...Order) *mockOrderRepo {
	m := &mockOrderRepo{orders: make(map[string]Order, len(orders))}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.lastOrder = o
	if m.err != nil {
		return m.err
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *mockOrderRepo) List(_ context.Context) ([]Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	m.updates++
	if m.updateErr != nil {
		return m.updateErr
	}
	o := m.orders[id]
	o.Status = status
	m.orders[id] = o
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func newTestOrder(id string, total string, status Status, createdAt time.Time) Order {
	return Order{
		ID:        id,
		Customer:  Customer{Name: "Ana", Phone: "5551234567"},
		Subtotal:  decimal.RequireFromString(total),
		Total:     decimal.RequireFromString(total),
		CreatedAt: createdAt,
		Status:    status,
	}
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	svc, err := NewService(repo, nil)
	require.NoError(t, err)
	return svc
}

func TestPlace(t *testing.T) {
	repo := newOrderRepo()
	svc := newTestService(t, repo)

	o := newTestOrder("", "26.40", StatusPending, fixedNow)
	require.NoError(t, svc.Place(context.Background(), &o))

	_, err := uuid.Parse(o.ID)
	require.NoError(t, err)
	require.NotNil(t, repo.lastOrder)
	assert.Equal(t, o.ID, repo.lastOrder.ID)
}

func TestPlace_CreateError(t *testing.T) {
	repo := newOrderRepo()
	repo.err = errors.New("db write failed")
	svc := newTestService(t, repo)

	o := newTestOrder("", "10.00", StatusPending, fixedNow)
	err := svc.Place(context.Background(), &o)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

func TestPlace_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	svc, err := NewService(newOrderRepo(), provider.Meter("test"))
	require.NoError(t, err)

	first := newTestOrder("", "26.40", StatusPending, fixedNow)
	first.Discount = Discount{Percentage: 8, Amount: decimal.RequireFromString("1.60")}
	second := newTestOrder("", "10.00", StatusPending, fixedNow)
	require.NoError(t, svc.Place(context.Background(), &first))
	require.NoError(t, svc.Place(context.Background(), &second))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var placed int64
	var revenue float64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if m.Name == "pizzeria.orders.placed" {
					for _, dp := range data.DataPoints {
						placed += dp.Value
					}
				}
			case metricdata.Sum[float64]:
				if m.Name == "pizzeria.orders.revenue" {
					for _, dp := range data.DataPoints {
						revenue += dp.Value
					}
				}
			}
		}
	}
	assert.Equal(t, int64(2), placed)
	assert.InDelta(t, 36.40, revenue, 0.001)
}

func TestList_NewestFirst(t *testing.T) {
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := newOrderRepo(
		newTestOrder("old", "10.00", StatusDelivered, base),
		newTestOrder("new", "20.00", StatusPending, base.Add(2*time.Hour)),
		newTestOrder("mid", "30.00", StatusReady, base.Add(time.Hour)),
	)
	svc := newTestService(t, repo)

	orders, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "new", orders[0].ID)
	assert.Equal(t, "mid", orders[1].ID)
	assert.Equal(t, "old", orders[2].ID)
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name        string
		from        Status
		to          Status
		wantErr     error
		wantUpdates int
	}{
		{name: "forward one step", from: StatusPending, to: StatusPreparing, wantUpdates: 1},
		{name: "skip ahead", from: StatusPending, to: StatusDelivered, wantUpdates: 1},
		{name: "same status is a no-op", from: StatusReady, to: StatusReady},
		{name: "backwards", from: StatusReady, to: StatusPreparing, wantErr: ErrInvalidTransition},
		{name: "out of terminal", from: StatusDelivered, to: StatusPending, wantErr: ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newOrderRepo(newTestOrder("o1", "10.00", tt.from, fixedNow))
			svc := newTestService(t, repo)

			o, err := svc.UpdateStatus(context.Background(), "o1", tt.to)
			assert.Equal(t, tt.wantUpdates, repo.updates)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from, repo.orders["o1"].Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, o.Status)
			assert.Equal(t, tt.to, repo.orders["o1"].Status)
		})
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc := newTestService(t, newOrderRepo())

	_, err := svc.UpdateStatus(context.Background(), "missing", StatusReady)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus_RepoError(t *testing.T) {
	repo := newOrderRepo(newTestOrder("o1", "10.00", StatusPending, fixedNow))
	repo.updateErr = errors.New("db down")
	svc := newTestService(t, repo)

	_, err := svc.UpdateStatus(context.Background(), "o1", StatusReady)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update order status")
}

func TestDelete(t *testing.T) {
	repo := newOrderRepo(newTestOrder("o1", "10.00", StatusPending, fixedNow))
	svc := newTestService(t, repo)

	require.NoError(t, svc.Delete(context.Background(), "o1"))
	require.ErrorIs(t, svc.Delete(context.Background(), "o1"), ErrNotFound)

	_, err := svc.Get(context.Background(), "o1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStats(t *testing.T) {
	repo := newOrderRepo(
		newTestOrder("a", "26.40", StatusPending, fixedNow),
		newTestOrder("b", "10.00", StatusDelivered, fixedNow),
		newTestOrder("c", "13.60", StatusPending, fixedNow),
	)
	svc := newTestService(t, repo)

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, st.Orders)
	assert.Equal(t, 2, st.Pending)
	assert.True(t, decimal.RequireFromString("50.00").Equal(st.TotalSales))
}

func TestStats_Empty(t *testing.T) {
	st, err := newTestService(t, newOrderRepo()).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, st.Orders)
	assert.True(t, st.TotalSales.IsZero())
}
