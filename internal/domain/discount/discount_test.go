package discount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pizzeria/internal/domain/cart"
	"github.com/xenking/pizzeria/internal/domain/catalog"
)

func line(id string, size catalog.Size, price string, qty int) cart.Line {
	return cart.Line{
		ItemID:    id,
		Name:      id,
		Size:      size,
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name         string
		lines        []cart.Line
		wantPct      int
		wantUnits    int
		wantLargeSub string
		wantAmount   string
		wantNearMiss bool
	}{
		{
			name:         "empty cart",
			wantLargeSub: "0",
			wantAmount:   "0",
		},
		{
			name:         "no large pizzas",
			lines:        []cart.Line{line("a", catalog.SizeMedium, "8.00", 5)},
			wantLargeSub: "0",
			wantAmount:   "0",
		},
		{
			name:         "one large is a near miss",
			lines:        []cart.Line{line("a", catalog.SizeLarge, "10.00", 1)},
			wantUnits:    1,
			wantLargeSub: "10.00",
			wantAmount:   "0",
			wantNearMiss: true,
		},
		{
			name:         "two large same pizza",
			lines:        []cart.Line{line("a", catalog.SizeLarge, "10.00", 2)},
			wantPct:      8,
			wantUnits:    2,
			wantLargeSub: "20.00",
			wantAmount:   "1.60",
		},
		{
			name: "two large different pizzas",
			lines: []cart.Line{
				line("a", catalog.SizeLarge, "10.00", 1),
				line("b", catalog.SizeLarge, "12.00", 1),
			},
			wantPct:      8,
			wantUnits:    2,
			wantLargeSub: "22.00",
			wantAmount:   "1.76",
		},
		{
			name:         "three large",
			lines:        []cart.Line{line("a", catalog.SizeLarge, "10.00", 3)},
			wantPct:      15,
			wantUnits:    3,
			wantLargeSub: "30.00",
			wantAmount:   "4.50",
		},
		{
			name:         "many large stays at top tier",
			lines:        []cart.Line{line("a", catalog.SizeLarge, "10.00", 10)},
			wantPct:      15,
			wantUnits:    10,
			wantLargeSub: "100.00",
			wantAmount:   "15.00",
		},
		{
			name: "only large lines are discounted",
			lines: []cart.Line{
				line("margherita", catalog.SizeLarge, "10.00", 2),
				line("pepperoni", catalog.SizeMedium, "8.00", 1),
			},
			wantPct:      8,
			wantUnits:    2,
			wantLargeSub: "20.00",
			wantAmount:   "1.60",
		},
		{
			name: "extra-large does not count as large",
			lines: []cart.Line{
				line("a", catalog.SizeLarge, "10.00", 1),
				line("a", catalog.SizeExtraLarge, "12.00", 4),
			},
			wantUnits:    1,
			wantLargeSub: "10.00",
			wantAmount:   "0",
			wantNearMiss: true,
		},
		{
			name:         "amount kept at full precision",
			lines:        []cart.Line{line("a", catalog.SizeLarge, "9.99", 3)},
			wantPct:      15,
			wantUnits:    3,
			wantLargeSub: "29.97",
			wantAmount:   "4.4955",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.lines)

			assert.Equal(t, tt.wantPct, got.Percentage)
			assert.Equal(t, tt.wantUnits, got.LargeUnits)
			assert.True(t, decimal.RequireFromString(tt.wantLargeSub).Equal(got.LargeSubtotal),
				"large subtotal: got %s, want %s", got.LargeSubtotal, tt.wantLargeSub)
			assert.True(t, decimal.RequireFromString(tt.wantAmount).Equal(got.Amount),
				"amount: got %s, want %s", got.Amount, tt.wantAmount)
			assert.Equal(t, tt.wantPct > 0, got.Applied())
			assert.Equal(t, tt.wantNearMiss, got.NearMiss())
		})
	}
}

func TestNextTier(t *testing.T) {
	tests := []struct {
		units       int
		wantPct     int
		wantMissing int
		wantOK      bool
	}{
		{units: 0, wantPct: 8, wantMissing: 2, wantOK: true},
		{units: 1, wantPct: 8, wantMissing: 1, wantOK: true},
		{units: 2, wantPct: 15, wantMissing: 1, wantOK: true},
		{units: 3},
		{units: 7},
	}

	for _, tt := range tests {
		next, missing, ok := Result{LargeUnits: tt.units}.NextTier()
		require.Equal(t, tt.wantOK, ok, "units=%d", tt.units)
		assert.Equal(t, tt.wantPct, next.Percentage, "units=%d", tt.units)
		assert.Equal(t, tt.wantMissing, missing, "units=%d", tt.units)
	}
}
