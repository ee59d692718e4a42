package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := map[string]string{
		"0":      "$0.00",
		"26.4":   "$26.40",
		"1.605":  "$1.61",
		"4.4955": "$4.50",
		"-1.6":   "-$1.60",
		"1000":   "$1000.00",
	}
	for in, want := range tests {
		assert.Equal(t, want, Format(decimal.RequireFromString(in)), in)
	}
}

func TestCents(t *testing.T) {
	assert.True(t, decimal.RequireFromString("4.50").Equal(Cents(decimal.RequireFromString("4.4955"))))
	assert.True(t, decimal.RequireFromString("0.01").Equal(Cents(decimal.RequireFromString("0.005"))))
	assert.True(t, decimal.RequireFromString("-0.01").Equal(Cents(decimal.RequireFromString("-0.005"))))
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name               string
		subtotal, discount string
		wantSub, wantDisc  string
		wantTotal          string
	}{
		{name: "no discount", subtotal: "28", discount: "0", wantSub: "28.00", wantDisc: "0", wantTotal: "28.00"},
		{name: "exact cents", subtotal: "28", discount: "1.6", wantSub: "28.00", wantDisc: "1.60", wantTotal: "26.40"},
		{name: "half cent discount", subtotal: "30.30", discount: "4.545", wantSub: "30.30", wantDisc: "4.55", wantTotal: "25.75"},
		{name: "sub-cent subtotal", subtotal: "29.97", discount: "4.4955", wantSub: "29.97", wantDisc: "4.50", wantTotal: "25.47"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, disc, total := Settle(decimal.RequireFromString(tt.subtotal), decimal.RequireFromString(tt.discount))
			assert.True(t, decimal.RequireFromString(tt.wantSub).Equal(sub), sub.String())
			assert.True(t, decimal.RequireFromString(tt.wantDisc).Equal(disc), disc.String())
			assert.True(t, decimal.RequireFromString(tt.wantTotal).Equal(total), total.String())
			assert.True(t, sub.Sub(disc).Equal(total))
		})
	}
}
