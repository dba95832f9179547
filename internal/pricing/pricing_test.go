package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleCart() []Line {
	return []Line{
		{UnitPrice: d("100"), Quantity: 2},
		{UnitPrice: d("50"), Quantity: 1},
	}
}

func TestCheckoutSchedule(t *testing.T) {
	b := CheckoutSchedule.Apply(sampleCart())

	assert.True(t, b.Subtotal.Equal(d("250")), "subtotal %s", b.Subtotal)
	assert.True(t, b.BookingFee.Equal(d("5")), "fee %s", b.BookingFee)
	assert.True(t, b.Tax.Equal(d("45")), "tax %s", b.Tax)
	assert.True(t, b.Total.Equal(d("300")), "total %s", b.Total)
}

func TestBookingFlowSchedule(t *testing.T) {
	b := BookingFlowSchedule.Apply(sampleCart())

	assert.True(t, b.BookingFee.Equal(d("25")), "fee %s", b.BookingFee)
	assert.True(t, b.Tax.IsZero())
	assert.True(t, b.Total.Equal(d("275")), "total %s", b.Total)
}

func TestCheckoutRoundsToWholeUnits(t *testing.T) {
	tests := []struct {
		price string
		qty   int
		want  string
	}{
		{"833", 1, "1000"},  // 999.6
		{"99.99", 3, "360"}, // 359.964
		{"0.40", 1, "0"},    // 0.48
	}
	for _, tt := range tests {
		got := CheckoutSchedule.Apply([]Line{{UnitPrice: d(tt.price), Quantity: tt.qty}}).Total
		assert.True(t, got.Equal(d(tt.want)), "%s x %d: got %s want %s", tt.price, tt.qty, got, tt.want)
	}
}

func TestEmptyCart(t *testing.T) {
	b := CheckoutSchedule.Apply(nil)
	assert.True(t, b.Total.IsZero())
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(100000), ToMinorUnits(d("1000")))
	assert.Equal(t, int64(27550), ToMinorUnits(d("275.5")))
	assert.Equal(t, int64(1), ToMinorUnits(d("0.005")))
	assert.True(t, FromMinorUnits(30000).Equal(d("300")))
}
