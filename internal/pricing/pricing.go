// Package pricing holds the money math for the checkout surfaces.
//
// The cart checkout and the booking wizard charge different fees on the same
// subtotal. Both schedules are kept side by side so the difference is explicit.
package pricing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Line is one priced row of a cart.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Breakdown is the result of applying a schedule to a set of lines.
type Breakdown struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	BookingFee decimal.Decimal `json:"bookingFee"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
}

// Schedule describes the fees added on top of the subtotal. Rates are fractions
// (0.02 is two percent). When RoundTotal is set the total is rounded to whole
// currency units.
type Schedule struct {
	Name       string
	BookingFee decimal.Decimal
	TaxRate    decimal.Decimal
	RoundTotal bool
}

var (
	// CheckoutSchedule is used by the cart checkout and the payment order initiator.
	CheckoutSchedule = Schedule{
		Name:       "checkout",
		BookingFee: decimal.RequireFromString("0.02"),
		TaxRate:    decimal.RequireFromString("0.18"),
		RoundTotal: true,
	}

	// BookingFlowSchedule is used by the step-by-step booking wizard.
	BookingFlowSchedule = Schedule{
		Name:       "booking_flow",
		BookingFee: decimal.RequireFromString("0.10"),
		TaxRate:    decimal.Zero,
		RoundTotal: false,
	}
)

func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

func (s Schedule) Apply(lines []Line) Breakdown {
	subtotal := Subtotal(lines)
	fee := subtotal.Mul(s.BookingFee)
	tax := subtotal.Mul(s.TaxRate)
	total := subtotal.Add(fee).Add(tax)
	if s.RoundTotal {
		total = total.Round(0)
	}
	return Breakdown{
		Subtotal:   subtotal,
		BookingFee: fee,
		Tax:        tax,
		Total:      total,
	}
}

// ToMinorUnits converts a currency amount to its smallest unit (paise, cents).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(hundred)
}
