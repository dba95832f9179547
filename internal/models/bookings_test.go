package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		allowed  bool
	}{
		{BookingStatusPending, BookingStatusConfirmed, true},
		{BookingStatusPending, BookingStatusPaid, true},
		{BookingStatusPending, BookingStatusAbandoned, true},
		{BookingStatusPaid, BookingStatusConfirmed, true},
		{BookingStatusPaid, BookingStatusAbandoned, false},
		{BookingStatusConfirmed, BookingStatusPending, false},
		{BookingStatusConfirmed, BookingStatusAbandoned, false},
		{BookingStatusAbandoned, BookingStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestCustomerInfoValidation(t *testing.T) {
	valid := CustomerInfo{FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Phone: "+91 98765 43210"}
	require.NoError(t, Validate.Struct(valid))

	tests := map[string]CustomerInfo{
		"missing first name": {LastName: "Rao", Email: "asha@example.com", Phone: "1"},
		"missing last name":  {FirstName: "Asha", Email: "asha@example.com", Phone: "1"},
		"email without dot":  {FirstName: "Asha", LastName: "Rao", Email: "asha@example", Phone: "1"},
		"email with spaces":  {FirstName: "Asha", LastName: "Rao", Email: "asha rao@example.com", Phone: "1"},
		"missing phone":      {FirstName: "Asha", LastName: "Rao", Email: "asha@example.com"},
	}
	for name, info := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, Validate.Struct(info))
		})
	}
}

func TestCreatePaymentRequestAmountIsOptional(t *testing.T) {
	var withAmount, withoutAmount CreatePaymentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"amount":1000,"cartItems":[{"quantity":1}]}`), &withAmount))
	require.NoError(t, json.Unmarshal([]byte(`{"cartItems":[{"quantity":1}]}`), &withoutAmount))

	assert.True(t, withAmount.Amount.Valid)
	assert.Equal(t, "1000", withAmount.Amount.Decimal.String())
	assert.False(t, withoutAmount.Amount.Valid)
}

func TestCartItemQuantityBounds(t *testing.T) {
	req := CreatePaymentRequest{
		CustomerInfo: CustomerInfo{FirstName: "A", LastName: "B", Email: "a@b.co", Phone: "1"},
		CartItems:    []CartItem{{Quantity: 9}},
	}
	assert.Error(t, Validate.Struct(req))

	req.CartItems[0].Quantity = 8
	assert.NoError(t, Validate.Struct(req))

	req.CartItems = nil
	assert.Error(t, Validate.Struct(req))
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"jazz", "live music", "outdoor"}, SplitTags(" jazz, live music ,,outdoor "))
	assert.Equal(t, []string{}, SplitTags(""))
}
