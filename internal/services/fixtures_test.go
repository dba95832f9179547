package services

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventix/internal/models"
	"github.com/joshua-takyi/eventix/internal/payments"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	store    *models.MemoryStore
	gateway  *payments.SignedOrderGateway
	checkout *CheckoutService
	event    models.Event
	vip      models.SeatCategory
	general  models.SeatCategory
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCheckoutFixture(t *testing.T, vipSeats, generalSeats int) *checkoutFixture {
	t.Helper()

	store := models.NewMemoryStore()
	event := models.Event{
		ID:          uuid.New(),
		OrganizerID: uuid.New(),
		Title:       "Harbour Lights Festival",
		Category:    "music",
		StartDate:   time.Now().Add(72 * time.Hour),
		Status:      models.EventStatusPublished,
	}
	vip := models.SeatCategory{
		ID:             uuid.New(),
		Name:           "VIP",
		Price:          decimal.NewFromInt(100),
		TotalSeats:     vipSeats,
		AvailableSeats: vipSeats,
	}
	general := models.SeatCategory{
		ID:             uuid.New(),
		Name:           "General",
		Price:          decimal.NewFromInt(50),
		TotalSeats:     generalSeats,
		AvailableSeats: generalSeats,
	}
	store.PutEvent(event, vip, general)
	vip.EventID = event.ID
	general.EventID = event.ID

	gateway, err := payments.NewSignedOrderGateway("rzp_test_key", "rzp_test_secret")
	require.NoError(t, err)

	checkout := NewCheckoutService(store, store, store, gateway, "INR", 30*time.Minute, testLogger())

	return &checkoutFixture{
		store:    store,
		gateway:  gateway,
		checkout: checkout,
		event:    event,
		vip:      vip,
		general:  general,
	}
}

func testCustomer() models.CustomerInfo {
	return models.CustomerInfo{
		FirstName: "Ama",
		LastName:  "Mensah",
		Email:     "ama@example.com",
		Phone:     "+233200000000",
	}
}

func (f *checkoutFixture) cart(items ...models.CartItem) models.CreatePaymentRequest {
	return models.CreatePaymentRequest{
		CustomerInfo: testCustomer(),
		CartItems:    items,
	}
}

func (f *checkoutFixture) item(category models.SeatCategory, qty int) models.CartItem {
	return models.CartItem{
		ID:             "cart-" + category.Name,
		EventID:        f.event.ID.String(),
		SeatCategoryID: category.ID.String(),
		TicketType:     category.Name,
		Price:          category.Price,
		Quantity:       qty,
	}
}

func (f *checkoutFixture) verifyRequest(resp *models.CreatePaymentResponse, paymentID string) models.VerifyPaymentRequest {
	return models.VerifyPaymentRequest{
		PaymentID: paymentID,
		OrderID:   resp.OrderID,
		Signature: f.gateway.Sign(resp.OrderID, paymentID),
		BookingID: resp.BookingID,
	}
}
