package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventix/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlow(f *checkoutFixture) *BookingFlowService {
	return NewBookingFlowService(f.store, f.store, f.store, f.checkout, 30*time.Minute)
}

func TestBookingFlowHappyPath(t *testing.T) {
	f := newCheckoutFixture(t, 10, 10)
	flow := newFlow(f)
	ctx := context.Background()
	userID := uuid.New()

	draft, err := flow.StartDraft(ctx, userID, f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepSelectTickets, draft.Step)

	draft, err = flow.SelectTickets(ctx, userID, draft.ID, models.SelectTicketsRequest{
		SeatCategoryID: f.vip.ID.String(),
		Quantity:       2,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StepEnterInfo, draft.Step)
	assert.True(t, draft.Subtotal.Equal(decimal.NewFromInt(200)))
	assert.True(t, draft.ServiceFee.Equal(decimal.NewFromInt(20)))
	assert.True(t, draft.Total.Equal(decimal.NewFromInt(220)))

	draft, err = flow.EnterInfo(ctx, userID, draft.ID, testCustomer())
	require.NoError(t, err)
	assert.Equal(t, models.StepPay, draft.Step)

	_, err = flow.Confirm(ctx, userID, draft.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	draft, err = flow.Pay(ctx, userID, draft.ID)
	require.NoError(t, err)
	require.True(t, draft.HasOrder())
	assert.Equal(t, int64(22000), draft.Payment.Amount)

	again, err := flow.Pay(ctx, userID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.Payment.OrderID, again.Payment.OrderID)
	assert.Equal(t, 1, f.store.BookingCount())

	// payment not verified yet
	_, err = flow.Confirm(ctx, userID, draft.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = f.checkout.VerifyPayment(ctx, userID, f.verifyRequest(draft.Payment, "pay_flow"))
	require.NoError(t, err)

	draft, err = flow.Confirm(ctx, userID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepConfirmed, draft.Step)
}

func TestBookingFlowStepsBackBeforeOrder(t *testing.T) {
	f := newCheckoutFixture(t, 10, 10)
	flow := newFlow(f)
	ctx := context.Background()
	userID := uuid.New()

	draft, err := flow.StartDraft(ctx, userID, f.event.ID)
	require.NoError(t, err)

	_, err = flow.EnterInfo(ctx, userID, draft.ID, testCustomer())
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = flow.SelectTickets(ctx, userID, draft.ID, models.SelectTicketsRequest{SeatCategoryID: f.vip.ID.String(), Quantity: 1})
	require.NoError(t, err)
	_, err = flow.EnterInfo(ctx, userID, draft.ID, testCustomer())
	require.NoError(t, err)

	// changing the selection from the pay step goes back to enter_info
	draft, err = flow.SelectTickets(ctx, userID, draft.ID, models.SelectTicketsRequest{SeatCategoryID: f.general.ID.String(), Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, models.StepEnterInfo, draft.Step)
	assert.Equal(t, "General", draft.SeatCategoryName)

	_, err = flow.EnterInfo(ctx, userID, draft.ID, testCustomer())
	require.NoError(t, err)
	_, err = flow.Pay(ctx, userID, draft.ID)
	require.NoError(t, err)

	_, err = flow.SelectTickets(ctx, userID, draft.ID, models.SelectTicketsRequest{SeatCategoryID: f.vip.ID.String(), Quantity: 1})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	_, err = flow.EnterInfo(ctx, userID, draft.ID, testCustomer())
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestBookingFlowSelectionLimits(t *testing.T) {
	f := newCheckoutFixture(t, 3, 20)
	flow := newFlow(f)
	ctx := context.Background()
	userID := uuid.New()

	draft, err := flow.StartDraft(ctx, userID, f.event.ID)
	require.NoError(t, err)

	_, err = flow.SelectTickets(ctx, userID, draft.ID, models.SelectTicketsRequest{SeatCategoryID: f.vip.ID.String(), Quantity: 4})
	assert.ErrorIs(t, err, models.ErrInsufficientSeats)

	_, err = flow.SelectTickets(ctx, userID, draft.ID, models.SelectTicketsRequest{SeatCategoryID: f.general.ID.String(), Quantity: 9})
	assert.ErrorIs(t, err, models.ErrInsufficientSeats)

	_, err = flow.SelectTickets(ctx, userID, draft.ID, models.SelectTicketsRequest{SeatCategoryID: f.general.ID.String(), Quantity: 0})
	assert.ErrorIs(t, err, models.ErrValidation)

	other := models.Event{ID: uuid.New(), Title: "Elsewhere", Status: models.EventStatusPublished}
	foreign := models.SeatCategory{ID: uuid.New(), Name: "Pit", Price: decimal.NewFromInt(10), TotalSeats: 5, AvailableSeats: 5}
	f.store.PutEvent(other, foreign)
	_, err = flow.SelectTickets(ctx, userID, draft.ID, models.SelectTicketsRequest{SeatCategoryID: foreign.ID.String(), Quantity: 1})
	assert.ErrorIs(t, err, models.ErrSeatCategoryNotFound)
}

func TestBookingFlowOwnership(t *testing.T) {
	f := newCheckoutFixture(t, 10, 10)
	flow := newFlow(f)
	ctx := context.Background()
	owner := uuid.New()

	draft, err := flow.StartDraft(ctx, owner, f.event.ID)
	require.NoError(t, err)

	_, err = flow.GetDraft(ctx, uuid.New(), draft.ID)
	assert.ErrorIs(t, err, models.ErrDraftNotFound)
	assert.ErrorIs(t, flow.Discard(ctx, uuid.New(), draft.ID), models.ErrDraftNotFound)

	require.NoError(t, flow.Discard(ctx, owner, draft.ID))
	_, err = flow.GetDraft(ctx, owner, draft.ID)
	assert.ErrorIs(t, err, models.ErrDraftNotFound)
}

func TestBookingFlowRequiresPublishedEvent(t *testing.T) {
	f := newCheckoutFixture(t, 10, 10)
	flow := newFlow(f)

	draftEvent := models.Event{ID: uuid.New(), Title: "Not yet", Status: models.EventStatusDraft}
	f.store.PutEvent(draftEvent)

	_, err := flow.StartDraft(context.Background(), uuid.New(), draftEvent.ID)
	assert.ErrorIs(t, err, models.ErrEventNotBookable)

	_, err = flow.StartDraft(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, models.ErrEventNotFound)
}
