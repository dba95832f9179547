package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventix/internal/models"
	"github.com/joshua-takyi/eventix/internal/pricing"
)

// BookingFlowService drives the ticket wizard:
// select_tickets -> enter_info -> pay -> confirmed.
// Drafts may step back to select_tickets or enter_info until an order is opened.
type BookingFlowService struct {
	drafts   models.DraftRepo
	catalog  models.CatalogRepo
	bookings models.BookingRepo
	checkout *CheckoutService
	ttl      time.Duration
}

func NewBookingFlowService(drafts models.DraftRepo, catalog models.CatalogRepo, bookings models.BookingRepo, checkout *CheckoutService, ttl time.Duration) *BookingFlowService {
	return &BookingFlowService{
		drafts:   drafts,
		catalog:  catalog,
		bookings: bookings,
		checkout: checkout,
		ttl:      ttl,
	}
}

func (bf *BookingFlowService) load(ctx context.Context, userID, draftID uuid.UUID) (*models.BookingDraft, error) {
	draft, err := bf.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.UserID != userID {
		return nil, models.ErrDraftNotFound
	}
	return draft, nil
}

func (bf *BookingFlowService) save(ctx context.Context, draft *models.BookingDraft) (*models.BookingDraft, error) {
	draft.UpdatedAt = time.Now().UTC()
	if err := bf.drafts.SaveDraft(ctx, draft, bf.ttl); err != nil {
		return nil, err
	}
	return draft, nil
}

func (bf *BookingFlowService) StartDraft(ctx context.Context, userID, eventID uuid.UUID) (*models.BookingDraft, error) {
	event, err := bf.catalog.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsPublished() {
		return nil, models.ErrEventNotBookable
	}

	now := time.Now().UTC()
	return bf.save(ctx, &models.BookingDraft{
		ID:        uuid.New(),
		UserID:    userID,
		EventID:   eventID,
		Step:      models.StepSelectTickets,
		CreatedAt: now,
	})
}

func (bf *BookingFlowService) GetDraft(ctx context.Context, userID, draftID uuid.UUID) (*models.BookingDraft, error) {
	return bf.load(ctx, userID, draftID)
}

// SelectTickets picks a seat category of the draft's event and a quantity of
// at most min(8, available seats).
func (bf *BookingFlowService) SelectTickets(ctx context.Context, userID, draftID uuid.UUID, req models.SelectTicketsRequest) (*models.BookingDraft, error) {
	if err := models.Validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	draft, err := bf.load(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}
	if draft.Step == models.StepConfirmed || draft.HasOrder() {
		return nil, models.ErrInvalidTransition
	}

	categoryID := uuid.MustParse(req.SeatCategoryID)
	categories, err := bf.catalog.GetSeatCategories(ctx, []uuid.UUID{categoryID})
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 || categories[0].EventID != draft.EventID {
		return nil, models.ErrSeatCategoryNotFound
	}
	category := categories[0]

	limit := maxTicketsPerCategory
	if category.AvailableSeats < limit {
		limit = category.AvailableSeats
	}
	if req.Quantity > limit {
		return nil, fmt.Errorf("%w: at most %d tickets can be selected", models.ErrInsufficientSeats, limit)
	}

	quote := pricing.BookingFlowSchedule.Apply([]pricing.Line{{UnitPrice: category.Price, Quantity: req.Quantity}})

	draft.SeatCategoryID = &category.ID
	draft.SeatCategoryName = category.Name
	draft.UnitPrice = category.Price
	draft.Quantity = req.Quantity
	draft.Subtotal = quote.Subtotal
	draft.ServiceFee = quote.BookingFee
	draft.Total = quote.Total
	draft.Step = models.StepEnterInfo
	return bf.save(ctx, draft)
}

// EnterInfo stores the attendee details and moves the draft to payment.
func (bf *BookingFlowService) EnterInfo(ctx context.Context, userID, draftID uuid.UUID, customer models.CustomerInfo) (*models.BookingDraft, error) {
	customer = customer.Normalized()
	if err := models.Validate.Struct(customer); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	draft, err := bf.load(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}
	if draft.Step == models.StepSelectTickets || draft.Step == models.StepConfirmed || draft.HasOrder() {
		return nil, models.ErrInvalidTransition
	}

	draft.Customer = &customer
	draft.Step = models.StepPay
	return bf.save(ctx, draft)
}

// Pay opens the payment order through the checkout. Calling it again returns
// the order that is already open.
func (bf *BookingFlowService) Pay(ctx context.Context, userID, draftID uuid.UUID) (*models.BookingDraft, error) {
	draft, err := bf.load(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}
	if draft.Step != models.StepPay {
		return nil, models.ErrInvalidTransition
	}
	if draft.HasOrder() {
		return draft, nil
	}

	req := models.CreatePaymentRequest{
		CustomerInfo: *draft.Customer,
		CartItems: []models.CartItem{{
			EventID:        draft.EventID.String(),
			SeatCategoryID: draft.SeatCategoryID.String(),
			TicketType:     draft.SeatCategoryName,
			Price:          draft.UnitPrice,
			Quantity:       draft.Quantity,
		}},
	}
	req.Amount.Decimal = draft.Total
	req.Amount.Valid = true

	payment, err := bf.checkout.createPayment(ctx, userID, "draft:"+draft.ID.String(), req, pricing.BookingFlowSchedule)
	if err != nil {
		return nil, err
	}

	draft.Payment = payment
	return bf.save(ctx, draft)
}

// Confirm finishes the wizard once the ledger shows the booking confirmed.
func (bf *BookingFlowService) Confirm(ctx context.Context, userID, draftID uuid.UUID) (*models.BookingDraft, error) {
	draft, err := bf.load(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}
	if draft.Step == models.StepConfirmed {
		return draft, nil
	}
	if !draft.HasOrder() {
		return nil, models.ErrInvalidTransition
	}

	bookingID, err := uuid.Parse(draft.Payment.BookingID)
	if err != nil {
		return nil, fmt.Errorf("draft holds an invalid booking id: %w", err)
	}
	booking, err := bf.bookings.GetBookingForUser(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, fmt.Errorf("%w: booking is %s", models.ErrInvalidTransition, booking.Status)
	}

	draft.Step = models.StepConfirmed
	return bf.save(ctx, draft)
}

func (bf *BookingFlowService) Discard(ctx context.Context, userID, draftID uuid.UUID) error {
	if _, err := bf.load(ctx, userID, draftID); err != nil {
		return err
	}
	return bf.drafts.DeleteDraft(ctx, draftID)
}
