package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventix/internal/helpers"
	"github.com/joshua-takyi/eventix/internal/metrics"
	"github.com/joshua-takyi/eventix/internal/models"
	"github.com/joshua-takyi/eventix/internal/payments"
	"github.com/joshua-takyi/eventix/internal/pricing"
	"github.com/shopspring/decimal"
)

const (
	maxTicketsPerCategory = 8
	paymentMethodCard     = "credit_card"
	verifiedMessage       = "Payment verified successfully"
)

type CheckoutService struct {
	catalog    models.CatalogRepo
	bookings   models.BookingRepo
	audit      models.AuditRepo
	gateway    payments.OrderGateway
	stripe     *payments.StripeGateway
	currency   string
	pendingTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewCheckoutService(
	catalog models.CatalogRepo,
	bookings models.BookingRepo,
	audit models.AuditRepo,
	gateway payments.OrderGateway,
	currency string,
	pendingTTL time.Duration,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		catalog:    catalog,
		bookings:   bookings,
		audit:      audit,
		gateway:    gateway,
		currency:   currency,
		pendingTTL: pendingTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// WithStripe enables the PaymentIntent path.
func (cs *CheckoutService) WithStripe(g *payments.StripeGateway) *CheckoutService {
	cs.stripe = g
	return cs
}

func (cs *CheckoutService) StripeEnabled() bool {
	return cs.stripe != nil
}

type pricedLine struct {
	category models.SeatCategory
	quantity int
}

// resolveCart maps browser cart entries onto the seat categories stored in the
// catalog and merges entries for the same category. Prices and availability
// always come from the catalog.
func (cs *CheckoutService) resolveCart(ctx context.Context, items []models.CartItem) ([]pricedLine, error) {
	if len(items) == 0 {
		return nil, models.ErrEmptyCart
	}

	quantities := make(map[uuid.UUID]int)
	var order []uuid.UUID
	add := func(id uuid.UUID, qty int) {
		if _, seen := quantities[id]; !seen {
			order = append(order, id)
		}
		quantities[id] += qty
	}

	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: cart item %d has no quantity", models.ErrValidation, i)
		}

		if item.SeatCategoryID != "" {
			id, err := uuid.Parse(item.SeatCategoryID)
			if err != nil {
				return nil, fmt.Errorf("%w: cart item %d has an invalid seat category id", models.ErrValidation, i)
			}
			add(id, item.Quantity)
			continue
		}

		if item.EventID == "" || strings.TrimSpace(item.TicketType) == "" {
			return nil, fmt.Errorf("%w: cart item %d does not name a seat category", models.ErrValidation, i)
		}
		eventID, err := uuid.Parse(item.EventID)
		if err != nil {
			return nil, fmt.Errorf("%w: cart item %d has an invalid event id", models.ErrValidation, i)
		}
		category, err := cs.catalog.FindSeatCategory(ctx, eventID, strings.TrimSpace(item.TicketType))
		if err != nil {
			return nil, err
		}
		add(category.ID, item.Quantity)
	}

	categories, err := cs.catalog.GetSeatCategories(ctx, order)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.SeatCategory, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	events := make(map[uuid.UUID]bool)
	lines := make([]pricedLine, 0, len(order))
	for _, id := range order {
		category, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", models.ErrSeatCategoryNotFound, id)
		}

		published, checked := events[category.EventID]
		if !checked {
			event, err := cs.catalog.GetEvent(ctx, category.EventID)
			if err != nil {
				return nil, err
			}
			published = event.IsPublished()
			events[category.EventID] = published
		}
		if !published {
			return nil, models.ErrEventNotBookable
		}

		qty := quantities[id]
		if qty > maxTicketsPerCategory {
			return nil, fmt.Errorf("%w: at most %d tickets per category", models.ErrValidation, maxTicketsPerCategory)
		}
		if qty > category.AvailableSeats {
			return nil, fmt.Errorf("%w: %s has %d left", models.ErrInsufficientSeats, category.Name, category.AvailableSeats)
		}
		lines = append(lines, pricedLine{category: category, quantity: qty})
	}

	return lines, nil
}

func quote(lines []pricedLine, schedule pricing.Schedule) pricing.Breakdown {
	priced := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		priced = append(priced, pricing.Line{UnitPrice: l.category.Price, Quantity: l.quantity})
	}
	return schedule.Apply(priced)
}

// CreatePayment re-prices the cart, opens a gateway order and stores exactly
// one pending booking for it.
func (cs *CheckoutService) CreatePayment(ctx context.Context, userID uuid.UUID, idempotencyKey string, req models.CreatePaymentRequest) (*models.CreatePaymentResponse, error) {
	return cs.createPayment(ctx, userID, idempotencyKey, req, pricing.CheckoutSchedule)
}

func (cs *CheckoutService) createPayment(ctx context.Context, userID uuid.UUID, idempotencyKey string, req models.CreatePaymentRequest, schedule pricing.Schedule) (*models.CreatePaymentResponse, error) {
	req.CustomerInfo = req.CustomerInfo.Normalized()
	if err := models.Validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	lines, err := cs.resolveCart(ctx, req.CartItems)
	if err != nil {
		return nil, err
	}

	total := quote(lines, schedule).Total
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: cart total must be positive", models.ErrValidation)
	}
	if req.Amount.Valid && !req.Amount.Decimal.Equal(total) {
		return nil, fmt.Errorf("%w: expected %s, got %s", models.ErrAmountMismatch, total, req.Amount.Decimal)
	}

	booking := cs.newPendingBooking(userID, lines, total, req.CustomerInfo, idempotencyKey)

	order, err := cs.gateway.CreateOrder(total, cs.currency, booking.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	booking.OrderID = order.ID

	if err := cs.bookings.CreatePendingBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	metrics.BookingCreated()
	cs.record(ctx, booking.ID, userID, models.AuditBookingCreated, models.BookingStatusPending, map[string]interface{}{
		"order_id": order.ID,
		"amount":   total.String(),
		"currency": cs.currency,
		"gateway":  cs.gateway.Name(),
	})

	return &models.CreatePaymentResponse{
		OrderID:     order.ID,
		Amount:      order.Amount,
		Currency:    cs.currency,
		BookingID:   booking.ID.String(),
		RazorpayKey: cs.gateway.KeyID(),
	}, nil
}

func (cs *CheckoutService) newPendingBooking(userID uuid.UUID, lines []pricedLine, total decimal.Decimal, customer models.CustomerInfo, idempotencyKey string) *models.Booking {
	now := cs.now().UTC()
	booking := &models.Booking{
		ID:             uuid.New(),
		UserID:         userID,
		TotalAmount:    total,
		Currency:       cs.currency,
		Status:         models.BookingStatusPending,
		CustomerName:   customer.FullName(),
		CustomerEmail:  customer.Email,
		CustomerPhone:  customer.Phone,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	sameEvent := true
	for _, l := range lines {
		booking.Quantity += l.quantity
		booking.Items = append(booking.Items, models.BookingItem{
			ID:             uuid.New(),
			BookingID:      booking.ID,
			SeatCategoryID: l.category.ID,
			EventID:        l.category.EventID,
			Quantity:       l.quantity,
			UnitPrice:      l.category.Price,
		})
		if l.category.EventID != lines[0].category.EventID {
			sameEvent = false
		}
	}
	if sameEvent {
		eventID := lines[0].category.EventID
		booking.EventID = &eventID
	}
	if len(lines) == 1 {
		categoryID := lines[0].category.ID
		booking.SeatCategoryID = &categoryID
	}
	return booking
}

// VerifyPayment checks the gateway signature before touching the booking, then
// confirms it and takes the seats in one transaction.
func (cs *CheckoutService) VerifyPayment(ctx context.Context, userID uuid.UUID, req models.VerifyPaymentRequest) (*models.VerifyPaymentResponse, error) {
	if err := models.Validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking id", models.ErrValidation)
	}

	if !cs.gateway.Verify(req.OrderID, req.PaymentID, req.Signature) {
		metrics.SignatureRejected(cs.gateway.Name())
		cs.record(ctx, bookingID, userID, models.AuditSignatureRejected, "", map[string]interface{}{
			"order_id":   req.OrderID,
			"payment_id": req.PaymentID,
		})
		return nil, models.ErrInvalidSignature
	}

	booking, err := cs.confirm(ctx, models.ConfirmParams{
		BookingID: bookingID,
		UserID:    userID,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		Gateway:   cs.gateway.Name(),
		Method:    paymentMethodCard,
	})
	if err != nil {
		return nil, err
	}

	return &models.VerifyPaymentResponse{
		Success:   true,
		BookingID: booking.ID.String(),
		Message:   verifiedMessage,
	}, nil
}

// confirm runs the confirmation transaction shared by every gateway.
func (cs *CheckoutService) confirm(ctx context.Context, p models.ConfirmParams) (*models.Booking, error) {
	ref, err := helpers.BookingReference(cs.now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}
	p.BookingReference = ref

	booking, err := cs.bookings.ConfirmBooking(ctx, p)
	switch {
	case errors.Is(err, models.ErrSoldOut):
		metrics.BookingOutcome(metrics.OutcomeSoldOut, p.Gateway)
		cs.logger.Warn("Seats exhausted after payment, booking left paid for refund",
			"booking_id", p.BookingID,
			"payment_id", p.PaymentID,
			"gateway", p.Gateway,
		)
		cs.record(ctx, p.BookingID, p.UserID, models.AuditBookingSoldOut, models.BookingStatusPaid, map[string]interface{}{
			"payment_id": p.PaymentID,
			"gateway":    p.Gateway,
		})
		return nil, err
	case err != nil:
		return nil, err
	}

	// ConfirmBooking returns the stored row unchanged when the same payment is
	// replayed; only the first confirmation is counted.
	if booking.BookingReference == ref {
		metrics.BookingOutcome(metrics.OutcomeConfirmed, p.Gateway)
		metrics.SeatsSold(booking.Quantity)
		cs.record(ctx, booking.ID, p.UserID, models.AuditBookingConfirmed, models.BookingStatusConfirmed, map[string]interface{}{
			"payment_id":        p.PaymentID,
			"gateway":           p.Gateway,
			"booking_reference": ref,
		})
	}
	return booking, nil
}

// Abandon releases a pending booking the caller no longer intends to pay for.
func (cs *CheckoutService) Abandon(ctx context.Context, userID, bookingID uuid.UUID) error {
	if err := cs.bookings.AbandonBooking(ctx, bookingID, userID); err != nil {
		return err
	}
	metrics.BookingOutcome(metrics.OutcomeAbandoned, cs.gateway.Name())
	cs.record(ctx, bookingID, userID, models.AuditBookingAbandoned, models.BookingStatusAbandoned, nil)
	return nil
}

// ExpirePending abandons pending bookings older than the configured TTL.
func (cs *CheckoutService) ExpirePending(ctx context.Context) (int64, error) {
	cutoff := cs.now().Add(-cs.pendingTTL)
	n, err := cs.bookings.ExpirePendingBookings(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending bookings: %w", err)
	}
	if n > 0 {
		cs.logger.Info("Expired pending bookings", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

// CreateStripeIntent opens a PaymentIntent for one of the caller's pending bookings.
func (cs *CheckoutService) CreateStripeIntent(ctx context.Context, userID, bookingID uuid.UUID) (*payments.Intent, error) {
	if cs.stripe == nil {
		return nil, errors.New("stripe is not configured")
	}

	booking, err := cs.bookings.GetBookingForUser(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, models.ErrBookingNotPending
	}

	intent, err := cs.stripe.CreateIntent(ctx, payments.IntentRequest{
		BookingID:   booking.ID.String(),
		UserID:      userID.String(),
		OrderID:     booking.OrderID,
		Amount:      booking.TotalAmount,
		Currency:    booking.Currency,
		Description: "Booking " + booking.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	cs.record(ctx, booking.ID, userID, models.AuditPaymentIntent, booking.Status, map[string]interface{}{
		"payment_intent_id": intent.ID,
	})
	return intent, nil
}

// HandleStripeWebhook verifies and applies a Stripe event. Events that do not
// concern a booking are acknowledged and ignored.
func (cs *CheckoutService) HandleStripeWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	if cs.stripe == nil {
		return errors.New("stripe is not configured")
	}

	event, err := cs.stripe.ParseWebhook(payload, sigHeader)
	if err != nil {
		metrics.SignatureRejected(cs.stripe.Name())
		return fmt.Errorf("%w: %v", models.ErrInvalidSignature, err)
	}

	cs.logger.Info("Received Stripe webhook event", "event_id", event.ID, "type", event.Type)

	switch event.Type {
	case payments.StripeIntentSucceeded, payments.StripeIntentFailed:
	default:
		return nil
	}

	bookingID, err := uuid.Parse(event.BookingID)
	if err != nil {
		cs.logger.Warn("Stripe event without booking metadata", "event_id", event.ID, "intent_id", event.IntentID)
		return nil
	}
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		cs.logger.Warn("Stripe event without user metadata", "event_id", event.ID, "intent_id", event.IntentID)
		return nil
	}

	if event.Type == payments.StripeIntentFailed {
		metrics.BookingOutcome(metrics.OutcomeFailed, cs.stripe.Name())
		cs.record(ctx, bookingID, userID, models.AuditPaymentFailed, models.BookingStatusPending, map[string]interface{}{
			"intent_id": event.IntentID,
			"reason":    event.FailureMessage,
		})
		return nil
	}

	booking, err := cs.bookings.GetBookingForUser(ctx, bookingID, userID)
	if err != nil {
		return err
	}
	if pricing.ToMinorUnits(booking.TotalAmount) != event.Amount {
		cs.logger.Error("Stripe amount does not match booking",
			"booking_id", bookingID,
			"expected", pricing.ToMinorUnits(booking.TotalAmount),
			"received", event.Amount,
		)
		return models.ErrAmountMismatch
	}

	_, err = cs.confirm(ctx, models.ConfirmParams{
		BookingID: bookingID,
		UserID:    userID,
		OrderID:   booking.OrderID,
		PaymentID: event.IntentID,
		Gateway:   cs.stripe.Name(),
		Method:    paymentMethodCard,
	})
	if errors.Is(err, models.ErrSoldOut) {
		// Stripe would retry a failed delivery; the booking is already parked as paid.
		return nil
	}
	return err
}

// QuoteCart prices a cart without creating anything.
func (cs *CheckoutService) QuoteCart(ctx context.Context, items []models.CartItem, schedule pricing.Schedule) (pricing.Breakdown, error) {
	lines, err := cs.resolveCart(ctx, items)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	return quote(lines, schedule), nil
}

func (cs *CheckoutService) record(ctx context.Context, bookingID, userID uuid.UUID, eventType string, status models.BookingStatus, detail map[string]interface{}) {
	err := cs.audit.AppendBookingEvent(ctx, &models.BookingEvent{
		BookingID: bookingID.String(),
		UserID:    userID.String(),
		Type:      eventType,
		Status:    status,
		Detail:    detail,
	})
	if err != nil {
		cs.logger.Error("Failed to append booking event",
			"booking_id", bookingID,
			"type", eventType,
			"error", err,
		)
	}
}
