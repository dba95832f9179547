package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusPaid      BookingStatus = "paid" // money captured, seats could not be applied
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusAbandoned BookingStatus = "abandoned"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending: {BookingStatusPaid, BookingStatusConfirmed, BookingStatusAbandoned},
	BookingStatusPaid:    {BookingStatusConfirmed},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusPaid, BookingStatusConfirmed, BookingStatusAbandoned:
		return true
	}
	return false
}

type Booking struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	EventID          *uuid.UUID      `json:"event_id,omitempty"`
	SeatCategoryID   *uuid.UUID      `json:"seat_category_id,omitempty"`
	Quantity         int             `json:"quantity"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Currency         string          `json:"currency"`
	Status           BookingStatus   `json:"booking_status"`
	CustomerName     string          `json:"customer_name"`
	CustomerEmail    string          `json:"customer_email"`
	CustomerPhone    string          `json:"customer_phone"`
	OrderID          string          `json:"order_id"`
	PaymentID        string          `json:"payment_id,omitempty"`
	PaymentSignature string          `json:"-"`
	BookingReference string          `json:"booking_reference,omitempty"`
	IdempotencyKey   string          `json:"-"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Items []BookingItem `json:"booking_items,omitempty"`

	// dashboard joins
	Event        *Event        `json:"events,omitempty"`
	SeatCategory *SeatCategory `json:"seat_categories,omitempty"`
	Payments     []Payment     `json:"payments,omitempty"`
}

type BookingItem struct {
	ID             uuid.UUID       `json:"id"`
	BookingID      uuid.UUID       `json:"booking_id"`
	SeatCategoryID uuid.UUID       `json:"seat_category_id"`
	EventID        uuid.UUID       `json:"event_id"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
}

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type Payment struct {
	ID            uuid.UUID       `json:"id"`
	BookingID     uuid.UUID       `json:"booking_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        PaymentStatus   `json:"status"`
	Method        string          `json:"payment_method"`
	TransactionID string          `json:"transaction_id"`
	Gateway       string          `json:"gateway"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ConfirmParams carries a verified gateway payment into the confirmation transaction.
type ConfirmParams struct {
	BookingID        uuid.UUID
	UserID           uuid.UUID
	OrderID          string
	PaymentID        string
	Signature        string
	Gateway          string
	Method           string
	BookingReference string
}

// CartItem mirrors the browser cart entry; price and title are display copies
// and are never trusted for the charged amount.
type CartItem struct {
	ID             string          `json:"id"`
	EventID        string          `json:"eventId"`
	SeatCategoryID string          `json:"seatCategoryId"`
	EventTitle     string          `json:"eventTitle"`
	EventDate      string          `json:"eventDate"`
	EventVenue     string          `json:"eventVenue"`
	TicketType     string          `json:"ticketType"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity" validate:"gte=1,lte=8"`
}

type CustomerInfo struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,loose_email"`
	Phone     string `json:"phone" validate:"required"`
}

// Normalized returns the details with surrounding whitespace removed, so a
// blank field fails the required checks.
func (c CustomerInfo) Normalized() CustomerInfo {
	return CustomerInfo{
		FirstName: strings.TrimSpace(c.FirstName),
		LastName:  strings.TrimSpace(c.LastName),
		Email:     strings.TrimSpace(c.Email),
		Phone:     strings.TrimSpace(c.Phone),
	}
}

func (c CustomerInfo) FullName() string {
	return c.FirstName + " " + c.LastName
}

type CreatePaymentRequest struct {
	Amount       decimal.NullDecimal `json:"amount"`
	CustomerInfo CustomerInfo        `json:"customerInfo"`
	CartItems    []CartItem          `json:"cartItems" validate:"required,min=1,dive"`
}

type CreatePaymentResponse struct {
	OrderID     string `json:"orderId"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	BookingID   string `json:"bookingId"`
	RazorpayKey string `json:"razorpayKey"`
}

type VerifyPaymentRequest struct {
	PaymentID string `json:"paymentId" validate:"required"`
	OrderID   string `json:"orderId" validate:"required"`
	Signature string `json:"signature" validate:"required"`
	BookingID string `json:"bookingId" validate:"required,uuid"`
}

type VerifyPaymentResponse struct {
	Success   bool   `json:"success"`
	BookingID string `json:"bookingId"`
	Message   string `json:"message"`
}
