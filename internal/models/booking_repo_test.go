package models

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingRowColumns = []string{
	"id", "user_id", "event_id", "seat_category_id", "quantity", "total_amount", "currency", "booking_status",
	"customer_name", "customer_email", "customer_phone", "order_id",
	"payment_id", "booking_reference", "created_at", "updated_at",
}

type ledgerFixture struct {
	mock      pgxmock.PgxPoolIface
	repo      *PostgresRepo
	bookingID uuid.UUID
	userID    uuid.UUID
	eventID   uuid.UUID
	params    ConfirmParams
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	f := &ledgerFixture{
		mock:      mock,
		repo:      PostgresNewRepo(mock),
		bookingID: uuid.New(),
		userID:    uuid.New(),
		eventID:   uuid.New(),
	}
	f.params = ConfirmParams{
		BookingID:        f.bookingID,
		UserID:           f.userID,
		OrderID:          "order_1700000000000_abc123xyz",
		PaymentID:        "pay_1",
		Signature:        "5f2b0c",
		Gateway:          "razorpay",
		Method:           "razorpay",
		BookingReference: "BK-7Q2M9X",
	}
	return f
}

func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func (f *ledgerFixture) bookingRow(status BookingStatus, paymentID string) *pgxmock.Rows {
	now := time.Now().UTC()
	return pgxmock.NewRows(bookingRowColumns).AddRow(
		f.bookingID, f.userID, &f.eventID, nil, 3, "240.00", "INR", string(status),
		"Ama Mensah", "ama@example.com", "+233200000000", f.params.OrderID,
		paymentID, "", now, now,
	)
}

func (f *ledgerFixture) expectLock(rows *pgxmock.Rows) {
	f.mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	f.mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE id = $1 AND user_id = $2 FOR UPDATE`)).
		WithArgs(f.bookingID, f.userID).
		WillReturnRows(rows)
}

func (f *ledgerFixture) expectPayment() {
	f.mock.ExpectExec(`INSERT INTO payments .* ON CONFLICT \(transaction_id\) DO NOTHING`).
		WithArgs(pgxmock.AnyArg(), f.bookingID, "240", "INR", string(PaymentStatusCompleted), f.params.Method, f.params.PaymentID, f.params.Gateway).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func TestCreatePendingBookingWritesRowAndItems(t *testing.T) {
	f := newLedgerFixture(t)
	categoryID := uuid.New()
	now := time.Now().UTC()
	booking := &Booking{
		ID:            f.bookingID,
		UserID:        f.userID,
		EventID:       &f.eventID,
		Quantity:      2,
		TotalAmount:   decimal.NewFromInt(240),
		Currency:      "INR",
		Status:        BookingStatusPending,
		CustomerName:  "Ama Mensah",
		CustomerEmail: "ama@example.com",
		CustomerPhone: "+233200000000",
		OrderID:       f.params.OrderID,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items: []BookingItem{
			{ID: uuid.New(), SeatCategoryID: categoryID, EventID: f.eventID, Quantity: 2, UnitPrice: decimal.NewFromInt(100)},
		},
	}

	f.mock.ExpectBegin()
	f.mock.ExpectExec(`INSERT INTO bookings`).
		WithArgs(f.bookingID, f.userID, &f.eventID, (*uuid.UUID)(nil), 2, "240", "INR", "pending",
			"Ama Mensah", "ama@example.com", "+233200000000", f.params.OrderID, (*string)(nil), now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	f.mock.ExpectExec(`INSERT INTO booking_items`).
		WithArgs(booking.Items[0].ID, f.bookingID, categoryID, f.eventID, 2, "100").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	f.mock.ExpectCommit()

	require.NoError(t, f.repo.CreatePendingBooking(context.Background(), booking))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreatePendingBookingRollsBackOnItemFailure(t *testing.T) {
	f := newLedgerFixture(t)
	booking := &Booking{
		ID:             f.bookingID,
		UserID:         f.userID,
		TotalAmount:    decimal.NewFromInt(120),
		Status:         BookingStatusPending,
		IdempotencyKey: "attempt-1",
		Items:          []BookingItem{{ID: uuid.New(), SeatCategoryID: uuid.New(), EventID: f.eventID, Quantity: 1, UnitPrice: decimal.NewFromInt(100)}},
	}

	f.mock.ExpectBegin()
	f.mock.ExpectExec(`INSERT INTO bookings`).WithArgs(anyArgs(15)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	f.mock.ExpectExec(`INSERT INTO booking_items`).WithArgs(anyArgs(6)...).WillReturnError(errors.New("violates foreign key constraint"))
	f.mock.ExpectRollback()

	err := f.repo.CreatePendingBooking(context.Background(), booking)
	assert.ErrorContains(t, err, "failed to insert booking item")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestConfirmBookingTakesSeatsInCategoryOrder(t *testing.T) {
	f := newLedgerFixture(t)
	low := uuid.MustParse("00000000-0000-4000-8000-000000000001")
	high := uuid.MustParse("ffffffff-0000-4000-8000-000000000001")

	f.expectLock(f.bookingRow(BookingStatusPending, ""))
	f.mock.ExpectQuery(`FROM booking_items WHERE booking_id = \$1`).
		WithArgs(f.bookingID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "seat_category_id", "event_id", "quantity", "unit_price"}).
			AddRow(uuid.New(), high, f.eventID, 1, "40.00").
			AddRow(uuid.New(), low, f.eventID, 2, "80.00"))

	for _, step := range []struct {
		category uuid.UUID
		quantity int
	}{{low, 2}, {high, 1}} {
		f.mock.ExpectExec(`UPDATE seat_categories\s+SET available_seats = available_seats - \$1\s+WHERE id = \$2 AND available_seats >= \$1`).
			WithArgs(step.quantity, step.category).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		f.mock.ExpectExec(`UPDATE events`).
			WithArgs(step.quantity, f.eventID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	}
	f.expectPayment()
	f.mock.ExpectExec(`UPDATE bookings`).
		WithArgs(f.bookingID, "confirmed", f.params.PaymentID, f.params.Signature, f.params.BookingReference, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	f.mock.ExpectCommit()

	booking, err := f.repo.ConfirmBooking(context.Background(), f.params)
	require.NoError(t, err)
	assert.Equal(t, BookingStatusConfirmed, booking.Status)
	assert.Equal(t, f.params.BookingReference, booking.BookingReference)
	assert.True(t, booking.TotalAmount.Equal(decimal.NewFromInt(240)))
	require.Len(t, booking.Items, 2)
	assert.Equal(t, low, booking.Items[0].SeatCategoryID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestConfirmBookingSoldOutMarksPaid(t *testing.T) {
	f := newLedgerFixture(t)
	category := uuid.New()

	f.expectLock(f.bookingRow(BookingStatusPending, ""))
	f.mock.ExpectQuery(`FROM booking_items`).
		WithArgs(f.bookingID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "seat_category_id", "event_id", "quantity", "unit_price"}).
			AddRow(uuid.New(), category, f.eventID, 3, "80.00"))
	f.mock.ExpectExec(`UPDATE seat_categories`).
		WithArgs(3, category).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	f.mock.ExpectRollback()

	// the payment is kept in its own transaction once the seat update is undone
	f.mock.ExpectBegin()
	f.mock.ExpectExec(`UPDATE bookings\s+SET booking_status = \$2.*WHERE id = \$1 AND booking_status = \$5`).
		WithArgs(f.bookingID, "paid", f.params.PaymentID, f.params.Signature, "pending").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	f.expectPayment()
	f.mock.ExpectCommit()

	_, err := f.repo.ConfirmBooking(context.Background(), f.params)
	assert.ErrorIs(t, err, ErrSoldOut)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestConfirmBookingGuards(t *testing.T) {
	tests := []struct {
		name   string
		rows   func(f *ledgerFixture) *pgxmock.Rows
		mutate func(p *ConfirmParams)
		want   error
	}{
		{
			name: "missing or foreign booking",
			rows: func(f *ledgerFixture) *pgxmock.Rows { return pgxmock.NewRows(bookingRowColumns) },
			want: ErrBookingNotFound,
		},
		{
			name:   "order belongs to another booking",
			rows:   func(f *ledgerFixture) *pgxmock.Rows { return f.bookingRow(BookingStatusPending, "") },
			mutate: func(p *ConfirmParams) { p.OrderID = "order_other" },
			want:   ErrOrderMismatch,
		},
		{
			name: "confirmed with a different payment",
			rows: func(f *ledgerFixture) *pgxmock.Rows { return f.bookingRow(BookingStatusConfirmed, "pay_0") },
			want: ErrBookingNotPending,
		},
		{
			name: "abandoned",
			rows: func(f *ledgerFixture) *pgxmock.Rows { return f.bookingRow(BookingStatusAbandoned, "") },
			want: ErrBookingNotPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			f.expectLock(tt.rows(f))
			f.mock.ExpectRollback()

			params := f.params
			if tt.mutate != nil {
				tt.mutate(&params)
			}
			_, err := f.repo.ConfirmBooking(context.Background(), params)
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestConfirmBookingReplaysSamePayment(t *testing.T) {
	f := newLedgerFixture(t)
	f.expectLock(f.bookingRow(BookingStatusConfirmed, f.params.PaymentID))
	f.mock.ExpectRollback()

	booking, err := f.repo.ConfirmBooking(context.Background(), f.params)
	require.NoError(t, err)
	assert.Equal(t, BookingStatusConfirmed, booking.Status)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAbandonBooking(t *testing.T) {
	t.Run("pending", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.mock.ExpectExec(`UPDATE bookings SET booking_status = \$3`).
			WithArgs(f.bookingID, f.userID, "abandoned", "pending").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, f.repo.AbandonBooking(context.Background(), f.bookingID, f.userID))
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("already confirmed", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.mock.ExpectExec(`UPDATE bookings`).
			WithArgs(f.bookingID, f.userID, "abandoned", "pending").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		f.mock.ExpectQuery(`FROM bookings WHERE id = \$1 AND user_id = \$2`).
			WithArgs(f.bookingID, f.userID).
			WillReturnRows(f.bookingRow(BookingStatusConfirmed, "pay_1"))

		err := f.repo.AbandonBooking(context.Background(), f.bookingID, f.userID)
		assert.ErrorIs(t, err, ErrBookingNotPending)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("someone else's booking", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.mock.ExpectExec(`UPDATE bookings`).WithArgs(anyArgs(4)...).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		f.mock.ExpectQuery(`FROM bookings`).WithArgs(anyArgs(2)...).WillReturnRows(pgxmock.NewRows(bookingRowColumns))

		err := f.repo.AbandonBooking(context.Background(), f.bookingID, f.userID)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}

func TestExpirePendingBookings(t *testing.T) {
	f := newLedgerFixture(t)
	cutoff := time.Now().Add(-15 * time.Minute)
	f.mock.ExpectExec(`UPDATE bookings SET booking_status = \$1.*WHERE booking_status = \$2 AND created_at < \$3`).
		WithArgs("abandoned", "pending", cutoff).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := f.repo.ExpirePendingBookings(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
