package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type BookingRepo interface {
	CreatePendingBooking(ctx context.Context, booking *Booking) error
	GetBookingForUser(ctx context.Context, id, userID uuid.UUID) (*Booking, error)
	ConfirmBooking(ctx context.Context, params ConfirmParams) (*Booking, error)
	AbandonBooking(ctx context.Context, id, userID uuid.UUID) error
	ExpirePendingBookings(ctx context.Context, createdBefore time.Time) (int64, error)
}

const bookingColumns = `
	id, user_id, event_id, seat_category_id, quantity, total_amount::text, currency, booking_status,
	customer_name, customer_email, customer_phone, order_id,
	COALESCE(payment_id, ''), COALESCE(booking_reference, ''), created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b      Booking
		total  string
		status string
	)
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.EventID,
		&b.SeatCategoryID,
		&b.Quantity,
		&total,
		&b.Currency,
		&status,
		&b.CustomerName,
		&b.CustomerEmail,
		&b.CustomerPhone,
		&b.OrderID,
		&b.PaymentID,
		&b.BookingReference,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	b.Status = BookingStatus(status)
	b.TotalAmount, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("invalid total_amount %q: %w", total, err)
	}
	return &b, nil
}

// CreatePendingBooking writes the booking row and its items in one transaction.
func (r *PostgresRepo) CreatePendingBooking(ctx context.Context, booking *Booking) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var idempotencyKey *string
	if booking.IdempotencyKey != "" {
		idempotencyKey = &booking.IdempotencyKey
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (
			id, user_id, event_id, seat_category_id, quantity, total_amount, currency, booking_status,
			customer_name, customer_email, customer_phone, order_id, idempotency_key, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		booking.ID,
		booking.UserID,
		booking.EventID,
		booking.SeatCategoryID,
		booking.Quantity,
		booking.TotalAmount.String(),
		booking.Currency,
		string(booking.Status),
		booking.CustomerName,
		booking.CustomerEmail,
		booking.CustomerPhone,
		booking.OrderID,
		idempotencyKey,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	for _, item := range booking.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO booking_items (id, booking_id, seat_category_id, event_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6::numeric)`,
			item.ID,
			booking.ID,
			item.SeatCategoryID,
			item.EventID,
			item.Quantity,
			item.UnitPrice.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert booking item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetBookingForUser(ctx context.Context, id, userID uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 AND user_id = $2`, id, userID)
	booking, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func loadItems(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID) ([]BookingItem, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, seat_category_id, event_id, quantity, unit_price::text
		FROM booking_items WHERE booking_id = $1`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking items: %w", err)
	}
	defer rows.Close()

	var items []BookingItem
	for rows.Next() {
		var (
			item  BookingItem
			price string
		)
		if err := rows.Scan(&item.ID, &item.SeatCategoryID, &item.EventID, &item.Quantity, &price); err != nil {
			return nil, fmt.Errorf("failed to scan booking item: %w", err)
		}
		item.BookingID = bookingID
		item.UnitPrice, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("invalid unit_price %q: %w", price, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ConfirmBooking applies a verified payment. The booking row is locked, every
// seat category is decremented with a conditional update and the payment is
// recorded, all in one transaction. When any category runs out the whole
// transaction is rolled back, the booking moves to paid and ErrSoldOut is returned.
func (r *PostgresRepo) ConfirmBooking(ctx context.Context, p ConfirmParams) (*Booking, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	booking, err := scanBooking(tx.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		p.BookingID, p.UserID))
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to lock booking: %w", err)
	}

	if booking.OrderID != p.OrderID {
		return nil, ErrOrderMismatch
	}
	if booking.Status == BookingStatusConfirmed {
		if booking.PaymentID == p.PaymentID {
			return booking, nil
		}
		return nil, ErrBookingNotPending
	}
	if !booking.Status.CanTransitionTo(BookingStatusConfirmed) {
		return nil, ErrBookingNotPending
	}

	items, err := loadItems(ctx, tx, booking.ID)
	if err != nil {
		return nil, err
	}
	// fixed lock order across concurrent confirmations
	sort.Slice(items, func(i, j int) bool {
		return items[i].SeatCategoryID.String() < items[j].SeatCategoryID.String()
	})

	for _, item := range items {
		tag, err := tx.Exec(ctx, `
			UPDATE seat_categories
			SET available_seats = available_seats - $1
			WHERE id = $2 AND available_seats >= $1`,
			item.Quantity, item.SeatCategoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement seats: %w", err)
		}
		if tag.RowsAffected() == 0 {
			tx.Rollback(ctx)
			if err := r.markPaid(ctx, booking, p); err != nil {
				return nil, err
			}
			return nil, ErrSoldOut
		}

		if _, err := tx.Exec(ctx, `
			UPDATE events
			SET available_seats = GREATEST(available_seats - $1, 0), updated_at = now()
			WHERE id = $2`,
			item.Quantity, item.EventID); err != nil {
			return nil, fmt.Errorf("failed to decrement event seats: %w", err)
		}
	}

	if err := insertPayment(ctx, tx, booking, p); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, `
		UPDATE bookings
		SET booking_status = $2, payment_id = $3, payment_signature = $4, booking_reference = $5, updated_at = $6
		WHERE id = $1`,
		booking.ID, string(BookingStatusConfirmed), p.PaymentID, p.Signature, p.BookingReference, now); err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit confirmation: %w", err)
	}

	booking.Status = BookingStatusConfirmed
	booking.PaymentID = p.PaymentID
	booking.PaymentSignature = p.Signature
	booking.BookingReference = p.BookingReference
	booking.UpdatedAt = now
	booking.Items = items
	return booking, nil
}

// markPaid records a captured payment for a booking whose seats are gone.
func (r *PostgresRepo) markPaid(ctx context.Context, booking *Booking, p ConfirmParams) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE bookings
		SET booking_status = $2, payment_id = $3, payment_signature = $4, updated_at = now()
		WHERE id = $1 AND booking_status = $5`,
		booking.ID, string(BookingStatusPaid), p.PaymentID, p.Signature, string(BookingStatusPending)); err != nil {
		return fmt.Errorf("failed to mark booking paid: %w", err)
	}
	if err := insertPayment(ctx, tx, booking, p); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit paid booking: %w", err)
	}
	return nil
}

func insertPayment(ctx context.Context, tx pgx.Tx, booking *Booking, p ConfirmParams) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO payments (id, booking_id, amount, currency, status, payment_method, transaction_id, gateway, created_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, now())
		ON CONFLICT (transaction_id) DO NOTHING`,
		uuid.New(),
		booking.ID,
		booking.TotalAmount.String(),
		booking.Currency,
		string(PaymentStatusCompleted),
		p.Method,
		p.PaymentID,
		p.Gateway,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (r *PostgresRepo) AbandonBooking(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET booking_status = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND booking_status = $4`,
		id, userID, string(BookingStatusAbandoned), string(BookingStatusPending))
	if err != nil {
		return fmt.Errorf("failed to abandon booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetBookingForUser(ctx, id, userID); err != nil {
			return err
		}
		return ErrBookingNotPending
	}
	return nil
}

func (r *PostgresRepo) ExpirePendingBookings(ctx context.Context, createdBefore time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET booking_status = $1, updated_at = now()
		WHERE booking_status = $2 AND created_at < $3`,
		string(BookingStatusAbandoned), string(BookingStatusPending), createdBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending bookings: %w", err)
	}
	return tag.RowsAffected(), nil
}
