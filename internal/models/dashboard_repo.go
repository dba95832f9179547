package models

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	postgrest "github.com/supabase-community/postgrest-go"
)

const bookingSelect = "*,booking_items(*),events(*,venues(*)),seat_categories(*),payments(*)"

type DashboardRepo interface {
	ListUserBookings(ctx context.Context, userID uuid.UUID, offset, limit int) ([]Booking, int, error)
	GetUserBooking(ctx context.Context, userID, bookingID uuid.UUID) (*Booking, error)
}

func (su *SupabaseRepo) ListUserBookings(ctx context.Context, userID uuid.UUID, offset, limit int) ([]Booking, int, error) {
	data, count, err := su.supabaseClient.From(BookingsTable).
		Select(bookingSelect, "exact", false).
		Eq("user_id", userID.String()).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Range(offset, offset+limit-1, "").
		Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	var bookings []Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal bookings: %w", err)
	}

	return bookings, int(count), nil
}

func (su *SupabaseRepo) GetUserBooking(ctx context.Context, userID, bookingID uuid.UUID) (*Booking, error) {
	data, _, err := su.supabaseClient.From(BookingsTable).
		Select(bookingSelect, "", false).
		Eq("id", bookingID.String()).
		Eq("user_id", userID.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	var bookings []Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking: %w", err)
	}
	if len(bookings) == 0 {
		return nil, ErrBookingNotFound
	}

	return &bookings[0], nil
}
