package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventix/internal/models"
)

type DashboardService struct {
	dashboardRepo models.DashboardRepo
	auditRepo     models.AuditRepo
}

func NewDashboardService(dashboardRepo models.DashboardRepo, auditRepo models.AuditRepo) *DashboardService {
	return &DashboardService{
		dashboardRepo: dashboardRepo,
		auditRepo:     auditRepo,
	}
}

func (ds *DashboardService) ListUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Booking, int, error) {
	limit, offset = clampPage(limit, offset)
	bookings, total, err := ds.dashboardRepo.ListUserBookings(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, total, nil
}

func (ds *DashboardService) GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*models.Booking, error) {
	return ds.dashboardRepo.GetUserBooking(ctx, userID, bookingID)
}

// BookingHistory returns the audit trail of one of the caller's bookings.
func (ds *DashboardService) BookingHistory(ctx context.Context, userID, bookingID uuid.UUID) ([]models.BookingEvent, error) {
	if _, err := ds.dashboardRepo.GetUserBooking(ctx, userID, bookingID); err != nil {
		return nil, err
	}
	events, err := ds.auditRepo.ListBookingEvents(ctx, bookingID.String(), userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load booking history: %w", err)
	}
	return events, nil
}
