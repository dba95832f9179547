package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type FlowStep string

const (
	StepSelectTickets FlowStep = "select_tickets"
	StepEnterInfo     FlowStep = "enter_info"
	StepPay           FlowStep = "pay"
	StepConfirmed     FlowStep = "confirmed"
)

// BookingDraft is the server-side state of the step-by-step booking wizard.
type BookingDraft struct {
	ID               uuid.UUID              `json:"id"`
	UserID           uuid.UUID              `json:"user_id"`
	EventID          uuid.UUID              `json:"event_id"`
	Step             FlowStep               `json:"step"`
	SeatCategoryID   *uuid.UUID             `json:"seat_category_id,omitempty"`
	SeatCategoryName string                 `json:"seat_category_name,omitempty"`
	UnitPrice        decimal.Decimal        `json:"unit_price"`
	Quantity         int                    `json:"quantity"`
	Subtotal         decimal.Decimal        `json:"subtotal"`
	ServiceFee       decimal.Decimal        `json:"service_fee"`
	Total            decimal.Decimal        `json:"total"`
	Customer         *CustomerInfo          `json:"customer,omitempty"`
	Payment          *CreatePaymentResponse `json:"payment,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// HasOrder reports whether a payment order was already opened for the draft.
func (d *BookingDraft) HasOrder() bool {
	return d.Payment != nil
}

type SelectTicketsRequest struct {
	SeatCategoryID string `json:"seat_category_id" validate:"required,uuid"`
	Quantity       int    `json:"quantity" validate:"gt=0"`
}

type DraftRepo interface {
	GetDraft(ctx context.Context, id uuid.UUID) (*BookingDraft, error)
	SaveDraft(ctx context.Context, draft *BookingDraft, ttl time.Duration) error
	DeleteDraft(ctx context.Context, id uuid.UUID) error
}

func draftKey(id uuid.UUID) string {
	return "booking_draft:" + id.String()
}

func (r *RedisRepo) GetDraft(ctx context.Context, id uuid.UUID) (*BookingDraft, error) {
	data, err := r.redisClient.Get(ctx, draftKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to load booking draft: %w", err)
	}

	var draft BookingDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to decode booking draft: %w", err)
	}
	return &draft, nil
}

func (r *RedisRepo) SaveDraft(ctx context.Context, draft *BookingDraft, ttl time.Duration) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode booking draft: %w", err)
	}
	if err := r.redisClient.Set(ctx, draftKey(draft.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save booking draft: %w", err)
	}
	return nil
}

func (r *RedisRepo) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	if err := r.redisClient.Del(ctx, draftKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete booking draft: %w", err)
	}
	return nil
}
