package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
)

type Venue struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name" validate:"required,min=2,max=200"`
	Address   string    `json:"address" validate:"required"`
	City      string    `json:"city" validate:"required"`
	State     string    `json:"state"`
	Country   string    `json:"country" validate:"required"`
	Capacity  int       `json:"capacity" validate:"gte=0"`
	Amenities []string  `json:"amenities"`
	CreatedAt time.Time `json:"created_at"`
}

type SeatCategory struct {
	ID             uuid.UUID       `json:"id"`
	EventID        uuid.UUID       `json:"event_id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	TotalSeats     int             `json:"total_seats"`
	AvailableSeats int             `json:"available_seats"`
	Description    string          `json:"description"`
}

type Event struct {
	ID             uuid.UUID       `json:"id"`
	OrganizerID    uuid.UUID       `json:"organizer_id"`
	VenueID        *uuid.UUID      `json:"venue_id,omitempty"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        *time.Time      `json:"end_date,omitempty"`
	BasePrice      decimal.Decimal `json:"base_price"`
	TotalSeats     int             `json:"total_seats"`
	AvailableSeats int             `json:"available_seats"`
	Tags           []string        `json:"tags"`
	IsFeatured     bool            `json:"is_featured"`
	Status         EventStatus     `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// embedded resources returned by catalog selects
	Venue          *Venue         `json:"venues,omitempty"`
	SeatCategories []SeatCategory `json:"seat_categories,omitempty"`
}

func (e *Event) IsPublished() bool {
	return e.Status == EventStatusPublished
}

type EventFilter struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

type SeatCategoryInput struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price"`
	TotalSeats  int             `json:"total_seats" validate:"gt=0"`
	Description string          `json:"description"`
}

type CreateEventRequest struct {
	Title          string              `json:"title" validate:"required,min=3,max=200"`
	Description    string              `json:"description" validate:"required"`
	Category       string              `json:"category" validate:"required"`
	VenueID        *uuid.UUID          `json:"venue_id"`
	StartDate      time.Time           `json:"start_date" validate:"required"`
	EndDate        *time.Time          `json:"end_date"`
	BasePrice      decimal.Decimal     `json:"base_price"`
	Tags           string              `json:"tags"`
	IsFeatured     bool                `json:"is_featured"`
	SeatCategories []SeatCategoryInput `json:"seat_categories" validate:"required,min=1,dive"`
}

// SplitTags turns the comma separated tag field into a clean list.
func SplitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
