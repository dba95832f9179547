package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventix/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type CatalogService struct {
	catalogRepo models.CatalogRepo
}

func NewCatalogService(catalogRepo models.CatalogRepo) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (cs *CatalogService) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Search = strings.TrimSpace(filter.Search)
	if strings.EqualFold(filter.Category, "all") {
		filter.Category = ""
	}

	events, total, err := cs.catalogRepo.ListPublishedEvents(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	return events, total, nil
}

// GetEvent returns a published event. Drafts are only visible to their organizer
// and to admins.
func (cs *CatalogService) GetEvent(ctx context.Context, id uuid.UUID, viewer uuid.UUID, isAdmin bool) (*models.Event, error) {
	event, err := cs.catalogRepo.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.IsPublished() && !isAdmin && event.OrganizerID != viewer {
		return nil, models.ErrEventNotFound
	}
	return event, nil
}

// CreateEvent stores a draft event with its seat categories. Event seat totals
// are the sum of its categories.
func (cs *CatalogService) CreateEvent(ctx context.Context, organizerID uuid.UUID, req *models.CreateEventRequest, accessToken string) (*models.Event, error) {
	if err := models.Validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end_date is before start_date", models.ErrValidation)
	}

	now := time.Now().UTC()
	event := &models.Event{
		ID:          uuid.New(),
		OrganizerID: organizerID,
		VenueID:     req.VenueID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		BasePrice:   req.BasePrice,
		Tags:        models.SplitTags(req.Tags),
		IsFeatured:  req.IsFeatured,
		Status:      models.EventStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	categories := make([]models.SeatCategory, 0, len(req.SeatCategories))
	seen := make(map[string]bool)
	for _, in := range req.SeatCategories {
		name := strings.TrimSpace(in.Name)
		if seen[strings.ToLower(name)] {
			return nil, fmt.Errorf("%w: duplicate seat category %q", models.ErrValidation, name)
		}
		seen[strings.ToLower(name)] = true
		if in.Price.IsNegative() {
			return nil, fmt.Errorf("%w: seat category %q has a negative price", models.ErrValidation, name)
		}

		categories = append(categories, models.SeatCategory{
			ID:             uuid.New(),
			EventID:        event.ID,
			Name:           name,
			Price:          in.Price,
			TotalSeats:     in.TotalSeats,
			AvailableSeats: in.TotalSeats,
			Description:    in.Description,
		})
		event.TotalSeats += in.TotalSeats
	}
	event.AvailableSeats = event.TotalSeats

	if event.BasePrice.IsZero() {
		event.BasePrice = categories[0].Price
		for _, c := range categories[1:] {
			if c.Price.LessThan(event.BasePrice) {
				event.BasePrice = c.Price
			}
		}
	}

	return cs.catalogRepo.CreateEvent(ctx, event, categories, accessToken)
}

// PublishEvent makes a draft visible in the catalog. Only the organizer who
// owns the event or an admin may publish it.
func (cs *CatalogService) PublishEvent(ctx context.Context, id, actor uuid.UUID, isAdmin bool, accessToken string) error {
	event, err := cs.catalogRepo.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && event.OrganizerID != actor {
		return models.ErrForbidden
	}
	if event.IsPublished() {
		return nil
	}
	return cs.catalogRepo.UpdateEventStatus(ctx, id, models.EventStatusPublished, accessToken)
}

func (cs *CatalogService) CreateVenue(ctx context.Context, venue *models.Venue, accessToken string) (*models.Venue, error) {
	if err := models.Validate.Struct(venue); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if venue.ID == uuid.Nil {
		venue.ID = uuid.New()
	}
	venue.CreatedAt = time.Now().UTC()
	return cs.catalogRepo.CreateVenue(ctx, venue, accessToken)
}

func (cs *CatalogService) ListVenues(ctx context.Context, offset, limit int) ([]models.Venue, int, error) {
	limit, offset = clampPage(limit, offset)
	return cs.catalogRepo.ListVenues(ctx, offset, limit)
}
