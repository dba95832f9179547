package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	postgrest "github.com/supabase-community/postgrest-go"
)

const (
	ProfileTable      = "profiles"
	EventsTable       = "events"
	VenuesTable       = "venues"
	SeatCategoryTable = "seat_categories"
	BookingsTable     = "bookings"
	PaymentsTable     = "payments"
	RoleRequestsTable = "role_requests"
)

const eventSelect = "*,venues(*),seat_categories(*)"

type CatalogRepo interface {
	ListPublishedEvents(ctx context.Context, filter EventFilter) ([]Event, int, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	GetSeatCategories(ctx context.Context, ids []uuid.UUID) ([]SeatCategory, error)
	FindSeatCategory(ctx context.Context, eventID uuid.UUID, name string) (*SeatCategory, error)
	CreateEvent(ctx context.Context, event *Event, categories []SeatCategory, accessToken string) (*Event, error)
	UpdateEventStatus(ctx context.Context, id uuid.UUID, status EventStatus, accessToken string) error
	CreateVenue(ctx context.Context, venue *Venue, accessToken string) (*Venue, error)
	ListVenues(ctx context.Context, offset, limit int) ([]Venue, int, error)
}

// characters that carry meaning inside a PostgREST or=() filter or a LIKE pattern
var filterReplacer = strings.NewReplacer(",", " ", "(", " ", ")", " ", "*", " ", ".", " ", "%", " ", "_", " ", `\`, " ")

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likeLiteral turns s into an ilike pattern that only matches s itself, case
// aside. PostgREST rewrites every '*' to '%' before the escape applies, so a
// value containing one cannot be matched literally and ok is false.
func likeLiteral(s string) (pattern string, ok bool) {
	if strings.Contains(s, "*") {
		return "", false
	}
	return likeEscaper.Replace(s), true
}

func (su *SupabaseRepo) ListPublishedEvents(ctx context.Context, filter EventFilter) ([]Event, int, error) {
	query := su.supabaseClient.From(EventsTable).
		Select(eventSelect, "exact", false).
		Eq("status", string(EventStatusPublished))

	if filter.Category != "" {
		category, ok := likeLiteral(filter.Category)
		if !ok {
			return []Event{}, 0, nil
		}
		query = query.Ilike("category", category)
	}
	if search := strings.TrimSpace(filterReplacer.Replace(filter.Search)); search != "" {
		query = query.Or(fmt.Sprintf("title.ilike.*%s*,description.ilike.*%s*", search, search), "")
	}

	data, count, err := query.
		Order("start_date", &postgrest.OrderOpts{Ascending: true}).
		Range(filter.Offset, filter.Offset+filter.Limit-1, "").
		Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}

	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal events: %w", err)
	}

	return events, int(count), nil
}

func (su *SupabaseRepo) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	data, _, err := su.supabaseClient.From(EventsTable).
		Select(eventSelect, "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if len(events) == 0 {
		return nil, ErrEventNotFound
	}

	return &events[0], nil
}

func (su *SupabaseRepo) GetSeatCategories(ctx context.Context, ids []uuid.UUID) ([]SeatCategory, error) {
	if len(ids) == 0 {
		return []SeatCategory{}, nil
	}

	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, id.String())
	}

	data, _, err := su.supabaseClient.From(SeatCategoryTable).
		Select("*", "", false).
		In("id", values).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get seat categories: %w", err)
	}

	var categories []SeatCategory
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seat categories: %w", err)
	}

	return categories, nil
}

func (su *SupabaseRepo) FindSeatCategory(ctx context.Context, eventID uuid.UUID, name string) (*SeatCategory, error) {
	pattern, ok := likeLiteral(name)
	if !ok {
		return nil, ErrSeatCategoryNotFound
	}

	data, _, err := su.supabaseClient.From(SeatCategoryTable).
		Select("*", "", false).
		Eq("event_id", eventID.String()).
		Ilike("name", pattern).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to find seat category: %w", err)
	}

	var categories []SeatCategory
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seat category: %w", err)
	}
	if len(categories) == 0 {
		return nil, ErrSeatCategoryNotFound
	}

	return &categories[0], nil
}

// CreateEvent inserts the event and then its seat categories. PostgREST has no
// multi-statement transaction, so a failed category insert removes the event again.
func (su *SupabaseRepo) CreateEvent(ctx context.Context, event *Event, categories []SeatCategory, accessToken string) (*Event, error) {
	client, err := su.GetAuthenticatedClient(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticated client: %w", err)
	}

	eventData := map[string]interface{}{
		"id":              event.ID,
		"organizer_id":    event.OrganizerID,
		"venue_id":        event.VenueID,
		"title":           event.Title,
		"description":     event.Description,
		"category":        event.Category,
		"start_date":      event.StartDate,
		"end_date":        event.EndDate,
		"base_price":      event.BasePrice,
		"total_seats":     event.TotalSeats,
		"available_seats": event.AvailableSeats,
		"tags":            event.Tags,
		"is_featured":     event.IsFeatured,
		"status":          event.Status,
		"created_at":      event.CreatedAt,
		"updated_at":      event.UpdatedAt,
	}

	data, _, err := client.From(EventsTable).
		Insert(eventData, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	var created []Event
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("failed to unmarshal created event: %w", err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("no event returned after insert")
	}

	rows := make([]map[string]interface{}, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, map[string]interface{}{
			"id":              c.ID,
			"event_id":        event.ID,
			"name":            c.Name,
			"price":           c.Price,
			"total_seats":     c.TotalSeats,
			"available_seats": c.AvailableSeats,
			"description":     c.Description,
		})
	}

	data, _, err = client.From(SeatCategoryTable).
		Insert(rows, false, "", "representation", "").
		Execute()
	if err != nil {
		_, _, _ = client.From(EventsTable).Delete("minimal", "").Eq("id", event.ID.String()).Execute()
		return nil, fmt.Errorf("failed to insert seat categories: %w", err)
	}

	var createdCategories []SeatCategory
	if err := json.Unmarshal(data, &createdCategories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seat categories: %w", err)
	}

	result := created[0]
	result.SeatCategories = createdCategories
	return &result, nil
}

func (su *SupabaseRepo) UpdateEventStatus(ctx context.Context, id uuid.UUID, status EventStatus, accessToken string) error {
	client, err := su.GetAuthenticatedClient(accessToken)
	if err != nil {
		return fmt.Errorf("failed to create authenticated client: %w", err)
	}

	data, _, err := client.From(EventsTable).
		Update(map[string]interface{}{"status": status}, "representation", "").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}

	var updated []map[string]interface{}
	if err := json.Unmarshal(data, &updated); err != nil {
		return fmt.Errorf("failed to unmarshal updated event: %w", err)
	}
	if len(updated) == 0 {
		return ErrEventNotFound
	}

	return nil
}

func (su *SupabaseRepo) CreateVenue(ctx context.Context, venue *Venue, accessToken string) (*Venue, error) {
	client, err := su.GetAuthenticatedClient(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticated client: %w", err)
	}

	data, _, err := client.From(VenuesTable).
		Insert(venue, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to insert venue: %w", err)
	}

	var created []Venue
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("failed to unmarshal venue: %w", err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("no venue returned after insert")
	}

	return &created[0], nil
}

func (su *SupabaseRepo) ListVenues(ctx context.Context, offset, limit int) ([]Venue, int, error) {
	data, count, err := su.supabaseClient.From(VenuesTable).
		Select("*", "exact", false).
		Order("name", &postgrest.OrderOpts{Ascending: true}).
		Range(offset, offset+limit-1, "").
		Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get venues: %w", err)
	}

	var venues []Venue
	if err := json.Unmarshal(data, &venues); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal venues: %w", err)
	}

	return venues, int(count), nil
}
