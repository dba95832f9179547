package models

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

// MemoryStore is an in-process implementation of every repository interface.
// It keeps the same guarantees as the database-backed repos (scoped reads,
// all-or-nothing seat decrements) and is used by tests and local demos.
type MemoryStore struct {
	mu             sync.Mutex
	events         map[uuid.UUID]*Event
	venues         map[uuid.UUID]*Venue
	seatCategories map[uuid.UUID]*SeatCategory
	bookings       map[uuid.UUID]*Booking
	payments       map[string]*Payment
	profiles       map[uuid.UUID]*Profile
	roleRequests   map[uuid.UUID]*RoleRequest
	drafts         map[uuid.UUID][]byte
	audit          []BookingEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:         make(map[uuid.UUID]*Event),
		venues:         make(map[uuid.UUID]*Venue),
		seatCategories: make(map[uuid.UUID]*SeatCategory),
		bookings:       make(map[uuid.UUID]*Booking),
		payments:       make(map[string]*Payment),
		profiles:       make(map[uuid.UUID]*Profile),
		roleRequests:   make(map[uuid.UUID]*RoleRequest),
		drafts:         make(map[uuid.UUID][]byte),
	}
}

// Seed helpers

func (m *MemoryStore) PutEvent(event Event, categories ...SeatCategory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.SeatCategories = nil
	m.events[event.ID] = &event
	for i := range categories {
		c := categories[i]
		c.EventID = event.ID
		m.seatCategories[c.ID] = &c
	}
}

func (m *MemoryStore) PutVenue(venue Venue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.venues[venue.ID] = &venue
}

func (m *MemoryStore) PutProfile(profile Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.ID] = &profile
}

func (m *MemoryStore) PutBooking(booking Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = &booking
}

func (m *MemoryStore) SeatCategory(id uuid.UUID) (SeatCategory, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.seatCategories[id]
	if !ok {
		return SeatCategory{}, false
	}
	return *c, true
}

func (m *MemoryStore) Booking(id uuid.UUID) (Booking, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return Booking{}, false
	}
	return *b, true
}

func (m *MemoryStore) BookingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

func (m *MemoryStore) PaymentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

func (m *MemoryStore) AuditEvents() []BookingEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]BookingEvent(nil), m.audit...)
}

func (m *MemoryStore) eventWithRelations(e *Event) Event {
	out := *e
	out.SeatCategories = nil
	for _, c := range m.seatCategories {
		if c.EventID == e.ID {
			out.SeatCategories = append(out.SeatCategories, *c)
		}
	}
	sort.Slice(out.SeatCategories, func(i, j int) bool {
		return out.SeatCategories[i].Name < out.SeatCategories[j].Name
	})
	if e.VenueID != nil {
		if v, ok := m.venues[*e.VenueID]; ok {
			venue := *v
			out.Venue = &venue
		}
	}
	return out
}

// CatalogRepo

func (m *MemoryStore) ListPublishedEvents(ctx context.Context, filter EventFilter) ([]Event, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []Event
	for _, e := range m.events {
		if !e.IsPublished() {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(e.Category, filter.Category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Title), search) &&
			!strings.Contains(strings.ToLower(e.Description), search) {
			continue
		}
		matched = append(matched, m.eventWithRelations(e))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartDate.Before(matched[j].StartDate)
	})

	total := len(matched)
	if filter.Offset >= total {
		return []Event{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return matched[filter.Offset:end], total, nil
}

func (m *MemoryStore) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	out := m.eventWithRelations(e)
	return &out, nil
}

func (m *MemoryStore) GetSeatCategories(ctx context.Context, ids []uuid.UUID) ([]SeatCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []SeatCategory{}
	for _, id := range ids {
		if c, ok := m.seatCategories[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *MemoryStore) FindSeatCategory(ctx context.Context, eventID uuid.UUID, name string) (*SeatCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.seatCategories {
		if c.EventID == eventID && strings.EqualFold(c.Name, name) {
			out := *c
			return &out, nil
		}
	}
	return nil, ErrSeatCategoryNotFound
}

func (m *MemoryStore) CreateEvent(ctx context.Context, event *Event, categories []SeatCategory, accessToken string) (*Event, error) {
	m.PutEvent(*event, categories...)
	return m.GetEvent(ctx, event.ID)
}

func (m *MemoryStore) UpdateEventStatus(ctx context.Context, id uuid.UUID, status EventStatus, accessToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return ErrEventNotFound
	}
	e.Status = status
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) CreateVenue(ctx context.Context, venue *Venue, accessToken string) (*Venue, error) {
	m.PutVenue(*venue)
	out := *venue
	return &out, nil
}

func (m *MemoryStore) ListVenues(ctx context.Context, offset, limit int) ([]Venue, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	venues := make([]Venue, 0, len(m.venues))
	for _, v := range m.venues {
		venues = append(venues, *v)
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i].Name < venues[j].Name })

	total := len(venues)
	if offset >= total {
		return []Venue{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return venues[offset:end], total, nil
}

// BookingRepo

func (m *MemoryStore) CreatePendingBooking(ctx context.Context, booking *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.bookings[booking.ID]; exists {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}
	b := *booking
	b.Items = append([]BookingItem(nil), booking.Items...)
	m.bookings[b.ID] = &b
	return nil
}

func (m *MemoryStore) GetBookingForUser(ctx context.Context, id, userID uuid.UUID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.UserID != userID {
		return nil, ErrBookingNotFound
	}
	out := *b
	return &out, nil
}

func (m *MemoryStore) ConfirmBooking(ctx context.Context, p ConfirmParams) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[p.BookingID]
	if !ok || b.UserID != p.UserID {
		return nil, ErrBookingNotFound
	}
	if b.OrderID != p.OrderID {
		return nil, ErrOrderMismatch
	}
	if b.Status == BookingStatusConfirmed {
		if b.PaymentID == p.PaymentID {
			out := *b
			return &out, nil
		}
		return nil, ErrBookingNotPending
	}
	if !b.Status.CanTransitionTo(BookingStatusConfirmed) {
		return nil, ErrBookingNotPending
	}

	for _, item := range b.Items {
		c, ok := m.seatCategories[item.SeatCategoryID]
		if !ok || c.AvailableSeats < item.Quantity {
			if b.Status == BookingStatusPending {
				b.Status = BookingStatusPaid
				b.PaymentID = p.PaymentID
				b.PaymentSignature = p.Signature
				b.UpdatedAt = time.Now().UTC()
			}
			m.recordPayment(b, p)
			return nil, ErrSoldOut
		}
	}

	for _, item := range b.Items {
		m.seatCategories[item.SeatCategoryID].AvailableSeats -= item.Quantity
		if e, ok := m.events[item.EventID]; ok {
			e.AvailableSeats -= item.Quantity
			if e.AvailableSeats < 0 {
				e.AvailableSeats = 0
			}
		}
	}

	m.recordPayment(b, p)
	b.Status = BookingStatusConfirmed
	b.PaymentID = p.PaymentID
	b.PaymentSignature = p.Signature
	b.BookingReference = p.BookingReference
	b.UpdatedAt = time.Now().UTC()

	out := *b
	return &out, nil
}

func (m *MemoryStore) recordPayment(b *Booking, p ConfirmParams) {
	if _, exists := m.payments[p.PaymentID]; exists {
		return
	}
	m.payments[p.PaymentID] = &Payment{
		ID:            uuid.New(),
		BookingID:     b.ID,
		Amount:        b.TotalAmount,
		Currency:      b.Currency,
		Status:        PaymentStatusCompleted,
		Method:        p.Method,
		TransactionID: p.PaymentID,
		Gateway:       p.Gateway,
		CreatedAt:     time.Now().UTC(),
	}
}

func (m *MemoryStore) AbandonBooking(ctx context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.UserID != userID {
		return ErrBookingNotFound
	}
	if b.Status != BookingStatusPending {
		return ErrBookingNotPending
	}
	b.Status = BookingStatusAbandoned
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) ExpirePendingBookings(ctx context.Context, createdBefore time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.bookings {
		if b.Status == BookingStatusPending && b.CreatedAt.Before(createdBefore) {
			b.Status = BookingStatusAbandoned
			b.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

// DashboardRepo

func (m *MemoryStore) ListUserBookings(ctx context.Context, userID uuid.UUID, offset, limit int) ([]Booking, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var bookings []Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			bookings = append(bookings, m.bookingWithRelations(b))
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})

	total := len(bookings)
	if offset >= total {
		return []Booking{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return bookings[offset:end], total, nil
}

func (m *MemoryStore) GetUserBooking(ctx context.Context, userID, bookingID uuid.UUID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok || b.UserID != userID {
		return nil, ErrBookingNotFound
	}
	out := m.bookingWithRelations(b)
	return &out, nil
}

func (m *MemoryStore) bookingWithRelations(b *Booking) Booking {
	out := *b
	if b.EventID != nil {
		if e, ok := m.events[*b.EventID]; ok {
			ev := m.eventWithRelations(e)
			ev.SeatCategories = nil
			out.Event = &ev
		}
	}
	if b.SeatCategoryID != nil {
		if c, ok := m.seatCategories[*b.SeatCategoryID]; ok {
			sc := *c
			out.SeatCategory = &sc
		}
	}
	for _, p := range m.payments {
		if p.BookingID == b.ID {
			out.Payments = append(out.Payments, *p)
		}
	}
	return out
}

// ProfileRepo

func (m *MemoryStore) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	out := *p
	return &out, nil
}

func (m *MemoryStore) UpdateRole(ctx context.Context, id uuid.UUID, role Role) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	p.Role = role
	p.UpdatedAt = time.Now().UTC()
	out := *p
	return &out, nil
}

func (m *MemoryStore) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	return nil, fmt.Errorf("token refresh is not available in memory mode")
}

// RoleRequestRepo

func (m *MemoryStore) CreateRoleRequest(ctx context.Context, req *RoleRequest) (*RoleRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := *req
	m.roleRequests[r.ID] = &r
	out := r
	return &out, nil
}

func (m *MemoryStore) GetRoleRequest(ctx context.Context, id uuid.UUID) (*RoleRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roleRequests[id]
	if !ok {
		return nil, ErrRoleRequestNotFound
	}
	out := *r
	return &out, nil
}

func (m *MemoryStore) ListRoleRequests(ctx context.Context, status RoleRequestStatus) ([]RoleRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []RoleRequest{}
	for _, r := range m.roleRequests {
		if status == "" || r.Status == status {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ReviewRoleRequest(ctx context.Context, id uuid.UUID, status RoleRequestStatus, reviewer uuid.UUID) (*RoleRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roleRequests[id]
	if !ok || r.Status != RoleRequestPending {
		return nil, ErrRequestReviewed
	}
	now := time.Now().UTC()
	r.Status = status
	r.ReviewedBy = &reviewer
	r.ReviewedAt = &now
	out := *r
	return &out, nil
}

func (m *MemoryStore) ReopenRoleRequest(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.roleRequests[id]; ok {
		r.Status = RoleRequestPending
		r.ReviewedBy = nil
		r.ReviewedAt = nil
	}
	return nil
}

// AuditRepo

func (m *MemoryStore) AppendBookingEvent(ctx context.Context, event *BookingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.BeforeCreate()
	m.audit = append(m.audit, *event)
	return nil
}

func (m *MemoryStore) ListBookingEvents(ctx context.Context, bookingID, userID string) ([]BookingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []BookingEvent{}
	for _, e := range m.audit {
		if e.BookingID == bookingID && e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// DraftRepo. Drafts are stored encoded so callers never share a pointer.

func (m *MemoryStore) GetDraft(ctx context.Context, id uuid.UUID) (*BookingDraft, error) {
	m.mu.Lock()
	data, ok := m.drafts[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrDraftNotFound
	}
	var d BookingDraft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (m *MemoryStore) SaveDraft(ctx context.Context, draft *BookingDraft, ttl time.Duration) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[draft.ID] = data
	return nil
}

func (m *MemoryStore) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}
