package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventix/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRole(t *testing.T) {
	store := models.NewMemoryStore()
	svc := NewUserService(store, store, []string{"Ops@Eventix.io"})
	ctx := context.Background()

	organizer := models.Profile{ID: uuid.New(), Email: "org@example.com", Role: models.RoleOrganizer}
	store.PutProfile(organizer)
	blank := models.Profile{ID: uuid.New(), Email: "blank@example.com"}
	store.PutProfile(blank)

	tests := []struct {
		name  string
		id    uuid.UUID
		email string
		want  models.Role
	}{
		{"stored role", organizer.ID, organizer.Email, models.RoleOrganizer},
		{"empty role defaults to customer", blank.ID, blank.Email, models.RoleCustomer},
		{"missing profile defaults to customer", uuid.New(), "new@example.com", models.RoleCustomer},
		{"admin email wins", uuid.New(), "ops@eventix.io", models.RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, role, err := svc.ResolveRole(ctx, tt.id, tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.want, role)
		})
	}
}

func TestRequestRoleNeverElevates(t *testing.T) {
	store := models.NewMemoryStore()
	svc := NewUserService(store, store, nil)
	ctx := context.Background()

	user := models.Profile{ID: uuid.New(), Role: models.RoleCustomer}
	store.PutProfile(user)

	req, err := svc.RequestRole(ctx, user.ID, models.RoleCustomer, models.RoleOrganizer, "  I run a venue  ")
	require.NoError(t, err)
	assert.Equal(t, models.RoleRequestPending, req.Status)
	assert.Equal(t, "I run a venue", req.Reason)

	profile, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, profile.Role)

	_, err = svc.RequestRole(ctx, user.ID, models.RoleCustomer, models.RoleCustomer, "")
	assert.ErrorIs(t, err, models.ErrInvalidRole)
	_, err = svc.RequestRole(ctx, user.ID, models.RoleOrganizer, models.RoleOrganizer, "")
	assert.ErrorIs(t, err, models.ErrInvalidRole)
	_, err = svc.RequestRole(ctx, user.ID, models.RoleCustomer, models.Role("superuser"), "")
	assert.ErrorIs(t, err, models.ErrInvalidRole)
}

func TestReviewRoleRequest(t *testing.T) {
	store := models.NewMemoryStore()
	svc := NewUserService(store, store, nil)
	ctx := context.Background()

	admin := models.Profile{ID: uuid.New(), Role: models.RoleAdmin}
	user := models.Profile{ID: uuid.New(), Role: models.RoleCustomer}
	store.PutProfile(admin)
	store.PutProfile(user)

	req, err := svc.RequestRole(ctx, user.ID, models.RoleCustomer, models.RoleOrganizer, "")
	require.NoError(t, err)

	_, err = svc.ReviewRoleRequest(ctx, user.ID, models.RoleCustomer, req.ID, true)
	assert.ErrorIs(t, err, models.ErrForbidden)

	reviewed, err := svc.ReviewRoleRequest(ctx, admin.ID, models.RoleAdmin, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.RoleRequestApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, admin.ID, *reviewed.ReviewedBy)

	profile, _ := svc.GetProfile(ctx, user.ID)
	assert.Equal(t, models.RoleOrganizer, profile.Role)

	_, err = svc.ReviewRoleRequest(ctx, admin.ID, models.RoleAdmin, req.ID, false)
	assert.ErrorIs(t, err, models.ErrRequestReviewed)

	pending, err := svc.ListRoleRequests(ctx, models.RoleRequestPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

type failingRoleWrites struct {
	*models.MemoryStore
}

func (f failingRoleWrites) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.Profile, error) {
	return nil, errors.New("connection reset")
}

func TestApprovalWithoutProfileStaysPending(t *testing.T) {
	store := models.NewMemoryStore()
	svc := NewUserService(store, store, nil)
	ctx := context.Background()

	admin := models.Profile{ID: uuid.New(), Role: models.RoleAdmin}
	store.PutProfile(admin)
	requester := uuid.New()

	req, err := svc.RequestRole(ctx, requester, models.RoleCustomer, models.RoleOrganizer, "")
	require.NoError(t, err)

	_, err = svc.ReviewRoleRequest(ctx, admin.ID, models.RoleAdmin, req.ID, true)
	assert.ErrorIs(t, err, models.ErrProfileNotFound)

	stored, err := store.GetRoleRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleRequestPending, stored.Status)

	// once the profile exists the same request can still be approved
	store.PutProfile(models.Profile{ID: requester, Role: models.RoleCustomer})
	reviewed, err := svc.ReviewRoleRequest(ctx, admin.ID, models.RoleAdmin, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.RoleRequestApproved, reviewed.Status)

	profile, _ := svc.GetProfile(ctx, requester)
	assert.Equal(t, models.RoleOrganizer, profile.Role)
}

func TestApprovalReopensWhenRoleWriteFails(t *testing.T) {
	store := models.NewMemoryStore()
	svc := NewUserService(failingRoleWrites{store}, store, nil)
	ctx := context.Background()

	admin := models.Profile{ID: uuid.New(), Role: models.RoleAdmin}
	user := models.Profile{ID: uuid.New(), Role: models.RoleCustomer}
	store.PutProfile(admin)
	store.PutProfile(user)

	req, err := svc.RequestRole(ctx, user.ID, models.RoleCustomer, models.RoleOrganizer, "")
	require.NoError(t, err)

	_, err = svc.ReviewRoleRequest(ctx, admin.ID, models.RoleAdmin, req.ID, true)
	require.Error(t, err)

	stored, err := store.GetRoleRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleRequestPending, stored.Status)
	assert.Nil(t, stored.ReviewedBy)
	assert.Nil(t, stored.ReviewedAt)

	pending, err := svc.ListRoleRequests(ctx, models.RoleRequestPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestAdminCannotApproveOwnRequest(t *testing.T) {
	store := models.NewMemoryStore()
	svc := NewUserService(store, store, nil)
	ctx := context.Background()

	admin := models.Profile{ID: uuid.New(), Role: models.RoleAdmin}
	store.PutProfile(admin)

	req, err := svc.RequestRole(ctx, admin.ID, models.RoleOrganizer, models.RoleAdmin, "")
	require.NoError(t, err)

	_, err = svc.ReviewRoleRequest(ctx, admin.ID, models.RoleAdmin, req.ID, true)
	assert.ErrorIs(t, err, models.ErrSelfRoleChange)
}

func TestSetUserRole(t *testing.T) {
	store := models.NewMemoryStore()
	svc := NewUserService(store, store, nil)
	ctx := context.Background()

	admin := models.Profile{ID: uuid.New(), Role: models.RoleAdmin}
	user := models.Profile{ID: uuid.New(), Role: models.RoleCustomer}
	store.PutProfile(admin)
	store.PutProfile(user)

	_, err := svc.SetUserRole(ctx, user.ID, models.RoleCustomer, user.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.SetUserRole(ctx, admin.ID, models.RoleAdmin, admin.ID, models.RoleCustomer)
	assert.ErrorIs(t, err, models.ErrSelfRoleChange)

	_, err = svc.SetUserRole(ctx, admin.ID, models.RoleAdmin, user.ID, models.Role("root"))
	assert.ErrorIs(t, err, models.ErrInvalidRole)

	profile, err := svc.SetUserRole(ctx, admin.ID, models.RoleAdmin, user.ID, models.RoleOrganizer)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOrganizer, profile.Role)
}

func TestRefreshTokenRequiresToken(t *testing.T) {
	store := models.NewMemoryStore()
	svc := NewUserService(store, store, nil)

	_, err := svc.RefreshToken(context.Background(), "")
	assert.Error(t, err)
}
