package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	postgrest "github.com/supabase-community/postgrest-go"
)

type ProfileRepo interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) (*Profile, error)
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
}

type RoleRequestRepo interface {
	CreateRoleRequest(ctx context.Context, req *RoleRequest) (*RoleRequest, error)
	GetRoleRequest(ctx context.Context, id uuid.UUID) (*RoleRequest, error)
	ListRoleRequests(ctx context.Context, status RoleRequestStatus) ([]RoleRequest, error)
	ReviewRoleRequest(ctx context.Context, id uuid.UUID, status RoleRequestStatus, reviewer uuid.UUID) (*RoleRequest, error)
	ReopenRoleRequest(ctx context.Context, id uuid.UUID) error
}

func (su *SupabaseRepo) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}

	raw, _, err := su.supabaseClient.From(ProfileTable).
		Select("id,email,full_name,phone,avatar_url,role,created_at,updated_at", "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	// Supabase returns an array even for single results
	var profiles []Profile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile rows: %w", err)
	}
	if len(profiles) == 0 {
		return nil, ErrProfileNotFound
	}

	return &profiles[0], nil
}

// UpdateRole runs with the service client; callers are responsible for the
// admin check.
func (su *SupabaseRepo) UpdateRole(ctx context.Context, id uuid.UUID, role Role) (*Profile, error) {
	raw, _, err := su.supabaseClient.From(ProfileTable).
		Update(map[string]interface{}{
			"role":       role,
			"updated_at": time.Now().UTC(),
		}, "representation", "").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	var profiles []Profile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated profile: %w", err)
	}
	if len(profiles) == 0 {
		return nil, ErrProfileNotFound
	}

	return &profiles[0], nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) CreateRoleRequest(ctx context.Context, req *RoleRequest) (*RoleRequest, error) {
	raw, _, err := su.supabaseClient.From(RoleRequestsTable).
		Insert(req, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to insert role request: %w", err)
	}

	var created []RoleRequest
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("failed to unmarshal role request: %w", err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("no role request returned after insert")
	}

	return &created[0], nil
}

func (su *SupabaseRepo) GetRoleRequest(ctx context.Context, id uuid.UUID) (*RoleRequest, error) {
	raw, _, err := su.supabaseClient.From(RoleRequestsTable).
		Select("*", "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get role request: %w", err)
	}

	var requests []RoleRequest
	if err := json.Unmarshal(raw, &requests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal role request: %w", err)
	}
	if len(requests) == 0 {
		return nil, ErrRoleRequestNotFound
	}

	return &requests[0], nil
}

func (su *SupabaseRepo) ListRoleRequests(ctx context.Context, status RoleRequestStatus) ([]RoleRequest, error) {
	query := su.supabaseClient.From(RoleRequestsTable).Select("*", "", false)
	if status != "" {
		query = query.Eq("status", string(status))
	}

	raw, _, err := query.Order("created_at", &postgrest.OrderOpts{Ascending: true}).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list role requests: %w", err)
	}

	var requests []RoleRequest
	if err := json.Unmarshal(raw, &requests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal role requests: %w", err)
	}

	return requests, nil
}

// ReviewRoleRequest only touches rows that are still pending, so two admins
// cannot both act on the same request.
func (su *SupabaseRepo) ReviewRoleRequest(ctx context.Context, id uuid.UUID, status RoleRequestStatus, reviewer uuid.UUID) (*RoleRequest, error) {
	raw, _, err := su.supabaseClient.From(RoleRequestsTable).
		Update(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewer,
			"reviewed_at": time.Now().UTC(),
		}, "representation", "").
		Eq("id", id.String()).
		Eq("status", string(RoleRequestPending)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to review role request: %w", err)
	}

	var requests []RoleRequest
	if err := json.Unmarshal(raw, &requests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal role request: %w", err)
	}
	if len(requests) == 0 {
		return nil, ErrRequestReviewed
	}

	return &requests[0], nil
}

// ReopenRoleRequest puts a reviewed request back to pending. It is used when
// an approval could not be applied to the profile.
func (su *SupabaseRepo) ReopenRoleRequest(ctx context.Context, id uuid.UUID) error {
	_, _, err := su.supabaseClient.From(RoleRequestsTable).
		Update(map[string]interface{}{
			"status":      RoleRequestPending,
			"reviewed_by": nil,
			"reviewed_at": nil,
		}, "minimal", "").
		Eq("id", id.String()).
		Neq("status", string(RoleRequestPending)).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to reopen role request: %w", err)
	}
	return nil
}
