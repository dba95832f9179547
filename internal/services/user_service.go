package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventix/internal/models"
	"github.com/supabase-community/gotrue-go/types"
)

type UserService struct {
	profileRepo models.ProfileRepo
	requestRepo models.RoleRequestRepo
	adminEmails []string
}

func NewUserService(profileRepo models.ProfileRepo, requestRepo models.RoleRequestRepo, adminEmails []string) *UserService {
	return &UserService{
		profileRepo: profileRepo,
		requestRepo: requestRepo,
		adminEmails: adminEmails,
	}
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}
	response, err := us.profileRepo.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return response, nil
}

func (us *UserService) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return us.profileRepo.GetProfile(ctx, id)
}

func (us *UserService) isAdminEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, e := range us.adminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// ResolveRole returns the caller's profile (nil when none exists yet) and the
// role to act with. Addresses listed in ADMIN_EMAILS are always admin; anyone
// else falls back to customer when the profile is missing or has no role.
func (us *UserService) ResolveRole(ctx context.Context, id uuid.UUID, email string) (*models.Profile, models.Role, error) {
	profile, err := us.profileRepo.GetProfile(ctx, id)
	if err != nil && !errors.Is(err, models.ErrProfileNotFound) {
		return nil, models.RoleCustomer, err
	}

	role := models.RoleCustomer
	if profile != nil && profile.Role.IsValid() {
		role = profile.Role
	}
	if us.isAdminEmail(email) {
		role = models.RoleAdmin
	}
	return profile, role, nil
}

// RequestRole files an elevation request for review by an admin. It never
// changes the caller's profile.
func (us *UserService) RequestRole(ctx context.Context, userID uuid.UUID, current models.Role, requested models.Role, reason string) (*models.RoleRequest, error) {
	if requested != models.RoleOrganizer && requested != models.RoleAdmin {
		return nil, models.ErrInvalidRole
	}
	if requested == current {
		return nil, fmt.Errorf("%w: already %s", models.ErrInvalidRole, requested)
	}

	return us.requestRepo.CreateRoleRequest(ctx, &models.RoleRequest{
		ID:            uuid.New(),
		UserID:        userID,
		RequestedRole: requested,
		Reason:        strings.TrimSpace(reason),
		Status:        models.RoleRequestPending,
		CreatedAt:     time.Now().UTC(),
	})
}

func (us *UserService) ListRoleRequests(ctx context.Context, status models.RoleRequestStatus) ([]models.RoleRequest, error) {
	return us.requestRepo.ListRoleRequests(ctx, status)
}

// ReviewRoleRequest approves or rejects a pending request. Approval writes the
// requested role to the requester's profile.
func (us *UserService) ReviewRoleRequest(ctx context.Context, reviewer uuid.UUID, reviewerRole models.Role, requestID uuid.UUID, approve bool) (*models.RoleRequest, error) {
	if reviewerRole != models.RoleAdmin {
		return nil, models.ErrForbidden
	}

	req, err := us.requestRepo.GetRoleRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.UserID == reviewer {
		return nil, models.ErrSelfRoleChange
	}

	if !approve {
		return us.requestRepo.ReviewRoleRequest(ctx, requestID, models.RoleRequestRejected, reviewer)
	}

	// The role lands on the profile row, so approval needs one to exist.
	if _, err := us.profileRepo.GetProfile(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("failed to apply approved role: %w", err)
	}

	reviewed, err := us.requestRepo.ReviewRoleRequest(ctx, requestID, models.RoleRequestApproved, reviewer)
	if err != nil {
		return nil, err
	}

	if _, err := us.profileRepo.UpdateRole(ctx, req.UserID, req.RequestedRole); err != nil {
		if reopenErr := us.requestRepo.ReopenRoleRequest(ctx, requestID); reopenErr != nil {
			return nil, fmt.Errorf("failed to apply approved role: %w (reopen failed: %v)", err, reopenErr)
		}
		return nil, fmt.Errorf("failed to apply approved role: %w", err)
	}
	return reviewed, nil
}

// SetUserRole is the admin override. Nobody can change their own role.
func (us *UserService) SetUserRole(ctx context.Context, actor uuid.UUID, actorRole models.Role, target uuid.UUID, role models.Role) (*models.Profile, error) {
	if actorRole != models.RoleAdmin {
		return nil, models.ErrForbidden
	}
	if actor == target {
		return nil, models.ErrSelfRoleChange
	}
	if !role.IsValid() {
		return nil, models.ErrInvalidRole
	}
	return us.profileRepo.UpdateRole(ctx, target, role)
}
