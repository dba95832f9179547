package helpers

import (
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventix/internal/models"
)

type EnhancedClaims struct {
	*CustomClaims
	Role        models.Role `json:"role"`
	UserID      string      `json:"id"`
	Email       string      `json:"email,omitempty"`
	Fullname    string      `json:"fullname,omitempty"`
	AvatarURL   string      `json:"avatar_url,omitempty"`
	PhoneNumber string      `json:"phone_number,omitempty"`
	CreatedAt   string      `json:"created_at,omitempty"`
}

// Helper methods for role checking
func (ec *EnhancedClaims) IsAdmin() bool {
	return ec.Role == models.RoleAdmin
}

func (ec *EnhancedClaims) IsOrganizer() bool {
	return ec.Role == models.RoleOrganizer
}

func (ec *EnhancedClaims) HasRole(roles ...models.Role) bool {
	for _, r := range roles {
		if ec.Role == r {
			return true
		}
	}
	return false
}

func (ec *EnhancedClaims) IsOwner(userID string) bool {
	return ec.UserID == userID
}

func (ec *EnhancedClaims) GetSafeRole() models.Role {
	if ec.Role == "" {
		return models.RoleCustomer
	}
	return ec.Role
}

func (ec *EnhancedClaims) UUID() (uuid.UUID, error) {
	return uuid.Parse(ec.UserID)
}
