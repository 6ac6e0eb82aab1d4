package dto

import (
	"time"

	"github.com/noah-isme/attendance-portal/internal/models"
)

// LoginRequest captures credential login payloads.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1,max=256"`
}

// IdentityResponse serializes the authenticated identity.
type IdentityResponse struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  string   `json:"role"`
	Roles []string `json:"roles"`
}

// LoginResponse is returned after a successful login. The session token travels only in the cookie.
type LoginResponse struct {
	ExpiresAt time.Time        `json:"expires_at"`
	User      IdentityResponse `json:"user"`
	Redirect  string           `json:"redirect"`
}

// LoginEntryResponse reports whether the login form should be shown.
type LoginEntryResponse struct {
	Authenticated bool   `json:"authenticated"`
	Redirect      string `json:"redirect,omitempty"`
}

// NewIdentityResponse converts an identity into its DTO.
func NewIdentityResponse(identity models.Identity) IdentityResponse {
	roles := identity.Roles
	if roles == nil {
		roles = []string{}
	}
	return IdentityResponse{
		ID:    identity.ID,
		Name:  identity.Name,
		Email: identity.Email,
		Role:  identity.PrimaryRole(),
		Roles: roles,
	}
}
