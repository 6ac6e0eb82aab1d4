package models

import (
	"strings"
	"time"

	"github.com/noah-isme/attendance-portal/pkg/appwrite"
)

// Portal roles.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Identity is the authenticated user behind a backend session.
type Identity struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// Session is the backend session handle held on behalf of a browser.
type Session struct {
	Secret string
	UserID string
	Expire time.Time
}

// NewIdentity materializes an identity from a backend user. The role preference and the label set are
// merged left to right into one normalized role list.
func NewIdentity(user appwrite.User) Identity {
	sources := make([]string, 0, len(user.Labels)+1)
	if user.Prefs != nil {
		if role, ok := user.Prefs["role"].(string); ok {
			sources = append(sources, role)
		}
	}
	sources = append(sources, user.Labels...)

	seen := make(map[string]struct{}, len(sources))
	roles := make([]string, 0, len(sources))
	for _, source := range sources {
		role := NormalizeRole(source)
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}

	return Identity{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Roles: roles,
	}
}

// HasRole reports whether the identity holds role.
func (i Identity) HasRole(role string) bool {
	role = NormalizeRole(role)
	if role == "" {
		return false
	}
	for _, held := range i.Roles {
		if held == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the identity holds one of roles.
func (i Identity) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if i.HasRole(role) {
			return true
		}
	}
	return false
}

// PrimaryRole returns the first resolved role, or "".
func (i Identity) PrimaryRole() string {
	if len(i.Roles) == 0 {
		return ""
	}
	return i.Roles[0]
}

// NormalizeRole lowercases and trims a role name.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
