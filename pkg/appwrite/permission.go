package appwrite

import (
	"fmt"
	"strings"

	"github.com/appwrite/sdk-for-go/id"
	"github.com/appwrite/sdk-for-go/permission"
	"github.com/appwrite/sdk-for-go/role"
)

// Permission actions.
const (
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionCreate = "create"
	ActionWrite  = "write"
)

// UniqueID returns the placeholder that makes the backend generate an id.
func UniqueID() string {
	return id.Unique()
}

// Permission is a (capability, scope) grant attached to a document.
type Permission struct {
	Action string `json:"action"`
	Role   string `json:"role"`
}

// String renders the permission in wire form, e.g. read("user:abc").
func (p Permission) String() string {
	switch p.Action {
	case ActionRead:
		return permission.Read(p.Role)
	case ActionUpdate:
		return permission.Update(p.Role)
	case ActionDelete:
		return permission.Delete(p.Role)
	case ActionCreate:
		return permission.Create(p.Role)
	case ActionWrite:
		return permission.Write(p.Role)
	}
	return fmt.Sprintf("%s(%q)", p.Action, p.Role)
}

// Read grants read access to scope.
func Read(scope string) Permission {
	return Permission{Action: ActionRead, Role: scope}
}

// Update grants update access to scope.
func Update(scope string) Permission {
	return Permission{Action: ActionUpdate, Role: scope}
}

// RoleUser scopes a permission to one user.
func RoleUser(userID string) string {
	return role.User(userID, "")
}

// RoleUsers scopes a permission to every authenticated user.
func RoleUsers() string {
	return role.Users("")
}

// ParsePermission reads a wire-form permission back into a tuple.
func ParsePermission(value string) (Permission, error) {
	value = strings.TrimSpace(value)
	open := strings.Index(value, "(")
	if open <= 0 || !strings.HasSuffix(value, ")") {
		return Permission{}, fmt.Errorf("malformed permission %q", value)
	}

	action := value[:open]
	scope := strings.TrimSpace(value[open+1 : len(value)-1])
	scope = strings.Trim(scope, `"`)
	if scope == "" {
		return Permission{}, fmt.Errorf("malformed permission %q", value)
	}

	return Permission{Action: action, Role: scope}, nil
}

// ParsePermissions parses every well-formed entry and skips the rest.
func ParsePermissions(values []string) []Permission {
	permissions := make([]Permission, 0, len(values))
	for _, value := range values {
		parsed, err := ParsePermission(value)
		if err != nil {
			continue
		}
		permissions = append(permissions, parsed)
	}
	return permissions
}

// FormatPermissions renders tuples in wire form.
func FormatPermissions(permissions []Permission) []string {
	out := make([]string, 0, len(permissions))
	for _, p := range permissions {
		out = append(out, p.String())
	}
	return out
}

// ValidID reports whether id is a well-formed custom id: up to 36 characters of a-z, A-Z, 0-9, period,
// hyphen and underscore, not starting with a special character.
func ValidID(value string) bool {
	if value == "" || len(value) > 36 {
		return false
	}
	for i, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '_':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
