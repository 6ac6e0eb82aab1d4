package models

import (
	"time"

	"github.com/noah-isme/attendance-portal/pkg/appwrite"
)

// StudentUserIDField links a profile document to its owning user.
const StudentUserIDField = "userId"

// MissingUserID is reported for profile documents without an owning user.
const MissingUserID = "No userId found"

// StudentProfile represents a student's profile document.
type StudentProfile struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"user_id"`
	Fields      map[string]interface{} `json:"fields"`
	Permissions []appwrite.Permission  `json:"permissions"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// NewStudentProfile converts a backend document.
func NewStudentProfile(doc appwrite.Document) StudentProfile {
	fields := make(map[string]interface{}, len(doc.Data))
	for key, value := range doc.Data {
		if key == StudentUserIDField {
			continue
		}
		fields[key] = value
	}

	return StudentProfile{
		ID:          doc.ID,
		UserID:      doc.String(StudentUserIDField),
		Fields:      fields,
		Permissions: appwrite.ParsePermissions(doc.Permissions),
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

// HasUserGrant reports whether the ACL grants action to exactly the given user.
func (p StudentProfile) HasUserGrant(userID, action string) bool {
	if userID == "" {
		return false
	}
	role := appwrite.RoleUser(userID)
	for _, permission := range p.Permissions {
		if permission.Role == role && permission.Action == action {
			return true
		}
	}
	return false
}

// StudentUserID pairs a profile document with its owning user.
type StudentUserID struct {
	DocumentID string `json:"documentId"`
	UserID     string `json:"userId"`
}
