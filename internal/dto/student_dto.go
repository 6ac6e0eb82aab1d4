package dto

// StudentDashboardResponse is the student's landing view.
type StudentDashboardResponse struct {
	User    IdentityResponse       `json:"user"`
	Profile *StudentProfileSummary `json:"profile"`
	// PermissionsActivated is read from the profile ACL and may lag behind the backend.
	PermissionsActivated bool `json:"permissions_activated"`
}

// StudentProfileSummary identifies the caller's profile document.
type StudentProfileSummary struct {
	DocumentID string                 `json:"document_id"`
	UserID     string                 `json:"user_id"`
	Fields     map[string]interface{} `json:"fields"`
}

// PermissionActivationResponse reports the grants applied to a profile document.
type PermissionActivationResponse struct {
	DocumentID  string   `json:"document_id"`
	UserID      string   `json:"user_id"`
	Permissions []string `json:"permissions"`
}

// StudentPermissionRequest carries the owning user for an admin grant.
type StudentPermissionRequest struct {
	UserID string `json:"userId"`
}
