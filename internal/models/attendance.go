package models

import (
	"strings"
	"time"

	"github.com/noah-isme/attendance-portal/pkg/appwrite"
)

// Attendance document attributes.
const (
	AttendanceFieldStudentID = "Student_Id"
	AttendanceFieldStatus    = "Status"
	AttendanceFieldCourseID  = "Course_Id"
	AttendanceFieldMarkedBy  = "Marked_By"
	AttendanceFieldMarkedAt  = "Marked_at"
	AttendanceFieldLatitude  = "Latitude"
	AttendanceFieldLongitude = "Longitude"
)

// Attendance statuses.
const (
	AttendanceStatusPresent = "present"
	AttendanceStatusAbsent  = "absent"
	AttendanceStatusLate    = "late"
	AttendanceStatusExcused = "excused"
)

// AttendanceRecord is a single attendance mark for a student in a course.
type AttendanceRecord struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Status    string    `json:"status"`
	CourseID  string    `json:"course_id,omitempty"`
	MarkedBy  string    `json:"marked_by,omitempty"`
	MarkedAt  time.Time `json:"marked_at"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAttendanceRecord converts a backend document. An expanded Student_Id relation is reduced to its id.
func NewAttendanceRecord(doc appwrite.Document) AttendanceRecord {
	var markedAt time.Time
	if raw := doc.String(AttendanceFieldMarkedAt); raw != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			markedAt = parsed
		}
	}

	return AttendanceRecord{
		ID:        doc.ID,
		StudentID: StudentRefID(doc.Data[AttendanceFieldStudentID]),
		Status:    doc.String(AttendanceFieldStatus),
		CourseID:  doc.String(AttendanceFieldCourseID),
		MarkedBy:  doc.String(AttendanceFieldMarkedBy),
		MarkedAt:  markedAt,
		Latitude:  optionalFloat(doc, AttendanceFieldLatitude),
		Longitude: optionalFloat(doc, AttendanceFieldLongitude),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// Fields renders the record as document data. The student reference is always the bare id. Optional
// attributes are written only when set so a partial update keeps what is stored.
func (r AttendanceRecord) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		AttendanceFieldStudentID: r.StudentID,
		AttendanceFieldStatus:    r.Status,
	}
	if r.CourseID != "" {
		fields[AttendanceFieldCourseID] = r.CourseID
	}
	if r.MarkedBy != "" {
		fields[AttendanceFieldMarkedBy] = r.MarkedBy
	}
	if !r.MarkedAt.IsZero() {
		fields[AttendanceFieldMarkedAt] = r.MarkedAt.UTC().Format(time.RFC3339)
	}
	if r.Latitude != nil {
		fields[AttendanceFieldLatitude] = *r.Latitude
	}
	if r.Longitude != nil {
		fields[AttendanceFieldLongitude] = *r.Longitude
	}
	return fields
}

func optionalFloat(doc appwrite.Document, key string) *float64 {
	if value, ok := doc.Data[key]; !ok || value == nil {
		return nil
	}
	f := doc.Float(key)
	return &f
}

// ValidAttendanceStatus reports whether status is one of the known statuses.
func ValidAttendanceStatus(status string) bool {
	switch status {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused:
		return true
	}
	return false
}

// StudentRefID extracts a student id from either a bare id or an expanded relation object.
func StudentRefID(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]interface{}:
		if id, ok := v["$id"].(string); ok {
			return strings.TrimSpace(id)
		}
	}
	return ""
}
