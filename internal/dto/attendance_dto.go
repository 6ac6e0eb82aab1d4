package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/attendance-portal/internal/models"
)

// StudentRef accepts either a bare student id or an expanded relation object carrying "$id".
type StudentRef string

// UnmarshalJSON normalizes both accepted shapes to the bare id.
func (r *StudentRef) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = StudentRef(models.StudentRefID(raw))
	return nil
}

// AttendanceRequest captures attendance create and update payloads. Field names match the document attributes.
type AttendanceRequest struct {
	StudentID StudentRef `json:"Student_Id"`
	Status    string     `json:"Status" validate:"required,oneof=present absent late excused"`
	CourseID  string     `json:"Course_Id" validate:"omitempty,max=64"`
	MarkedBy  string     `json:"Marked_By" validate:"omitempty,max=64"`
	MarkedAt  *time.Time `json:"Marked_at"`
	Latitude  *float64   `json:"Latitude" validate:"omitempty,latitude"`
	Longitude *float64   `json:"Longitude" validate:"omitempty,longitude"`
}

// AttendanceResponse serializes an attendance record.
type AttendanceResponse struct {
	ID        string     `json:"id"`
	StudentID string     `json:"student_id"`
	Status    string     `json:"status"`
	CourseID  string     `json:"course_id,omitempty"`
	MarkedBy  string     `json:"marked_by,omitempty"`
	MarkedAt  *time.Time `json:"marked_at,omitempty"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewAttendanceResponse converts a record into its DTO.
func NewAttendanceResponse(record models.AttendanceRecord) AttendanceResponse {
	response := AttendanceResponse{
		ID:        record.ID,
		StudentID: record.StudentID,
		Status:    record.Status,
		CourseID:  record.CourseID,
		MarkedBy:  record.MarkedBy,
		Latitude:  record.Latitude,
		Longitude: record.Longitude,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if !record.MarkedAt.IsZero() {
		markedAt := record.MarkedAt
		response.MarkedAt = &markedAt
	}
	return response
}

// NewAttendanceResponseSlice converts records preserving order.
func NewAttendanceResponseSlice(records []models.AttendanceRecord) []AttendanceResponse {
	responses := make([]AttendanceResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewAttendanceResponse(record))
	}
	return responses
}
