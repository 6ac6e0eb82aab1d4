package appwrite

import (
	"encoding/json"
	"strings"
	"time"
)

// Document is a record stored in a backend collection. System attributes (prefixed with "$") are
// lifted into fields; everything else is kept in Data.
type Document struct {
	ID           string
	CollectionID string
	DatabaseID   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Permissions  []string
	Data         map[string]interface{}
}

// DocumentList is the result of a list call.
type DocumentList struct {
	Total     int        `json:"total"`
	Documents []Document `json:"documents"`
}

// String returns a string attribute, or "" when missing or not a string.
func (d Document) String(key string) string {
	if d.Data == nil {
		return ""
	}
	if value, ok := d.Data[key].(string); ok {
		return value
	}
	return ""
}

// Float returns a numeric attribute.
func (d Document) Float(key string) float64 {
	if d.Data == nil {
		return 0
	}
	switch v := d.Data[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

// UnmarshalJSON splits system attributes from user data.
func (d *Document) UnmarshalJSON(data []byte) error {
	raw := map[string]interface{}{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	doc := Document{Data: map[string]interface{}{}}
	for key, value := range raw {
		switch key {
		case "$id":
			doc.ID, _ = value.(string)
		case "$collectionId":
			doc.CollectionID, _ = value.(string)
		case "$databaseId":
			doc.DatabaseID, _ = value.(string)
		case "$createdAt":
			doc.CreatedAt = parseTimestamp(value)
		case "$updatedAt":
			doc.UpdatedAt = parseTimestamp(value)
		case "$permissions":
			if items, ok := value.([]interface{}); ok {
				doc.Permissions = make([]string, 0, len(items))
				for _, item := range items {
					if s, ok := item.(string); ok {
						doc.Permissions = append(doc.Permissions, s)
					}
				}
			}
		default:
			if strings.HasPrefix(key, "$") {
				continue
			}
			doc.Data[key] = value
		}
	}

	*d = doc
	return nil
}

// MarshalJSON renders the document in the backend's wire shape.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(d.Data)+6)
	for key, value := range d.Data {
		out[key] = value
	}
	out["$id"] = d.ID
	if d.CollectionID != "" {
		out["$collectionId"] = d.CollectionID
	}
	if d.DatabaseID != "" {
		out["$databaseId"] = d.DatabaseID
	}
	if !d.CreatedAt.IsZero() {
		out["$createdAt"] = d.CreatedAt.Format(time.RFC3339Nano)
	}
	if !d.UpdatedAt.IsZero() {
		out["$updatedAt"] = d.UpdatedAt.Format(time.RFC3339Nano)
	}
	permissions := d.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	out["$permissions"] = permissions

	return json.Marshal(out)
}

func parseTimestamp(value interface{}) time.Time {
	s, ok := value.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
