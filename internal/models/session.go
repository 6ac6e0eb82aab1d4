package models

import "time"

// PortalSession maps an opaque portal session id to the backend session secret it stands for.
type PortalSession struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Secret    string    `gorm:"size:512;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}
