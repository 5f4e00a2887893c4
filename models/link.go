package models

import (
	"time"

	"github.com/google/uuid"
)

type Link struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	ShortCode    string     `json:"short_code" gorm:"uniqueIndex;not null"`
	OriginalURL  string     `json:"original_url" gorm:"index;not null"`
	CreatedAt    time.Time  `json:"created_at" gorm:"index"`
	ExpiresAt    time.Time  `json:"expires_at" gorm:"index;not null"`
	Clicks       int64      `json:"clicks" gorm:"not null;default:0"`
	LastAccessed *time.Time `json:"last_accessed"`
	OwnerID      *uuid.UUID `json:"owner_id,omitempty" gorm:"type:uuid;index"`
}

// OwnedBy reports whether the link has an owner equal to id.
func (l *Link) OwnedBy(id uuid.UUID) bool {
	return l.OwnerID != nil && *l.OwnerID == id
}
