package models

import (
	"time"

	"github.com/google/uuid"
)

// Visit is the immutable record of one successful redirect. ShortCode and
// OriginalURL are snapshots taken at access time; only ShortCode follows a
// rename of the link.
type Visit struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	LinkID      uint       `json:"link_id" gorm:"index;not null"`
	UserID      *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	ShortCode   string     `json:"short_code" gorm:"index;not null"`
	OriginalURL string     `json:"original_link" gorm:"not null"`
	AccessedAt  time.Time  `json:"accessed_at" gorm:"index;not null"`
}
