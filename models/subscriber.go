package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscriber is a digest recipient. This service only reads subscribers;
// sign-up and consent management live in the main MyAnchor backend.
type Subscriber struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key"`
	Email string    `gorm:"uniqueIndex;not null"`
	Phone string    // free-form, normalized at send time

	Timezone    string `gorm:"type:varchar(64)"` // IANA name, e.g. "America/New_York"; empty = unset
	DigestOptIn bool   `gorm:"default:false;index"`

	gorm.Model
}

// Initialize UUID before creating
func (s *Subscriber) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
