// models/digest_record.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DigestRecord marks that a subscriber received their digest SMS on a given
// local calendar date. Its existence is the idempotency witness: the unique
// (subscriber_id, local_date) index is what actually guarantees at-most-one
// send per local day, even across overlapping invocations. Rows are never
// updated or deleted.
type DigestRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	SubscriberID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_digest_subscriber_date,priority:1"`
	LocalDate    string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_digest_subscriber_date,priority:2"` // YYYY-MM-DD in the subscriber's timezone
	SentAt       time.Time
	ProviderSID  string `gorm:"type:varchar(64)"` // Twilio message SID
	gorm.Model
}

func (r *DigestRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
