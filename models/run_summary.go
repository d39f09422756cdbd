// models/run_summary.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Outcome status constants
const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Skip / failure reasons
const (
	ReasonNoTimezone         = "no_timezone"
	ReasonInvalidTimezone    = "invalid_timezone"
	ReasonOutsideWindow      = "outside_window"
	ReasonAlreadySent        = "already_sent"
	ReasonInvalidPhone       = "invalid_phone"
	ReasonDeliveryFailed     = "delivery_failed"
	ReasonRecordLookupFailed = "record_lookup_failed"
	ReasonRecordWriteFailed  = "record_write_failed" // message went out but the witness is missing
)

// DigestOutcome is the per-subscriber result stored in the run summary.
type DigestOutcome struct {
	SubscriberID uuid.UUID `json:"subscriberId"`
	Email        string    `json:"email"`
	Status       string    `json:"status"` // sent, skipped, failed
	Reason       string    `json:"reason,omitempty"`
	Detail       string    `json:"detail,omitempty"` // provider status/body, error text
	MessageSID   string    `json:"messageSid,omitempty"`
}

// RunSummary is the audit row for one dispatcher invocation. It is inserted
// with empty counts when the run starts and updated once when it finishes.
// The dispatcher never reads it back; the ops API serves it for inspection.
type RunSummary struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	StartedAt  time.Time `gorm:"not null;index"`
	FinishedAt *time.Time

	Attempted int `gorm:"default:0"`
	Sent      int `gorm:"default:0"`
	Skipped   int `gorm:"default:0"`

	Outcomes datatypes.JSON // serialized []DigestOutcome
	gorm.Model
}

func (r *RunSummary) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
