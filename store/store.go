// Package store wraps the shared MyAnchor database for the digest service.
// Subscribers are read-only here; digest records and run summaries are the
// only rows this service writes.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tsamuels62019/myanchor-daily-digest/models"
)

// ErrDuplicateDigest is returned when the (subscriber, local date) unique
// index rejects a digest record. Seeing it means another invocation won the
// race after our idempotency check.
var ErrDuplicateDigest = errors.New("digest record already exists")

// GormStore implements the dispatcher's storage operations on GORM.
type GormStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ConsentedSubscribers returns every subscriber that opted in to the SMS digest.
func (s *GormStore) ConsentedSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	var subs []models.Subscriber
	if err := s.db.WithContext(ctx).Find(&subs, "digest_opt_in = ?", true).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// DigestSentOn reports whether a digest record exists for the subscriber on
// the given local calendar date.
func (s *GormStore) DigestSentOn(ctx context.Context, subscriberID uuid.UUID, localDate string) (bool, error) {
	var rec models.DigestRecord
	err := s.db.WithContext(ctx).
		Where("subscriber_id = ? AND local_date = ?", subscriberID, localDate).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecordDigest inserts the idempotency witness for a delivered digest.
func (s *GormStore) RecordDigest(ctx context.Context, rec *models.DigestRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: subscriber %s on %s", ErrDuplicateDigest, rec.SubscriberID, rec.LocalDate)
		}
		return err
	}
	return nil
}

// CreateRunSummary inserts the summary row at run start (counts still zero).
func (s *GormStore) CreateRunSummary(ctx context.Context, summary *models.RunSummary) error {
	return s.db.WithContext(ctx).Create(summary).Error
}

// FinalizeRunSummary writes the finished summary back over the row created at
// run start.
func (s *GormStore) FinalizeRunSummary(ctx context.Context, summary *models.RunSummary) error {
	return s.db.WithContext(ctx).Save(summary).Error
}

// RecentRunSummaries returns the latest run summaries, newest first.
func (s *GormStore) RecentRunSummaries(ctx context.Context, limit int) ([]models.RunSummary, error) {
	var runs []models.RunSummary
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}
