// services/digest_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/tsamuels62019/myanchor-daily-digest/models"
	"github.com/tsamuels62019/myanchor-daily-digest/utils"
)

// ErrRunInProgress is returned by Run when another run holds the dispatch
// lock. Runs are strictly sequential: two interleaved loops could both pass
// the idempotency check for the same subscriber before either writes the
// record.
var ErrRunInProgress = errors.New("a digest run is already in progress")

// Store is what the dispatcher needs from the database.
type Store interface {
	ConsentedSubscribers(ctx context.Context) ([]models.Subscriber, error)
	DigestSentOn(ctx context.Context, subscriberID uuid.UUID, localDate string) (bool, error)
	RecordDigest(ctx context.Context, rec *models.DigestRecord) error
	CreateRunSummary(ctx context.Context, summary *models.RunSummary) error
	FinalizeRunSummary(ctx context.Context, summary *models.RunSummary) error
}

// Sender delivers one SMS and returns the provider message SID.
type Sender interface {
	SendSMS(to, body string) (string, error)
}

// Config carries the dispatch settings, resolved once at startup and passed
// in explicitly.
type Config struct {
	Window      utils.Window
	MessageBody string
	// ForceSend skips the window check (manual/test invocations). It does
	// not skip the idempotency check.
	ForceSend bool
	// OnlyEmail, when set, restricts the run to the one subscriber with this
	// email (case-insensitive). Everyone else is excluded from the run
	// entirely, not counted as skipped.
	OnlyEmail string
}

type DigestService struct {
	store  Store
	sender Sender
	cfg    Config
	log    zerolog.Logger

	mu  sync.Mutex
	now func() time.Time
}

func NewDigestService(store Store, sender Sender, cfg Config, log zerolog.Logger) *DigestService {
	return &DigestService{
		store:  store,
		sender: sender,
		cfg:    cfg,
		log:    log.With().Str("component", "digest").Logger(),
		now:    time.Now,
	}
}

// Run executes one full digest pass: fetch opted-in subscribers, evaluate
// each one's local delivery window, send at most one SMS per subscriber per
// local day, and persist the run summary. A failed subscriber query is the
// only error returned; everything scoped to a single subscriber is converted
// into an outcome entry and the loop moves on.
func (s *DigestService) Run(ctx context.Context) (*models.RunSummary, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	started := s.now()
	s.log.Info().Time("started_at", started).Str("window", s.cfg.Window.String()).
		Bool("force_send", s.cfg.ForceSend).Msg("Starting digest run")

	subs, err := s.store.ConsentedSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch subscribers: %w", err)
	}

	summary := &models.RunSummary{StartedAt: started}
	if err := s.store.CreateRunSummary(ctx, summary); err != nil {
		// Audit-only row; losing it must never block sending.
		s.log.Warn().Err(err).Msg("Failed to create run summary")
	}

	outcomes := make([]models.DigestOutcome, 0, len(subs))
	for i := range subs {
		sub := &subs[i]
		if s.cfg.OnlyEmail != "" && !strings.EqualFold(sub.Email, s.cfg.OnlyEmail) {
			continue
		}
		summary.Attempted++

		outcome := s.processSubscriber(ctx, sub)
		outcomes = append(outcomes, outcome)

		switch outcome.Status {
		case models.OutcomeSent:
			summary.Sent++
		case models.OutcomeSkipped:
			summary.Skipped++
		}
	}

	finished := s.now()
	summary.FinishedAt = &finished
	if raw, err := json.Marshal(outcomes); err != nil {
		s.log.Warn().Err(err).Msg("Failed to encode run outcomes")
	} else {
		summary.Outcomes = datatypes.JSON(raw)
	}
	if err := s.store.FinalizeRunSummary(ctx, summary); err != nil {
		s.log.Warn().Err(err).Msg("Failed to finalize run summary")
	}

	failed := summary.Attempted - summary.Sent - summary.Skipped
	s.log.Info().
		Int("attempted", summary.Attempted).
		Int("sent", summary.Sent).
		Int("skipped", summary.Skipped).
		Int("failed", failed).
		Dur("took", finished.Sub(started)).
		Msg("Digest run completed")

	return summary, nil
}

// processSubscriber runs the per-subscriber pipeline: window check,
// idempotency check, phone normalization, delivery, record write. Every exit
// maps to exactly one outcome.
func (s *DigestService) processSubscriber(ctx context.Context, sub *models.Subscriber) models.DigestOutcome {
	outcome := models.DigestOutcome{SubscriberID: sub.ID, Email: sub.Email}
	log := s.log.With().Str("subscriber", sub.ID.String()).Str("email", sub.Email).Logger()

	if sub.Timezone == "" {
		log.Debug().Msg("Skipping subscriber without timezone")
		return skipped(outcome, models.ReasonNoTimezone, "")
	}

	// The evaluator runs even under ForceSend: the subscriber's local date is
	// the idempotency key, and that needs a valid timezone.
	check, err := utils.EvaluateWindow(sub.Timezone, s.now(), s.cfg.Window)
	if err != nil {
		log.Warn().Err(err).Str("timezone", sub.Timezone).Msg("Skipping subscriber with invalid timezone")
		return skipped(outcome, models.ReasonInvalidTimezone, err.Error())
	}
	if !check.InWindow && !s.cfg.ForceSend {
		log.Debug().
			Str("local_time", fmt.Sprintf("%02d:%02d", check.LocalHour, check.LocalMinute)).
			Str("window", s.cfg.Window.String()).
			Msg("Subscriber outside delivery window")
		return skipped(outcome, models.ReasonOutsideWindow, "")
	}

	sentAlready, err := s.store.DigestSentOn(ctx, sub.ID, check.LocalDate)
	if err != nil {
		// When the witness can't be read, sending could duplicate; don't.
		log.Error().Err(err).Msg("Failed to check digest record")
		return failed(outcome, models.ReasonRecordLookupFailed, err.Error())
	}
	if sentAlready {
		log.Debug().Str("local_date", check.LocalDate).Msg("Digest already sent today")
		return skipped(outcome, models.ReasonAlreadySent, "")
	}

	to, err := utils.NormalizePhone(sub.Phone)
	if err != nil {
		log.Warn().Err(err).Msg("Subscriber phone cannot be normalized")
		return failed(outcome, models.ReasonInvalidPhone, err.Error())
	}

	sid, err := s.sender.SendSMS(to, s.cfg.MessageBody)
	if err != nil {
		log.Error().Err(err).Str("to", to).Msg("Failed to send digest SMS")
		return failed(outcome, models.ReasonDeliveryFailed, err.Error())
	}
	outcome.MessageSID = sid

	rec := &models.DigestRecord{
		SubscriberID: sub.ID,
		LocalDate:    check.LocalDate,
		SentAt:       s.now(),
		ProviderSID:  sid,
	}
	if err := s.store.RecordDigest(ctx, rec); err != nil {
		// The message went out but the witness is missing: a future run can
		// double-send this subscriber. Keep this loud and distinguishable.
		log.Error().Err(err).Str("local_date", check.LocalDate).
			Msg("Digest sent but record write failed; duplicate send possible")
		return failed(outcome, models.ReasonRecordWriteFailed, err.Error())
	}

	log.Info().Str("sid", sid).Str("local_date", check.LocalDate).Msg("Digest SMS sent")
	outcome.Status = models.OutcomeSent
	return outcome
}

func skipped(o models.DigestOutcome, reason, detail string) models.DigestOutcome {
	o.Status = models.OutcomeSkipped
	o.Reason = reason
	o.Detail = detail
	return o
}

func failed(o models.DigestOutcome, reason, detail string) models.DigestOutcome {
	o.Status = models.OutcomeFailed
	o.Reason = reason
	o.Detail = detail
	return o
}
