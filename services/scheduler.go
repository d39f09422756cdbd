// services/scheduler.go
package services

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
)

// StartScheduler runs the dispatcher on the given cron spec (standard 5-field
// format). A tick that lands while the previous run is still in flight is
// skipped; sequential runs are the duplicate-send guard. The returned cron
// can be stopped by the caller; its Stop context completes once an in-flight
// run drains.
func (s *DigestService) StartScheduler(spec string) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		if _, err := s.Run(context.Background()); err != nil {
			if errors.Is(err, ErrRunInProgress) {
				s.log.Warn().Msg("Skipping scheduled digest run; previous run still in progress")
				return
			}
			s.log.Error().Err(err).Msg("Scheduled digest run failed")
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	s.log.Info().Str("schedule", spec).Msg("Digest scheduler started")
	return c, nil
}
