// Package scheduler periodically enqueues spending report jobs for every
// onboarded account.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-coach/internal/jobs"
)

// AccountLister yields the account keys that should receive reports.
type AccountLister interface {
	AccountKeys() []string
}

// Scheduler enqueues one report job per account on a fixed interval.
type Scheduler struct {
	accounts  AccountLister
	publisher jobs.Publisher
	interval  time.Duration
	log       zerolog.Logger
}

// New creates a scheduler. A non-positive interval defaults to one week.
func New(accounts AccountLister, publisher jobs.Publisher, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 7 * 24 * time.Hour
	}
	return &Scheduler{
		accounts:  accounts,
		publisher: publisher,
		interval:  interval,
		log:       log,
	}
}

// Run ticks until the context is cancelled. It blocks, so callers run it in
// its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("Report scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Report scheduler stopped")
			return
		case <-ticker.C:
			s.enqueueAll(ctx)
		}
	}
}

func (s *Scheduler) enqueueAll(ctx context.Context) {
	keys := s.accounts.AccountKeys()
	if len(keys) == 0 {
		return
	}
	for _, key := range keys {
		job := &jobs.ReportJob{AccountKey: key}
		if err := s.publisher.PublishReport(ctx, job); err != nil {
			s.log.Warn().Err(err).Str("account_key", key).Msg("Could not enqueue report job")
			continue
		}
		s.log.Info().Str("account_key", key).Str("job_id", job.JobID).Msg("Report job enqueued")
	}
}
