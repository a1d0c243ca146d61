package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// purgeTimeout bounds a single purge run.
const purgeTimeout = time.Minute

// HistoryPurger deletes chat records older than a cutoff.
type HistoryPurger interface {
	PurgeHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Retention periodically drops chat history older than a fixed number of days.
type Retention struct {
	purger HistoryPurger
	days   int
	cron   *cron.Cron
	now    func() time.Time
}

// NewRetention creates a retention job that runs on schedule, a standard cron
// expression or descriptor such as "@daily". A days value of zero or less
// disables the job; Run and Stop are then no-ops.
func NewRetention(purger HistoryPurger, days int, schedule string) (*Retention, error) {
	r := &Retention{
		purger: purger,
		days:   days,
		now:    time.Now,
	}
	if !r.Enabled() {
		return r, nil
	}

	r.cron = cron.New()
	if _, err := r.cron.AddFunc(schedule, r.purge); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Enabled reports whether old history is purged at all.
func (r *Retention) Enabled() bool {
	return r.days > 0
}

// Run starts the job in the background.
func (r *Retention) Run() {
	if !r.Enabled() {
		log.Info().Msg("Chat history retention disabled")
		return
	}
	log.Info().Int("days", r.days).Msg("Starting chat history retention job...")
	r.cron.Start()
}

// Stop halts the job and waits for a running purge to finish.
func (r *Retention) Stop() {
	if !r.Enabled() {
		return
	}
	<-r.cron.Stop().Done()
	log.Info().Msg("Stopped chat history retention job.")
}

// purge deletes every record created before now minus the retention window.
func (r *Retention) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	cutoff := r.now().AddDate(0, 0, -r.days)
	deleted, err := r.purger.PurgeHistoryBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Time("cutoff", cutoff).Msg("Retention: failed to purge chat history")
		return
	}
	log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Retention: purged chat history")
}
