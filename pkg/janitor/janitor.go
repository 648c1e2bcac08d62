// Package janitor schedules the blunt storage-hygiene jobs: size-triggered
// history rotation and orphaned-media cleanup.
package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/rs/zerolog"
)

// DefaultSchedule runs maintenance at the top of every hour.
const DefaultSchedule = "0 * * * *"

// Maintainer is the slice of the history store the janitor drives.
type Maintainer interface {
	RotateIfOversized() (bool, error)
	PurgeOrphanedMedia() (int, error)
}

type Janitor struct {
	store    Maintainer
	schedule string
	gron     *gronx.Gronx
	log      zerolog.Logger
}

// New validates the cron schedule and returns a Janitor. An empty schedule
// selects DefaultSchedule.
func New(store Maintainer, schedule string, log zerolog.Logger) (*Janitor, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	gron := gronx.New()
	if !gron.IsValid(schedule) {
		return nil, fmt.Errorf("invalid maintenance schedule %q", schedule)
	}
	return &Janitor{
		store:    store,
		schedule: schedule,
		gron:     gron,
		log:      log.With().Str("component", "janitor").Logger(),
	}, nil
}

// Run ticks once a minute and sweeps whenever the schedule is due, until
// the context is cancelled.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			due, err := j.gron.IsDue(j.schedule, now)
			if err != nil {
				j.log.Error().Err(err).Msg("evaluating maintenance schedule")
				continue
			}
			if due {
				j.Sweep()
			}
		}
	}
}

// Sweep runs one maintenance pass: rotation first, then media cleanup.
// Failures are logged and do not stop the other job.
func (j *Janitor) Sweep() {
	rotated, err := j.store.RotateIfOversized()
	if err != nil {
		j.log.Error().Err(err).Msg("history rotation failed; watch storage growth")
	} else if rotated {
		j.log.Warn().Msg("history files exceeded the size limit and were rotated")
	}

	removed, err := j.store.PurgeOrphanedMedia()
	if err != nil {
		j.log.Error().Err(err).Msg("orphaned media purge failed")
	} else if removed > 0 {
		j.log.Info().Int("removed", removed).Msg("orphaned media files removed")
	}
}
