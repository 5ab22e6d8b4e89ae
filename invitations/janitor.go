package invitations

import (
	"context"
	"time"
)

// Janitor runs Cleanup every day at Hour:00 local time.
type Janitor struct {
	Service   *Service
	Retention time.Duration
	Hour      int
	now       func() time.Time
}

func NewJanitor(s *Service, retention time.Duration) *Janitor {
	return &Janitor{Service: s, Retention: retention, Hour: 2, now: time.Now}
}

// next returns the first Hour:00 strictly after t, in t's location.
func (j *Janitor) next(t time.Time) time.Time {
	run := time.Date(t.Year(), t.Month(), t.Day(), j.Hour, 0, 0, 0, t.Location())
	if !run.After(t) {
		run = run.AddDate(0, 0, 1)
	}
	return run
}

// Run blocks until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	invLogger.WithField("hour", j.Hour).Info("Invitation janitor started")
	for {
		wait := j.next(j.now()).Sub(j.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			invLogger.Info("Invitation janitor stopped")
			return
		case <-timer.C:
			if _, err := j.Service.Cleanup(ctx, j.now(), j.Retention); err != nil {
				invLogger.WithField("error", err).Error("Invitation cleanup failed")
			}
		}
	}
}
