// Package scheduler drives the backup daemon.
//
// Every tick it walks the configured servers and databases and fires any
// that are due, either daily at a fixed HH:MM or every interval_hours.
// Last-run times are kept in memory only; after a restart a past-due daily
// schedule fires again at most once.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/mariabak-dev/mariabak/internal/backup"
	"github.com/mariabak-dev/mariabak/internal/config"
)

// DefaultTick is the evaluation interval.
const DefaultTick = time.Minute

// Scheduler evaluates backup schedules and runs due backups.
type Scheduler struct {
	Config *config.Config
	Runner *backup.Runner
	Logger *slog.Logger

	// Tick overrides the evaluation interval in tests.
	Tick time.Duration
	// Now is the clock, overridable in tests. Defaults to time.Now.
	Now func() time.Time

	lastRun map[scheduleKey]time.Time
}

type scheduleKey struct {
	host     string
	database string
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}

	return time.Now()
}

// Run evaluates schedules until ctx is canceled. The first evaluation
// happens immediately so a past-due daily schedule does not wait a tick.
func (s *Scheduler) Run(ctx context.Context) error {
	tick := s.Tick
	if tick <= 0 {
		tick = DefaultTick
	}

	s.Evaluate(ctx)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Evaluate(ctx)
		}
	}
}

// Evaluate runs every due backup once, updating last-run times.
// It may be called directly without Run, e.g. for a one-shot evaluation.
func (s *Scheduler) Evaluate(ctx context.Context) {
	if s.lastRun == nil {
		s.lastRun = make(map[scheduleKey]time.Time)
	}

	now := s.now()

	for _, server := range s.Config.Servers {
		for _, db := range server.Databases {
			if ctx.Err() != nil {
				return
			}

			key := scheduleKey{host: server.Host, database: db.Name}
			last, ran := s.lastRun[key]

			due, err := isDue(server, now, last, ran)
			if err != nil {
				s.Logger.Error("invalid schedule",
					slog.String("host", server.Host),
					slog.String("database", db.Name),
					slog.String("schedule", server.Schedule),
				)

				continue
			}

			if !due {
				continue
			}

			// Backup errors are already reported by the runner; the
			// schedule advances either way so a broken database does not
			// retry every minute.
			_ = s.Runner.RunDatabase(ctx, server, db)
			s.lastRun[key] = now
		}
	}
}

// isDue decides whether a server's schedule has fired for one database.
// A daily schedule wins over interval_hours when both are set; a server
// with neither never fires.
func isDue(server config.ServerConfig, now, last time.Time, ran bool) (bool, error) {
	if server.Schedule != "" {
		return dueDaily(server.Schedule, now, last, ran)
	}

	if server.IntervalHours > 0 {
		return dueInterval(server.IntervalHours, now, last, ran), nil
	}

	return false, nil
}

// dueDaily fires once per day after the HH:MM mark.
func dueDaily(schedule string, now, last time.Time, ran bool) (bool, error) {
	at, err := config.ParseDailySchedule(schedule)
	if err != nil {
		return false, err
	}

	target := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())

	if now.Before(target) {
		return false, nil
	}

	return !ran || last.Before(target), nil
}

// dueInterval fires when the last run is at least the interval ago.
func dueInterval(hours int, now, last time.Time, ran bool) bool {
	if !ran {
		return true
	}

	return now.Sub(last) >= time.Duration(hours)*time.Hour
}
