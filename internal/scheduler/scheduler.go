// Package scheduler runs the server's periodic housekeeping on a cron
// schedule.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/weekplan/internal/logger"
)

// Purger drops entries that expired before now and reports how many went.
// auth.MemorySessions and auth.StateStore implement it.
type Purger interface {
	Purge(now time.Time) int
}

type Scheduler struct {
	cron *cron.Cron
	now  func() time.Time
}

func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc)),
		now:  time.Now,
	}
}

// AddCleanup registers a job that purges every target on spec, e.g.
// "@every 15m" or "0 3 * * *".
func (s *Scheduler) AddCleanup(spec string, targets map[string]Purger) (cron.EntryID, error) {
	if len(targets) == 0 {
		return 0, fmt.Errorf("no cleanup targets")
	}
	id, err := s.cron.AddFunc(spec, func() { s.RunCleanup(targets) })
	if err != nil {
		return 0, fmt.Errorf("invalid cleanup schedule %q: %w", spec, err)
	}
	return id, nil
}

// RunCleanup purges all targets once and returns the total removed.
func (s *Scheduler) RunCleanup(targets map[string]Purger) int {
	now := s.now()
	total := 0
	for name, p := range targets {
		n := p.Purge(now)
		if n > 0 {
			logger.Info("Purged expired entries", "target", name, "count", n)
		}
		total += n
	}
	return total
}

// Next returns when entry id runs next, or the zero time if it is unknown.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// ValidateSpec reports whether spec parses as a standard cron spec or
// descriptor.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}
