// cmd/veridex/scheduler.go
package main

import (
	"github.com/robfig/cron/v3"
)

// Sweeper periodically drops expired jobs and stale scrape cache entries.
type Sweeper struct {
	cron  *cron.Cron
	store *JobStore
	cache *Cache
}

func NewSweeper(store *JobStore, cache *Cache) *Sweeper {
	return &Sweeper{
		cron:  cron.New(),
		store: store,
		cache: cache,
	}
}

// Start registers the sweep on the given cron schedule and begins running.
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return NewConfigError(ErrConfigValidation, "invalid sweep cron schedule", err)
	}
	s.cron.Start()
	Logger().Info("Sweeper started with schedule %q", schedule)
	return nil
}

// Stop halts the cron scheduler. Running sweeps finish first.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) sweep() {
	jobs := s.store.Sweep()
	pages := 0
	if s.cache != nil {
		pages = s.cache.Sweep()
	}
	Logger().Info("Sweep removed %d expired jobs and %d cached pages", jobs, pages)
}
