// Package scheduler runs periodic housekeeping jobs.
package scheduler

import (
	"context"
	"fmt"

	"github.com/familybicons/socios-server/internal/metrics"
	"github.com/familybicons/socios-server/internal/session"
	"github.com/familybicons/socios-server/internal/utils"
	"github.com/robfig/cron/v3"
)

// Purger drops expired rate-limit entries
type Purger interface {
	Purge() int
}

// Scheduler wraps a cron runner
type Scheduler struct {
	cron *cron.Cron
	log  *utils.Logger
}

// New creates an idle Scheduler
func New(log *utils.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		log:  log,
	}
}

// Add registers job under a cron spec such as "@every 5m"
func (s *Scheduler) Add(spec, name string, job func()) error {
	if _, err := s.cron.AddFunc(spec, job); err != nil {
		return fmt.Errorf("error scheduling %s: %w", name, err)
	}
	s.log.Info("scheduled %s (%s)", name, spec)
	return nil
}

// Start runs the jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and returns a context done when running jobs finish
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// SessionMaintenance sweeps expired sessions, purges the login limiter and
// refreshes the active session gauge
func SessionMaintenance(store session.Store, limiter Purger, m *metrics.Collector, log *utils.Logger) func() {
	return func() {
		ctx := context.Background()

		removed, err := store.Sweep(ctx)
		if err != nil {
			log.Error("session sweep failed: %v", err)
		}

		purged := limiter.Purge()

		n, err := store.Count(ctx)
		if err != nil {
			log.Error("session count failed: %v", err)
			return
		}
		m.SetActiveSessions(n)

		if removed > 0 || purged > 0 {
			log.Info("session maintenance: %d sessions expired, %d limiter entries purged, %d active", removed, purged, n)
		}
	}
}
