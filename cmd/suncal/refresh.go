package main

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	appLog "suncal/internal/log"
)

// refresher runs fn on a cron schedule that can be swapped while running.
type refresher struct {
	mu   sync.Mutex
	cron *cron.Cron
	spec string
	id   cron.EntryID
	fn   func()
}

func newRefresher(fn func()) *refresher {
	return &refresher{cron: cron.New(), fn: fn}
}

// Schedule replaces the current schedule with spec. On error the previous
// schedule stays.
func (r *refresher) Schedule(spec string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.id != 0 && spec == r.spec {
		return nil
	}
	id, err := r.cron.AddFunc(spec, r.run)
	if err != nil {
		return fmt.Errorf("refresh schedule %q: %w", spec, err)
	}
	if r.id != 0 {
		r.cron.Remove(r.id)
	}
	r.id, r.spec = id, spec
	appLog.Info("refresh scheduled", "cron", spec)
	return nil
}

func (r *refresher) run() {
	appLog.Info("scheduled refresh")
	r.fn()
}

func (r *refresher) Start() { r.cron.Start() }

// Stop stops the scheduler and waits for a running refresh to finish.
func (r *refresher) Stop() { <-r.cron.Stop().Done() }
