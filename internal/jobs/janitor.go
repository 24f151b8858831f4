// Package jobs runs background maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Pruner drops per-session state that has been idle for longer than idle
// and reports how many sessions it dropped.
type Pruner interface {
	Prune(idle time.Duration) int
}

// Janitor periodically prunes the in-memory per-session state (likes and
// inboxes) of sessions that have gone quiet.
type Janitor struct {
	cron    *cron.Cron
	idle    time.Duration
	pruners map[string]Pruner
}

// NewJanitor validates schedule and registers the sweep. schedule accepts
// standard five-field cron expressions and descriptors like "@every 1h".
func NewJanitor(schedule string, idle time.Duration, pruners map[string]Pruner) (*Janitor, error) {
	j := &Janitor{
		cron:    cron.New(),
		idle:    idle,
		pruners: pruners,
	}
	if _, err := j.cron.AddFunc(schedule, j.Sweep); err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Sweep runs every pruner once.
func (j *Janitor) Sweep() {
	for name, p := range j.pruners {
		if dropped := p.Prune(j.idle); dropped > 0 {
			log.Info().Str("state", name).Int("sessions", dropped).Msg("Pruned idle sessions")
		}
	}
}

func (j *Janitor) Start() {
	log.Info().Dur("idle_ttl", j.idle).Msg("Starting janitor")
	j.cron.Start()
}

// Stop halts the schedule and waits for a running sweep, or for ctx.
func (j *Janitor) Stop(ctx context.Context) {
	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	log.Info().Msg("Stopping janitor")
}
