// Package cron implements the Cron Scheduler: it fires registered
// automations on a robfig/cron/v3 schedule and guarantees at-most-one
// concurrent fire per automation via golang.org/x/sync/singleflight.
//
// Grounded on the teacher's internal/workflow/core/engine/scheduler.go
// (Scheduler + cron.Cron + per-job wrapper), generalised from its
// workflow-specific ScheduledWorkflow to a host-supplied Automation and
// Fire callback, and extended with the singleflight guarantee spec.md
// §8 requires (a fire that overlaps an in-flight fire of the same
// automation collapses into it).
package cron

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Narcis13/workscript-sub004/internal/apperrors"
	"github.com/Narcis13/workscript-sub004/internal/metrics"
)

// Automation is a host-registered cron-triggered unit of work.
type Automation struct {
	ID       string
	Schedule string // standard 5-field cron expression, or 6 fields with a leading seconds field
	Enabled  func() bool
	Fire     func(ctx context.Context) error
}

// Status reports one automation's bookkeeping for introspection APIs.
type Status struct {
	ID        string     `json:"id"`
	Schedule  string     `json:"schedule"`
	Enabled   bool       `json:"enabled"`
	LastFired *time.Time `json:"lastFired,omitempty"`
	LastError string     `json:"lastError,omitempty"`
	FireCount int64      `json:"fireCount"`
}

type entry struct {
	automation Automation
	entryID    cron.EntryID

	mu        sync.Mutex
	lastFired *time.Time
	lastError string
	fireCount int64
}

// Scheduler owns the process-wide cron loop.
type Scheduler struct {
	mu      sync.RWMutex
	c       *cron.Cron
	entries map[string]*entry
	group   singleflight.Group
	logger  zerolog.Logger
	metrics *metrics.Collector
	loc     *time.Location
}

// Option customises a Scheduler at construction.
type Option func(*Scheduler)

func WithLocation(loc *time.Location) Option { return func(s *Scheduler) { s.loc = loc } }
func WithMetrics(c *metrics.Collector) Option { return func(s *Scheduler) { s.metrics = c } }

// New builds a Scheduler. It does not start the underlying cron loop
// until Start is called.
func New(logger zerolog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		entries: make(map[string]*entry),
		logger:  logger,
		loc:     time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.c = cron.New(cron.WithLocation(s.loc), cron.WithParser(cron.NewParser(
		cron.SecondOptional|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)))
	return s
}

// Start begins running the cron loop. Safe to call once.
func (s *Scheduler) Start() { s.c.Start() }

// Shutdown stops accepting new fires and waits for in-flight ones to
// finish, bounded by ctx.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	stopCtx := s.c.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule registers a, starting it on the cron loop. Registering the
// same id twice is rejected; call Reschedule instead.
func (s *Scheduler) Schedule(a Automation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[a.ID]; exists {
		return apperrors.NewScheduler("automation already scheduled: "+a.ID, nil)
	}

	e := &entry{automation: a}
	id, err := s.c.AddFunc(a.Schedule, func() { s.dispatch(e) })
	if err != nil {
		return apperrors.NewScheduler("invalid cron expression: "+a.Schedule, err)
	}
	e.entryID = id
	s.entries[a.ID] = e
	return nil
}

// Unschedule removes an automation. A miss is a no-op.
func (s *Scheduler) Unschedule(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return
	}
	s.c.Remove(e.entryID)
	delete(s.entries, id)
}

// Reschedule replaces an automation's definition by unscheduling it and
// then scheduling a, carrying over its fire count and last-fired time.
// The two steps do not hold the lock together, and if a's expression is
// invalid the old entry has already been removed.
func (s *Scheduler) Reschedule(a Automation) error {
	s.mu.Lock()
	existing, ok := s.entries[a.ID]
	s.mu.Unlock()
	if ok {
		s.Unschedule(a.ID)
	}
	if err := s.Schedule(a); err != nil {
		return err
	}
	if ok {
		s.mu.RLock()
		newEntry := s.entries[a.ID]
		s.mu.RUnlock()
		newEntry.mu.Lock()
		existing.mu.Lock()
		newEntry.fireCount = existing.fireCount
		newEntry.lastFired = existing.lastFired
		existing.mu.Unlock()
		newEntry.mu.Unlock()
	}
	return nil
}

// Status returns bookkeeping for every scheduled automation.
func (s *Scheduler) Status() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Status, 0, len(s.entries))
	for id, e := range s.entries {
		e.mu.Lock()
		out = append(out, Status{
			ID:        id,
			Schedule:  e.automation.Schedule,
			Enabled:   e.automation.Enabled == nil || e.automation.Enabled(),
			LastFired: e.lastFired,
			LastError: e.lastError,
			FireCount: e.fireCount,
		})
		e.mu.Unlock()
	}
	return out
}

// dispatch is the cron callback: it reads Enabled at fire time (not at
// schedule time, so a pause takes effect on the very next tick) and
// collapses concurrent fires of the same automation into one in-flight
// call via singleflight, satisfying the at-most-one-concurrent-fire
// guarantee.
func (s *Scheduler) dispatch(e *entry) {
	if e.automation.Enabled != nil && !e.automation.Enabled() {
		return
	}

	started := time.Now()
	_, err, _ := s.group.Do(e.automation.ID, func() (any, error) {
		return nil, e.automation.Fire(context.Background())
	})
	duration := time.Since(started)

	e.mu.Lock()
	now := time.Now()
	e.lastFired = &now
	e.fireCount++
	outcome := "ok"
	if err != nil {
		e.lastError = err.Error()
		outcome = "error"
	} else {
		e.lastError = ""
	}
	e.mu.Unlock()

	if s.metrics != nil {
		s.metrics.CronFiresTotal.WithLabelValues(e.automation.ID, outcome).Inc()
		s.metrics.CronFireDuration.WithLabelValues(e.automation.ID).Observe(duration.Seconds())
	}
	if err != nil {
		s.logger.Error().Err(err).Str("automation", e.automation.ID).Msg("automation fire failed")
	} else {
		s.logger.Debug().Str("automation", e.automation.ID).Dur("duration", duration).Msg("automation fired")
	}
}
