// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic housekeeping jobs: pruning the audit
// event log and reloading the GeoIP database.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Default schedules.
const (
	PruneEventsSchedule = "0 3 * * *"  // daily at 03:00
	ReloadGeoIPSchedule = "30 4 * * 3" // Wednesdays at 04:30
)

const jobTimeout = 5 * time.Minute

// EventPruner deletes audit events older than a cutoff.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Reloader reopens a resource that may have changed on disk.
type Reloader interface {
	Reload() error
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	LastRun     time.Time
	LastError   string
	NextRun     time.Time
}

type job struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	run         func(ctx context.Context) error

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// Scheduler wraps a cron instance and the jobs registered on it.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*job
}

// New creates a scheduler. Jobs are added with Add before Start.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
		jobs:   make(map[string]*job),
	}
}

// Add registers fn under name on a standard five-field cron schedule.
func (s *Scheduler) Add(name, description, schedule string, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	j := &job{name: name, description: description, schedule: schedule, run: fn}
	id, err := s.cron.AddFunc(schedule, func() { s.execute(j) })
	if err != nil {
		return fmt.Errorf("adding job %q: %w", name, err)
	}
	j.entryID = id
	s.jobs[name] = j
	return nil
}

// AddEventPruning registers the audit retention job. retention <= 0
// disables it.
func (s *Scheduler) AddEventPruning(events EventPruner, retention time.Duration) error {
	if retention <= 0 {
		s.logger.Info("audit event pruning disabled")
		return nil
	}
	return s.Add("prune_events", "Delete audit events past the retention period", PruneEventsSchedule,
		func(ctx context.Context) error {
			n, err := events.DeleteOldEvents(ctx, retention)
			if err != nil {
				return err
			}
			if n > 0 {
				s.logger.Info("pruned audit events", "deleted", n, "retention", retention)
			}
			return nil
		})
}

// AddGeoIPReload registers the GeoIP reload job.
func (s *Scheduler) AddGeoIPReload(geo Reloader) error {
	return s.Add("reload_geoip", "Reload the GeoIP database if the file changed", ReloadGeoIPSchedule,
		func(context.Context) error { return geo.Reload() })
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Trigger runs the named job now, synchronously.
func (s *Scheduler) Trigger(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %q not found", name)
	}
	return s.execute(j)
}

// Jobs lists the registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		info := JobInfo{
			Name:        j.name,
			Description: j.description,
			Schedule:    j.schedule,
			NextRun:     s.cron.Entry(j.entryID).Next,
		}
		j.mu.Lock()
		info.LastRun = j.lastRun
		if j.lastErr != nil {
			info.LastError = j.lastErr.Error()
		}
		j.mu.Unlock()
		infos = append(infos, info)
	}
	sort.Slice(infos, func(a, b int) bool { return infos[a].Name < infos[b].Name })
	return infos
}

func (s *Scheduler) execute(j *job) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	err := j.run(ctx)

	j.mu.Lock()
	j.lastRun = start
	j.lastErr = err
	j.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed", "job", j.name, "error", err)
		return err
	}
	s.logger.Debug("scheduled job finished", "job", j.name, "duration", time.Since(start))
	return nil
}
