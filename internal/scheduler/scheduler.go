// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic upstream probe that feeds /health.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule probes once a minute.
const DefaultSchedule = "* * * * *"

// probeTimeout bounds one probe run.
const probeTimeout = 10 * time.Second

// Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the outcome of the latest probe.
type Status struct {
	// Checked is false until the first probe completes.
	Checked   bool
	Healthy   bool
	CheckedAt time.Time
	Latency   time.Duration
	Error     string
}

// Scheduler probes the backend on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	pinger   Pinger
	schedule string
	logger   *slog.Logger

	mu     sync.RWMutex
	status Status
}

// New creates a scheduler. An empty schedule uses DefaultSchedule.
func New(pinger Pinger, schedule string, logger *slog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:     cron.New(),
		pinger:   pinger,
		schedule: schedule,
		logger:   logger,
	}
}

// Start runs one probe immediately and registers the recurring job.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Probe(context.Background()) }); err != nil {
		return fmt.Errorf("invalid probe schedule %q: %w", s.schedule, err)
	}
	go s.Probe(context.Background())

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()), "schedule", s.schedule)
	return nil
}

// Stop waits for a running probe to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Probe pings the backend once and records the result.
func (s *Scheduler) Probe(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	err := s.pinger.Ping(ctx)
	st := Status{
		Checked:   true,
		Healthy:   err == nil,
		CheckedAt: start,
		Latency:   time.Since(start),
	}
	if err != nil {
		st.Error = err.Error()
	}

	s.mu.Lock()
	prev := s.status
	s.status = st
	s.mu.Unlock()

	switch {
	case err != nil && (prev.Healthy || !prev.Checked):
		s.logger.Warn("backend unreachable", "error", err, "latency", st.Latency)
	case err == nil && prev.Checked && !prev.Healthy:
		s.logger.Info("backend reachable again", "latency", st.Latency)
	}
	return st
}

// Status returns the latest probe result.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
