// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/randomweb/internal/metrics"
	"github.com/olegiv/randomweb/internal/store"
)

// DefaultPurgeSchedule runs the expired-session purge every 15 minutes.
const DefaultPurgeSchedule = "@every 15m"

// Purger removes expired sessions and reports how many it removed.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// Scheduler handles background maintenance jobs.
type Scheduler struct {
	db       *sql.DB
	purger   Purger
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
	timeout  time.Duration
}

// New creates a new scheduler instance. db may be nil, in which case purge
// runs are not recorded in the event log.
func New(db *sql.DB, purger Purger, schedule string, logger *slog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultPurgeSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		db:       db,
		purger:   purger,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
		timeout:  time.Minute,
	}
}

// Start registers the purge job and starts the cron runner.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunPurge(context.Background()); err != nil {
			s.logger.Error("failed to purge expired sessions", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling purge %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()), "purge_schedule", s.schedule)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunPurge purges expired sessions once.
func (s *Scheduler) RunPurge(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, nil
	}

	metrics.SessionsPurgedTotal.Add(float64(n))
	s.logger.Info("purged expired sessions", "count", n)
	s.recordPurge(ctx, n)
	return n, nil
}

// recordPurge logs the purge in the event log.
func (s *Scheduler) recordPurge(ctx context.Context, n int) {
	if s.db == nil {
		return
	}

	now := time.Now().UTC()
	metadataJSON, _ := json.Marshal(map[string]any{
		"purged":    n,
		"purged_at": now.Format(time.RFC3339),
	})

	err := store.New(s.db).CreateEvent(ctx, store.CreateEventParams{
		Level:     store.EventLevelInfo,
		Category:  store.EventCategoryAuth,
		Message:   fmt.Sprintf("Expired sessions purged by scheduler: %d", n),
		Metadata:  string(metadataJSON),
		CreatedAt: now,
	})
	if err != nil {
		s.logger.Warn("failed to log purge event", "error", err)
	}
}
