// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/olegiv/randomweb/internal/store"
)

type stubPurger struct {
	n     int
	err   error
	calls int
}

func (p *stubPurger) PurgeExpired(context.Context) (int, error) {
	p.calls++
	return p.n, p.err
}

// testDB creates a migrated SQLite database for testing.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "scheduler-test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := store.Migrate(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// testLogger creates a test logger that discards output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	logger := testLogger()

	s := New(nil, &stubPurger{}, "", logger)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
	if s.schedule != DefaultPurgeSchedule {
		t.Errorf("schedule = %q, want %q", s.schedule, DefaultPurgeSchedule)
	}
	if s.logger != logger {
		t.Error("New() scheduler has wrong logger")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(nil, &stubPurger{}, "@every 1h", testLogger())

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := len(s.cron.Entries()); got != 1 {
		t.Errorf("entries = %d, want 1", got)
	}

	s.Stop()
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(nil, &stubPurger{}, "every now and then", testLogger())

	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Start() should reject an invalid schedule")
	}
}

func TestRunPurge_RecordsEvent(t *testing.T) {
	db := testDB(t)
	purger := &stubPurger{n: 3}
	s := New(db, purger, "", testLogger())

	n, err := s.RunPurge(context.Background())
	if err != nil {
		t.Fatalf("RunPurge() error = %v", err)
	}
	if n != 3 {
		t.Errorf("RunPurge() = %d, want 3", n)
	}

	events, err := store.New(db).ListEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Category != store.EventCategoryAuth {
		t.Errorf("category = %q, want %q", events[0].Category, store.EventCategoryAuth)
	}
}

func TestRunPurge_NothingToDo(t *testing.T) {
	db := testDB(t)
	s := New(db, &stubPurger{}, "", testLogger())

	if _, err := s.RunPurge(context.Background()); err != nil {
		t.Fatalf("RunPurge() error = %v", err)
	}

	events, err := store.New(db).ListEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events = %d, want 0", len(events))
	}
}

func TestRunPurge_Error(t *testing.T) {
	boom := errors.New("database is locked")
	s := New(nil, &stubPurger{err: boom}, "", testLogger())

	if _, err := s.RunPurge(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("RunPurge() error = %v, want %v", err, boom)
	}
}
