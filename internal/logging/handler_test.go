// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/olegiv/randomweb/internal/store"
)

// testDB creates a temporary test database with migrations applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "logging-test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listEvents(t *testing.T, db *sql.DB) []store.Event {
	t.Helper()
	events, err := store.New(db).ListEvents(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	return events
}

func TestEventLogHandler_Levels(t *testing.T) {
	tests := []struct {
		name      string
		log       func(*slog.Logger)
		wantLevel string
		captured  bool
	}{
		{"error", func(l *slog.Logger) { l.Error("database connection failed") }, store.EventLevelError, true},
		{"warn", func(l *slog.Logger) { l.Warn("slow query detected") }, store.EventLevelWarning, true},
		{"info", func(l *slog.Logger) { l.Info("server started") }, "", false},
		{"debug", func(l *slog.Logger) { l.Debug("tick") }, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testDB(t)
			tt.log(slog.New(NewEventLogHandler(discardHandler{}, db)))

			events := listEvents(t, db)
			if !tt.captured {
				if len(events) != 0 {
					t.Fatalf("expected no events, got %d", len(events))
				}
				return
			}
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if events[0].Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", events[0].Level, tt.wantLevel)
			}
		})
	}
}

func TestEventLogHandler_CustomLevel(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, db, slog.LevelInfo))

	logger.Info("website added")

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Level != store.EventLevelInfo {
		t.Errorf("Level = %q, want %q", events[0].Level, store.EventLevelInfo)
	}
}

func TestEventLogHandler_CategoryInference(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"login failed for user", store.EventCategoryAuth},
		{"session store error", store.EventCategoryAuth},
		{"failed to delete website", store.EventCategoryCatalog},
		{"profile insert failed", store.EventCategoryUser},
		{"invalid config value", store.EventCategoryConfig},
		{"disk almost full", store.EventCategorySystem},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := extractCategory(tt.message, nil); got != tt.want {
				t.Errorf("extractCategory(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestEventLogHandler_ExplicitCategoryAndMetadata(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).With("request_id", "req-1")

	logger.Warn("something odd", "category", "custom", "website_id", 42)

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Category != "custom" {
		t.Errorf("Category = %q, want custom", events[0].Category)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(events[0].Metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v (%s)", err, events[0].Metadata)
	}
	if meta["request_id"] != "req-1" || meta["website_id"] != "42" {
		t.Errorf("metadata = %v", meta)
	}
	if _, ok := meta["category"]; ok {
		t.Error("category should not be repeated in metadata")
	}
}

func TestExtractMetadata_Empty(t *testing.T) {
	if got := extractMetadata(nil); got != "{}" {
		t.Errorf("extractMetadata(nil) = %q, want {}", got)
	}
}
