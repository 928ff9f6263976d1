// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a custom slog handler that integrates with the Event Log system.
// It forwards logs at WARN level and above to the database-backed Event Log for auditing.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/olegiv/randomweb/internal/store"
)

// EventLogHandler is a slog.Handler that wraps another handler and also writes
// WARN and ERROR level logs to the Event Log database.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level  // Minimum level to forward to Event Log (default: WARN)
	attrs   []slog.Attr // Attributes added with WithAttrs, kept for metadata
}

// NewEventLogHandler creates a new EventLogHandler that wraps the given handler.
// Logs at WARN level and above will be written to both the wrapped handler and the Event Log.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a new EventLogHandler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level) || level >= h.level
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.inner.Enabled(ctx, r.Level) {
		if err := h.inner.Handle(ctx, r); err != nil {
			return err
		}
	}

	if r.Level >= h.level {
		h.writeToEventLog(r)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		attrs:   append(slices.Clone(h.attrs), attrs...),
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		attrs:   h.attrs,
	}
}

// writeToEventLog writes a log record to the Event Log database.
func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	attrs := slices.Clone(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	// Background context so the event survives a cancelled request.
	_ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     slogLevelToEventLevel(r.Level),
		Category:  extractCategory(r.Message, attrs),
		Message:   r.Message,
		Metadata:  extractMetadata(attrs),
		CreatedAt: r.Time.UTC(),
	})
}

// slogLevelToEventLevel converts a slog.Level to an Event Log level.
func slogLevelToEventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return store.EventLevelError
	case level >= slog.LevelWarn:
		return store.EventLevelWarning
	default:
		return store.EventLevelInfo
	}
}

// extractCategory returns the "category" attribute, or infers one from the message.
func extractCategory(message string, attrs []slog.Attr) string {
	for _, a := range attrs {
		if a.Key == "category" {
			return a.Value.String()
		}
	}

	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") ||
		strings.Contains(msg, "logout") || strings.Contains(msg, "session"):
		return store.EventCategoryAuth
	case strings.Contains(msg, "website") || strings.Contains(msg, "catalog"):
		return store.EventCategoryCatalog
	case strings.Contains(msg, "user") || strings.Contains(msg, "profile"):
		return store.EventCategoryUser
	case strings.Contains(msg, "config") || strings.Contains(msg, "setting"):
		return store.EventCategoryConfig
	default:
		return store.EventCategorySystem
	}
}

// extractMetadata collects attributes into a JSON object of strings.
func extractMetadata(attrs []slog.Attr) string {
	meta := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.Key == "category" {
			continue
		}
		meta[a.Key] = a.Value.Resolve().String()
	}
	if len(meta) == 0 {
		return "{}"
	}

	b, err := json.Marshal(meta)
	if err != nil {
		return "{}"
	}
	return string(b)
}
