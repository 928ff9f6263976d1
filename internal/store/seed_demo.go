// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type demoWebsite struct {
	Title string
	URL   string
}

// demoWebsites is the starter catalog used in demo mode.
var demoWebsites = []demoWebsite{
	{Title: "The Useless Web", URL: "https://theuselessweb.com"},
	{Title: "Radio Garden", URL: "https://radio.garden"},
	{Title: "Window Swap", URL: "https://www.window-swap.com"},
	{Title: "A Soft Murmur", URL: "https://asoftmurmur.com"},
	{Title: "Neal.fun", URL: "https://neal.fun"},
	{Title: "Patatap", URL: "https://patatap.com"},
}

// SeedDemo fills an empty catalog with a starter set of websites owned by
// ownerID. Does nothing when demo mode is off or the catalog has rows.
func SeedDemo(ctx context.Context, db *sql.DB, demoMode bool, ownerID string) error {
	if !demoMode {
		return nil
	}

	queries := New(db)

	count, err := queries.CountWebsites(ctx)
	if err != nil {
		return fmt.Errorf("counting websites: %w", err)
	}
	if count > 0 {
		slog.Info("catalog not empty, skipping demo websites", "count", count)
		return nil
	}

	now := time.Now().UTC()
	for i, w := range demoWebsites {
		if _, err := queries.CreateWebsite(ctx, CreateWebsiteParams{
			Title:     w.Title,
			URL:       w.URL,
			CreatedBy: ownerID,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}); err != nil {
			return fmt.Errorf("creating demo website %q: %w", w.Title, err)
		}
	}

	slog.Info("demo websites seeded", "count", len(demoWebsites))
	return nil
}
