// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "randomweb-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() { _ = db.Close() }
}

// testSetup returns a migrated database, its cleanup, a context and queries.
func testSetup(t *testing.T) (*sql.DB, func(), context.Context, *Queries) {
	t.Helper()
	db, cleanup := testDB(t)
	return db, cleanup, context.Background(), New(db)
}

func createTestUser(t *testing.T, ctx context.Context, q *Queries, id, email string) AuthUser {
	t.Helper()
	now := time.Now().UTC()
	user, err := q.CreateAuthUser(ctx, CreateAuthUserParams{
		ID:           id,
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateAuthUser: %v", err)
	}
	return user
}

func TestCreateAuthUser(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	user := createTestUser(t, ctx, q, "u-1", "test@example.com")

	if user.ID != "u-1" {
		t.Errorf("ID = %q, want %q", user.ID, "u-1")
	}
	if user.Email != "test@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "test@example.com")
	}

	found, err := q.GetAuthUserByEmail(ctx, "test@example.com")
	if err != nil {
		t.Fatalf("GetAuthUserByEmail: %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("found.ID = %q, want %q", found.ID, user.ID)
	}
}

func TestCreateAuthUser_DuplicateEmail(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	createTestUser(t, ctx, q, "u-1", "dup@example.com")

	now := time.Now().UTC()
	_, err := q.CreateAuthUser(ctx, CreateAuthUserParams{
		ID:           "u-2",
		Email:        "dup@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err == nil {
		t.Fatal("expected unique constraint error for duplicate email")
	}
}

func TestGetAuthUserByEmail_NotFound(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	_, err := q.GetAuthUserByEmail(ctx, "missing@example.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestAuthSessions(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	user := createTestUser(t, ctx, q, "u-1", "s@example.com")
	now := time.Now().UTC()

	live, err := q.CreateAuthSession(ctx, CreateAuthSessionParams{
		ID: "live", UserID: user.ID, UserAgent: "test", CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if _, err := q.CreateAuthSession(ctx, CreateAuthSessionParams{
		ID: "old", UserID: user.ID, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}

	got, err := q.GetAuthSession(ctx, live.ID)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if got.UserID != user.ID {
		t.Errorf("UserID = %q, want %q", got.UserID, user.ID)
	}
	if got.UserAgent != "test" {
		t.Errorf("UserAgent = %q, want %q", got.UserAgent, "test")
	}

	expired, err := q.ListExpiredAuthSessions(ctx, now)
	if err != nil {
		t.Fatalf("ListExpiredAuthSessions: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != "old" {
		t.Fatalf("expired = %+v, want only %q", expired, "old")
	}

	n, err := q.DeleteAuthSession(ctx, "old")
	if err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	if n != 1 {
		t.Errorf("rows affected = %d, want 1", n)
	}

	n, err = q.DeleteAuthSession(ctx, "old")
	if err != nil {
		t.Fatalf("DeleteAuthSession (again): %v", err)
	}
	if n != 0 {
		t.Errorf("rows affected = %d, want 0", n)
	}
}

func TestProfiles(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	user := createTestUser(t, ctx, q, "u-1", "p@example.com")

	if _, err := q.GetProfile(ctx, user.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("GetProfile before insert: err = %v, want sql.ErrNoRows", err)
	}

	created, err := q.CreateProfile(ctx, CreateProfileParams{
		ID: user.ID, Email: user.Email, Role: "admin", CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if created.Role != "admin" {
		t.Errorf("Role = %q, want %q", created.Role, "admin")
	}

	got, err := q.GetProfile(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Email != "p@example.com" {
		t.Errorf("Email = %q, want %q", got.Email, "p@example.com")
	}
}

func TestWebsites_Ordering(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	user := createTestUser(t, ctx, q, "u-1", "w@example.com")
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, title := range []string{"first", "second", "third"} {
		if _, err := q.CreateWebsite(ctx, CreateWebsiteParams{
			Title:     title,
			URL:       "https://" + title + ".example",
			CreatedBy: user.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("CreateWebsite(%s): %v", title, err)
		}
	}

	newest, err := q.ListWebsitesNewestFirst(ctx)
	if err != nil {
		t.Fatalf("ListWebsitesNewestFirst: %v", err)
	}
	if len(newest) != 3 {
		t.Fatalf("len = %d, want 3", len(newest))
	}
	want := []string{"third", "second", "first"}
	for i, w := range newest {
		if w.Title != want[i] {
			t.Errorf("newest[%d].Title = %q, want %q", i, w.Title, want[i])
		}
	}

	all, err := q.ListWebsites(ctx)
	if err != nil {
		t.Fatalf("ListWebsites: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len(all) = %d, want 3", len(all))
	}

	count, err := q.CountWebsites(ctx)
	if err != nil {
		t.Fatalf("CountWebsites: %v", err)
	}
	if count != 3 {
		t.Errorf("CountWebsites = %d, want 3", count)
	}
}

func TestWebsites_Delete(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	user := createTestUser(t, ctx, q, "u-1", "d@example.com")
	w, err := q.CreateWebsite(ctx, CreateWebsiteParams{
		Title: "gone", URL: "https://gone.example", CreatedBy: user.ID, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateWebsite: %v", err)
	}

	if err := q.DeleteWebsite(ctx, w.ID); err != nil {
		t.Fatalf("DeleteWebsite: %v", err)
	}
	// Deleting a missing row is not an error.
	if err := q.DeleteWebsite(ctx, w.ID); err != nil {
		t.Fatalf("DeleteWebsite (missing): %v", err)
	}

	all, err := q.ListWebsites(ctx)
	if err != nil {
		t.Fatalf("ListWebsites: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("len = %d, want 0", len(all))
	}
}

func TestWebsites_UnknownOwner(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	_, err := q.CreateWebsite(ctx, CreateWebsiteParams{
		Title: "orphan", URL: "https://orphan.example", CreatedBy: "nobody", CreatedAt: time.Now().UTC(),
	})
	if err == nil {
		t.Fatal("expected foreign key error for unknown owner")
	}
}

func TestEvents(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	if err := q.CreateEvent(ctx, CreateEventParams{
		Level: "warning", Category: "auth", Message: "login failed", Metadata: `{"email":"x"}`, CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	events, err := q.ListEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len = %d, want 1", len(events))
	}
	if events[0].Category != "auth" {
		t.Errorf("Category = %q, want %q", events[0].Category, "auth")
	}
}

func TestSeed(t *testing.T) {
	db, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	admin := AdminSeed{ID: "admin-1", Email: "admin@example.com", PasswordHash: "hash"}

	if err := Seed(ctx, db, false, admin); err != nil {
		t.Fatalf("Seed (disabled): %v", err)
	}
	if _, err := q.GetAuthUserByEmail(ctx, admin.Email); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("disabled seed created a user: err = %v", err)
	}

	if err := Seed(ctx, db, true, admin); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	// Second run is a no-op.
	if err := Seed(ctx, db, true, admin); err != nil {
		t.Fatalf("Seed (again): %v", err)
	}

	profile, err := q.GetProfile(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.Role != "admin" {
		t.Errorf("Role = %q, want %q", profile.Role, "admin")
	}
}
