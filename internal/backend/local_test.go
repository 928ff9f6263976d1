// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/randomweb/internal/store"
)

const testSecret = "test-token-secret-32-bytes-long!!"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.NewDB(filepath.Join(t.TempDir(), "backend-test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background(), db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestLocal(t *testing.T) (*Local, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	l, err := NewLocal(testDB(t), LocalConfig{
		TokenSecret:     []byte(testSecret),
		SessionLifetime: time.Hour,
		Now:             clock.Now,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return l, clock
}

func signUp(t *testing.T, l *Local, email, password string) Session {
	t.Helper()
	res := l.SignUp(context.Background(), Credentials{Email: email, Password: password})
	require.True(t, res.OK(), "SignUp failed: %v", res.Failure())
	return res.Value()
}

func TestNewLocal_RequiresSecret(t *testing.T) {
	_, err := NewLocal(testDB(t), LocalConfig{})
	assert.Error(t, err)
}

func TestSignUp(t *testing.T) {
	l, clock := newTestLocal(t)

	session := signUp(t, l, "  New@Example.com ", "secret1")

	assert.NotEmpty(t, session.ID)
	assert.NotEmpty(t, session.AccessToken)
	assert.Equal(t, "new@example.com", session.User.Email)
	assert.Equal(t, clock.Now().Add(time.Hour), session.ExpiresAt)
}

func TestSignUp_Validation(t *testing.T) {
	l, _ := newTestLocal(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		creds Credentials
	}{
		{"empty email", Credentials{Password: "secret1"}},
		{"empty password", Credentials{Email: "a@example.com"}},
		{"short password", Credentials{Email: "a@example.com", Password: "12345"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := l.SignUp(ctx, tt.creds)
			require.False(t, res.OK())
			assert.Equal(t, ReasonValidation, res.Failure().Reason)
		})
	}
}

func TestSignUp_Duplicate(t *testing.T) {
	l, _ := newTestLocal(t)
	signUp(t, l, "dup@example.com", "secret1")

	res := l.SignUp(context.Background(), Credentials{Email: "DUP@example.com", Password: "secret2"})
	require.False(t, res.OK())
	assert.Equal(t, ReasonUserExists, res.Failure().Reason)
	assert.Equal(t, msgUserExists, res.Failure().Error())
}

func TestSignInWithPassword(t *testing.T) {
	l, _ := newTestLocal(t)
	ctx := context.Background()
	signUp(t, l, "user@example.com", "secret1")

	res := l.SignInWithPassword(ctx, Credentials{
		Email:     "user@example.com",
		Password:  "secret1",
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	})
	require.True(t, res.OK(), "SignInWithPassword: %v", res.Failure())
	assert.Equal(t, "user@example.com", res.Value().User.Email)
	assert.NotEmpty(t, res.Value().UserAgent)
}

func TestSignInWithPassword_Failures(t *testing.T) {
	l, _ := newTestLocal(t)
	ctx := context.Background()
	signUp(t, l, "user@example.com", "secret1")

	tests := []struct {
		name   string
		creds  Credentials
		reason Reason
	}{
		{"wrong password", Credentials{Email: "user@example.com", Password: "nope"}, ReasonInvalidCredentials},
		{"unknown email", Credentials{Email: "ghost@example.com", Password: "secret1"}, ReasonInvalidCredentials},
		{"missing fields", Credentials{}, ReasonValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := l.SignInWithPassword(ctx, tt.creds)
			require.False(t, res.OK())
			assert.Equal(t, tt.reason, res.Failure().Reason)
		})
	}
}

func TestGetSession(t *testing.T) {
	l, clock := newTestLocal(t)
	ctx := context.Background()
	session := signUp(t, l, "user@example.com", "secret1")

	res := l.GetSession(ctx, session.AccessToken)
	require.True(t, res.OK(), "GetSession: %v", res.Failure())
	assert.Equal(t, session.ID, res.Value().ID)
	assert.Equal(t, session.User.ID, res.Value().User.ID)

	clock.Advance(2 * time.Hour)
	res = l.GetSession(ctx, session.AccessToken)
	require.False(t, res.OK())
	assert.Equal(t, ReasonInvalidSession, res.Failure().Reason)
}

func TestGetSession_ForeignToken(t *testing.T) {
	l, clock := newTestLocal(t)
	session := signUp(t, l, "user@example.com", "secret1")

	other, err := newTokenSigner([]byte("another-secret-another-secret-!!"), "randomweb", clock.Now)
	require.NoError(t, err)
	forged, err := other.issue(session.User, session.ID, clock.Now(), clock.Now().Add(time.Hour))
	require.NoError(t, err)

	res := l.GetSession(context.Background(), forged)
	require.False(t, res.OK())
	assert.Equal(t, ReasonInvalidSession, res.Failure().Reason)

	res = l.GetSession(context.Background(), "")
	require.False(t, res.OK())
	assert.Equal(t, ReasonInvalidSession, res.Failure().Reason)
}

func TestSignOut(t *testing.T) {
	l, _ := newTestLocal(t)
	ctx := context.Background()
	session := signUp(t, l, "user@example.com", "secret1")

	var events []ChangeEvent
	unsubscribe := l.OnAuthStateChange(func(ev ChangeEvent) { events = append(events, ev) })
	defer unsubscribe()

	require.NoError(t, l.SignOut(ctx, session.AccessToken))

	require.Len(t, events, 1)
	assert.Equal(t, EventSignedOut, events[0].Kind)
	assert.Equal(t, session.ID, events[0].SessionID)
	assert.Nil(t, events[0].Session)

	res := l.GetSession(ctx, session.AccessToken)
	assert.False(t, res.OK())

	err := l.SignOut(ctx, "garbage")
	require.Error(t, err)
	assert.Equal(t, ReasonInvalidSession, ReasonOf(err))
}

func TestOnAuthStateChange_SignIn(t *testing.T) {
	l, _ := newTestLocal(t)
	ctx := context.Background()

	var events []ChangeEvent
	unsubscribe := l.OnAuthStateChange(func(ev ChangeEvent) { events = append(events, ev) })

	session := signUp(t, l, "user@example.com", "secret1")
	require.Len(t, events, 1)
	assert.Equal(t, EventSignedIn, events[0].Kind)
	require.NotNil(t, events[0].Session)
	assert.Equal(t, session.ID, events[0].Session.ID)

	unsubscribe()
	unsubscribe()

	res := l.SignInWithPassword(ctx, Credentials{Email: "user@example.com", Password: "secret1"})
	require.True(t, res.OK())
	assert.Len(t, events, 1, "no events after unsubscribe")
}

func TestPurgeExpired(t *testing.T) {
	l, clock := newTestLocal(t)
	ctx := context.Background()

	first := signUp(t, l, "a@example.com", "secret1")
	clock.Advance(30 * time.Minute)
	second := signUp(t, l, "b@example.com", "secret1")

	var expired []string
	unsubscribe := l.OnAuthStateChange(func(ev ChangeEvent) {
		if ev.Kind == EventSessionExpired {
			expired = append(expired, ev.SessionID)
		}
	})
	defer unsubscribe()

	clock.Advance(45 * time.Minute)
	n, err := l.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{first.ID}, expired)

	clock.Advance(time.Hour)
	n, err = l.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{first.ID, second.ID}, expired)
}

func TestProfiles(t *testing.T) {
	l, _ := newTestLocal(t)
	ctx := context.Background()
	session := signUp(t, l, "user@example.com", "secret1")

	res := l.GetProfile(ctx, session.User.ID)
	require.False(t, res.OK())
	assert.Equal(t, ReasonNotFound, res.Failure().Reason)

	inserted := l.InsertProfile(ctx, Profile{ID: session.User.ID, Email: session.User.Email})
	require.True(t, inserted.OK(), "InsertProfile: %v", inserted.Failure())
	assert.Equal(t, RoleUser, inserted.Value().Role)

	res = l.GetProfile(ctx, session.User.ID)
	require.True(t, res.OK())
	assert.Equal(t, RoleUser, res.Value().Role)

	dup := l.InsertProfile(ctx, Profile{ID: session.User.ID, Email: session.User.Email, Role: RoleAdmin})
	require.False(t, dup.OK())
	assert.Equal(t, ReasonConstraint, dup.Failure().Reason)
}

func TestWebsites(t *testing.T) {
	l, clock := newTestLocal(t)
	ctx := context.Background()
	session := signUp(t, l, "admin@example.com", "secret1")

	a := l.InsertWebsite(ctx, NewWebsite{Title: "A", URL: "https://a.example", CreatedBy: session.User.ID})
	require.True(t, a.OK(), "InsertWebsite: %v", a.Failure())
	clock.Advance(time.Minute)
	b := l.InsertWebsite(ctx, NewWebsite{Title: "B", URL: "https://b.example", CreatedBy: session.User.ID})
	require.True(t, b.OK())

	newest := l.ListWebsites(ctx, ListOptions{NewestFirst: true})
	require.True(t, newest.OK())
	require.Len(t, newest.Value(), 2)
	assert.Equal(t, "B", newest.Value()[0].Title)
	assert.Equal(t, "A", newest.Value()[1].Title)

	require.NoError(t, l.DeleteWebsite(ctx, a.Value().ID))
	require.NoError(t, l.DeleteWebsite(ctx, a.Value().ID))

	all := l.ListWebsites(ctx, ListOptions{})
	require.True(t, all.OK())
	require.Len(t, all.Value(), 1)
	assert.Equal(t, b.Value().ID, all.Value()[0].ID)

	orphan := l.InsertWebsite(ctx, NewWebsite{Title: "X", URL: "https://x.example", CreatedBy: "nobody"})
	require.False(t, orphan.OK())
	assert.Equal(t, ReasonConstraint, orphan.Failure().Reason)
}

func TestListWebsites_Empty(t *testing.T) {
	l, _ := newTestLocal(t)

	res := l.ListWebsites(context.Background(), ListOptions{})
	require.True(t, res.OK())
	assert.NotNil(t, res.Value())
	assert.Empty(t, res.Value())
}

func TestDescribeAgent(t *testing.T) {
	assert.Equal(t, "unknown", describeAgent(""))
	got := describeAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.Contains(t, got, "Chrome")
}
