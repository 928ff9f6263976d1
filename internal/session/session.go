// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the browser session that carries the access
// token, pending notices and the last random pick between requests.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Keys stored in the browser session.
const (
	KeyAccessToken = "access_token"
	KeyNotices     = "notices"
	KeyCurrentPick = "current_pick"
	KeyFormEmail   = "form_email"
)

// DefaultLifetime is used when New is given a zero lifetime.
const DefaultLifetime = 24 * time.Hour

// New creates a new session manager configured with SQLite store.
func New(db *sql.DB, lifetime time.Duration, isDev bool) *scs.SessionManager {
	sm := scs.New()

	sm.Store = sqlite3store.New(db)

	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	sm.Lifetime = lifetime
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !isDev // Secure cookies in production only
	if !isDev {
		// __Host- requires Secure, Path=/ and no Domain.
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}
