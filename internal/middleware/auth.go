// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// route guards, and request hardening.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/randomweb/internal/auth"
	"github.com/olegiv/randomweb/internal/session"
)

// Redirect targets for the route guards.
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// Resolver turns an access token into auth state.
type Resolver interface {
	Resolve(ctx context.Context, accessToken string) auth.State
}

// LoadAuth creates middleware that resolves the access token held in the
// browser session and stores the resulting auth.State in the request
// context. A token that no longer resolves is dropped from the session.
// It must run inside sm.LoadAndSave.
func LoadAuth(resolver Resolver, sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.WithUserAgent(r.Context(), r.UserAgent())

			token := sm.GetString(ctx, session.KeyAccessToken)
			state := resolver.Resolve(ctx, token)
			if token != "" && !state.IsAuthenticated() {
				sm.Remove(ctx, session.KeyAccessToken)
			}

			ctx = auth.WithState(ctx, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth redirects anonymous requests to the login page.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.FromContext(r.Context()).IsAuthenticated() {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedirectIfAuthenticated sends signed-in users to the dashboard.
func RedirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.FromContext(r.Context()).IsAuthenticated() {
			http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests from non-admin users with 403 Forbidden.
// Anonymous requests are redirected to the login page.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := auth.FromContext(r.Context())
		if !state.IsAuthenticated() {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		if !state.IsAdmin() {
			slog.Warn("access denied",
				"status", http.StatusForbidden,
				"method", r.Method,
				"path", r.URL.Path,
				"user_id", state.Session.User.ID,
				"user_role", state.Role,
				"remote_addr", r.RemoteAddr,
			)
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
