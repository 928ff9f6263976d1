// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package backend is the session store the application delegates to:
// email/password authentication, session lookup, change notifications and
// the profiles and websites tables. Every call returns an explicit Result
// or a *Failure instead of a data/error pair.
package backend

import (
	"context"
	"time"
)

// Role is the role stored on a profile.
type Role string

// Profile roles.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an account identity.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Session binds a User to a client. AccessToken is never serialized.
type Session struct {
	ID          string    `json:"id"`
	AccessToken string    `json:"-"`
	User        User      `json:"user"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserAgent   string    `json:"user_agent,omitempty"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Profile is the per-user row holding the role.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Website is a curated catalog entry.
type Website struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// NewWebsite is the insert payload for a Website.
type NewWebsite struct {
	Title     string
	URL       string
	CreatedBy string
}

// Credentials are the sign-in and sign-up inputs.
type Credentials struct {
	Email     string
	Password  string
	UserAgent string
}

// ListOptions controls ListWebsites.
type ListOptions struct {
	// NewestFirst orders by created_at descending; otherwise no order is applied.
	NewestFirst bool
}

// Auth is the authentication half of the session store.
type Auth interface {
	SignInWithPassword(ctx context.Context, c Credentials) Result[Session]
	SignUp(ctx context.Context, c Credentials) Result[Session]
	// SignOut returns nil or a *Failure.
	SignOut(ctx context.Context, accessToken string) error
	GetSession(ctx context.Context, accessToken string) Result[Session]
	OnAuthStateChange(fn func(ChangeEvent)) Unsubscribe
}

// Profiles is the profiles table.
type Profiles interface {
	GetProfile(ctx context.Context, id string) Result[Profile]
	InsertProfile(ctx context.Context, p Profile) Result[Profile]
}

// Websites is the websites table.
type Websites interface {
	ListWebsites(ctx context.Context, opts ListOptions) Result[[]Website]
	InsertWebsite(ctx context.Context, w NewWebsite) Result[Website]
	// DeleteWebsite returns nil or a *Failure. Deleting a missing id succeeds.
	DeleteWebsite(ctx context.Context, id int64) error
}

// Client is the whole session store.
type Client interface {
	Auth
	Profiles
	Websites
}
