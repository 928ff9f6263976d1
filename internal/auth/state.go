// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"

	"github.com/olegiv/randomweb/internal/backend"
)

// State is what the rest of the application knows about the current user.
type State struct {
	Session *backend.Session
	Role    backend.Role
}

// IsAuthenticated reports whether a session is present.
func (s State) IsAuthenticated() bool {
	return s.Session != nil
}

// IsAdmin reports whether the role is admin.
func (s State) IsAdmin() bool {
	return s.Role == backend.RoleAdmin
}

// User returns the signed-in user, or nil.
func (s State) User() *backend.User {
	if s.Session == nil {
		return nil
	}
	u := s.Session.User
	return &u
}

type contextKey string

const (
	stateKey     contextKey = "auth_state"
	userAgentKey contextKey = "user_agent"
)

// WithState returns a context carrying s.
func WithState(ctx context.Context, s State) context.Context {
	return context.WithValue(ctx, stateKey, s)
}

// FromContext returns the state stored by WithState, or the anonymous state.
func FromContext(ctx context.Context) State {
	s, _ := ctx.Value(stateKey).(State)
	return s
}

// WithUserAgent records the client's user agent for the next sign-in.
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey, ua)
}

func userAgentFrom(ctx context.Context) string {
	ua, _ := ctx.Value(userAgentKey).(string)
	return ua
}
