// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth wraps the session store with the login, register and logout
// flows and keeps an in-memory mirror of live sessions that is updated from
// the store's change notifications.
package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/olegiv/randomweb/internal/backend"
	"github.com/olegiv/randomweb/internal/metrics"
	"github.com/olegiv/randomweb/internal/notice"
)

// Notice copy shown after each flow.
const (
	TitleLoginSuccess    = "Login successful"
	DescLoginSuccess     = "Welcome back!"
	TitleLoginFailed     = "Login failed"
	TitleRegisterSuccess = "Registration successful"
	DescRegisterSuccess  = "Welcome to our platform!"
	TitleRegisterFailed  = "Registration failed"
	TitleLogoutSuccess   = "Logged out"
	DescLogoutSuccess    = "You have been successfully logged out"
	TitleLogoutFailed    = "Logout failed"
)

// Manager is the application's view of authentication. Create one with
// NewManager, call Start once at startup and Stop on shutdown.
type Manager struct {
	client   backend.Client
	notifier notice.Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu          sync.RWMutex
	sessions    map[string]State  // session id -> state
	tokens      map[string]string // access token -> session id
	generation  uint64            // bumped on every forget
	unsubscribe backend.Unsubscribe
}

// NewManager creates a Manager. A nil logger uses slog.Default.
func NewManager(client backend.Client, notifier notice.Notifier, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		client:   client,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]State),
		tokens:   make(map[string]string),
	}
}

// Start subscribes to session change notifications. Calling Start on a
// started Manager does nothing.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil {
		return
	}
	m.unsubscribe = m.client.OnAuthStateChange(m.handleChange)
}

// Stop disposes the subscription and forgets mirrored sessions.
func (m *Manager) Stop() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.sessions = make(map[string]State)
	m.tokens = make(map[string]string)
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Mirrored returns the number of sessions held in memory.
func (m *Manager) Mirrored() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) handleChange(ev backend.ChangeEvent) {
	m.logger.Debug("session change", "kind", ev.Kind, "session_id", ev.SessionID, "remote", ev.Remote)

	switch ev.Kind {
	case backend.EventSignedIn:
		if ev.Session == nil {
			return
		}
		m.mu.Lock()
		// Sessions not yet mirrored are resolved on first use, which also
		// loads the role.
		if cur, ok := m.sessions[ev.SessionID]; ok {
			next := *ev.Session
			if next.AccessToken == "" {
				next.AccessToken = cur.Session.AccessToken
			}
			m.sessions[ev.SessionID] = State{Session: &next, Role: cur.Role}
		}
		m.mu.Unlock()
	case backend.EventUserUpdated, backend.EventSignedOut, backend.EventSessionExpired:
		m.forget(ev.SessionID)
	}
}

// Login signs in with email and password. On failure the mirrored state is
// unchanged and the failure is returned.
func (m *Manager) Login(ctx context.Context, email, password string) (State, error) {
	res := m.client.SignInWithPassword(ctx, backend.Credentials{
		Email:     email,
		Password:  password,
		UserAgent: userAgentFrom(ctx),
	})
	if !res.OK() {
		failure := res.Failure()
		m.logger.Info("login failed", "email", email, "reason", failure.Reason)
		metrics.AuthOperationsTotal.WithLabelValues("login", metrics.ResultFailure).Inc()
		m.notifier.Notify(ctx, notice.Failure(TitleLoginFailed, failure.Error()))
		return State{}, failure
	}

	session := res.Value()
	state := State{Session: &session, Role: m.roleFor(ctx, session.User)}
	m.remember(state)

	m.logger.Info("user logged in", "user_id", session.User.ID, "role", state.Role)
	metrics.AuthOperationsTotal.WithLabelValues("login", metrics.ResultSuccess).Inc()
	m.notifier.Notify(ctx, notice.Success(TitleLoginSuccess, DescLoginSuccess))
	return state, nil
}

// Register creates an account, stores its profile with the user role and
// signs it in.
func (m *Manager) Register(ctx context.Context, email, password string) (State, error) {
	res := m.client.SignUp(ctx, backend.Credentials{
		Email:     email,
		Password:  password,
		UserAgent: userAgentFrom(ctx),
	})
	if !res.OK() {
		failure := res.Failure()
		m.logger.Info("registration failed", "email", email, "reason", failure.Reason)
		metrics.AuthOperationsTotal.WithLabelValues("register", metrics.ResultFailure).Inc()
		m.notifier.Notify(ctx, notice.Failure(TitleRegisterFailed, failure.Error()))
		return State{}, failure
	}

	session := res.Value()
	profile := m.client.InsertProfile(ctx, backend.Profile{
		ID:    session.User.ID,
		Email: session.User.Email,
		Role:  backend.RoleUser,
	})
	if !profile.OK() {
		m.logger.Warn("profile insert failed", "user_id", session.User.ID, "error", profile.Failure())
	}

	state := State{Session: &session, Role: backend.RoleUser}
	m.remember(state)

	m.logger.Info("user registered", "user_id", session.User.ID)
	metrics.AuthOperationsTotal.WithLabelValues("register", metrics.ResultSuccess).Inc()
	m.notifier.Notify(ctx, notice.Success(TitleRegisterSuccess, DescRegisterSuccess))
	return state, nil
}

// Logout ends the session behind accessToken. The outcome is reported as a
// notice; the mirrored state for the token is cleared either way.
func (m *Manager) Logout(ctx context.Context, accessToken string) {
	err := m.client.SignOut(ctx, accessToken)
	m.forgetToken(accessToken)

	metrics.AuthOperationsTotal.WithLabelValues("logout", metrics.Result(err)).Inc()
	if err != nil {
		m.logger.Info("logout failed", "error", err)
		m.notifier.Notify(ctx, notice.Failure(TitleLogoutFailed, err.Error()))
		return
	}
	m.notifier.Notify(ctx, notice.Success(TitleLogoutSuccess, DescLogoutSuccess))
}

// Resolve returns the state for accessToken, asking the session store when
// the session is not mirrored. Any failure yields the anonymous state.
func (m *Manager) Resolve(ctx context.Context, accessToken string) State {
	if accessToken == "" {
		return State{}
	}

	m.mu.RLock()
	state, ok := m.sessions[m.tokens[accessToken]]
	m.mu.RUnlock()
	if ok {
		if !state.Session.Expired(m.now()) {
			return state
		}
		m.forget(state.Session.ID)
	}

	m.mu.RLock()
	generation := m.generation
	m.mu.RUnlock()

	res := m.client.GetSession(ctx, accessToken)
	if !res.OK() {
		return State{}
	}
	session := res.Value()
	state = State{Session: &session, Role: m.roleFor(ctx, session.User)}
	// A session forgotten while the lookup was in flight may have been
	// signed out; it must not be mirrored again.
	m.rememberUnless(state, generation)
	return state
}

// roleFor loads the user's role, defaulting to user when the profile is
// missing or cannot be read.
func (m *Manager) roleFor(ctx context.Context, user backend.User) backend.Role {
	res := m.client.GetProfile(ctx, user.ID)
	if !res.OK() {
		m.logger.Debug("profile lookup failed, defaulting role", "user_id", user.ID, "reason", res.Failure().Reason)
		return backend.RoleUser
	}
	if role := res.Value().Role; role != "" {
		return role
	}
	return backend.RoleUser
}

func (m *Manager) remember(s State) {
	m.mu.Lock()
	m.sessions[s.Session.ID] = s
	m.tokens[s.Session.AccessToken] = s.Session.ID
	m.mu.Unlock()
}

// rememberUnless mirrors s only when nothing was forgotten since generation.
func (m *Manager) rememberUnless(s State, generation uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != generation {
		return
	}
	m.sessions[s.Session.ID] = s
	m.tokens[s.Session.AccessToken] = s.Session.ID
}

func (m *Manager) forget(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	s, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	delete(m.sessions, sessionID)
	delete(m.tokens, s.Session.AccessToken)
}

func (m *Manager) forgetToken(accessToken string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	id, ok := m.tokens[accessToken]
	if !ok {
		return
	}
	delete(m.tokens, accessToken)
	delete(m.sessions, id)
}
