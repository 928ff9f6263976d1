// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/randomweb/internal/auth"
	"github.com/olegiv/randomweb/internal/backend"
	"github.com/olegiv/randomweb/internal/notice"
	"github.com/olegiv/randomweb/internal/render"
	"github.com/olegiv/randomweb/internal/session"
)

// Authenticator runs the login, register and logout flows. Each flow
// reports its outcome as a notice.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.State, error)
	Register(ctx context.Context, email, password string) (auth.State, error)
	Logout(ctx context.Context, accessToken string)
}

// LoginGuard tracks failed sign-ins per account.
type LoginGuard interface {
	IsAccountLocked(email string) (bool, time.Duration)
	RecordFailedAttempt(email string) (bool, time.Duration)
	RecordSuccessfulLogin(email string)
}

// AuthHandler handles the login, register and logout routes.
type AuthHandler struct {
	renderer *render.Renderer
	auth     Authenticator
	sm       *scs.SessionManager
	notifier notice.Notifier
	guard    LoginGuard
}

// AuthFormData is the data for the login and register templates.
type AuthFormData struct {
	Email string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(renderer *render.Renderer, authenticator Authenticator, sm *scs.SessionManager, notifier notice.Notifier) *AuthHandler {
	return &AuthHandler{
		renderer: renderer,
		auth:     authenticator,
		sm:       sm,
		notifier: notifier,
	}
}

// WithLoginGuard enables account lockout on repeated failed logins.
func (h *AuthHandler) WithLoginGuard(g LoginGuard) *AuthHandler {
	h.guard = g
	return h
}

// LoginForm handles GET /login.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, TemplateLogin, "Login")
}

// RegisterForm handles GET /register.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, TemplateRegister, "Register")
}

func (h *AuthHandler) renderForm(w http.ResponseWriter, r *http.Request, name, title string) {
	renderPage(w, r, h.renderer, name, render.TemplateData{
		Title: title,
		Data:  AuthFormData{Email: h.sm.PopString(r.Context(), session.KeyFormEmail)},
	})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.notifier, RouteLogin) {
		return
	}

	form := parseLoginForm(r)
	if err := form.validate(); err != nil {
		h.backToForm(w, r, RouteLogin, form.Email, err)
		return
	}

	if h.guard != nil {
		if locked, remaining := h.guard.IsAccountLocked(form.Email); locked {
			h.notifier.Notify(r.Context(), notice.Failure(auth.TitleLoginFailed, lockedMessage(remaining)))
			h.backToForm(w, r, RouteLogin, form.Email, nil)
			return
		}
	}

	state, err := h.auth.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		if h.guard != nil && backend.ReasonOf(err) == backend.ReasonInvalidCredentials {
			h.guard.RecordFailedAttempt(form.Email)
		}
		h.backToForm(w, r, RouteLogin, form.Email, nil)
		return
	}
	if h.guard != nil {
		h.guard.RecordSuccessfulLogin(form.Email)
	}

	h.startSession(w, r, state)
}

func lockedMessage(remaining time.Duration) string {
	return fmt.Sprintf("Too many failed attempts. Try again in %s.", remaining.Round(time.Minute))
}

// Register handles POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.notifier, RouteRegister) {
		return
	}

	form := parseRegisterForm(r)
	if err := form.validate(); err != nil {
		h.backToForm(w, r, RouteRegister, form.Email, err)
		return
	}

	state, err := h.auth.Register(r.Context(), form.Email, form.Password)
	if err != nil {
		h.backToForm(w, r, RouteRegister, form.Email, nil)
		return
	}

	h.startSession(w, r, state)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if token := h.sm.GetString(ctx, session.KeyAccessToken); token != "" {
		h.auth.Logout(ctx, token)
	}
	h.sm.Remove(ctx, session.KeyAccessToken)
	h.sm.Remove(ctx, session.KeyCurrentPick)

	if err := h.sm.RenewToken(ctx); err != nil {
		logAndInternalError(w, "failed to renew session token", "error", err)
		return
	}

	redirectSeeOther(w, r, RouteRoot)
}

// backToForm keeps the email for the next render and redirects to the
// form. A validation error is shown as a notice; flow failures have
// already been reported by the authenticator.
func (h *AuthHandler) backToForm(w http.ResponseWriter, r *http.Request, url, email string, validationErr error) {
	if validationErr != nil {
		h.notifier.Notify(r.Context(), notice.Failure(TitleError, validationErr.Error()))
	}
	if email != "" {
		h.sm.Put(r.Context(), session.KeyFormEmail, email)
	}
	redirectSeeOther(w, r, url)
}

// startSession renews the browser session token against fixation and
// stores the access token.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, state auth.State) {
	ctx := r.Context()

	if err := h.sm.RenewToken(ctx); err != nil {
		logAndInternalError(w, "failed to renew session token", "error", err)
		return
	}
	h.sm.Put(ctx, session.KeyAccessToken, state.Session.AccessToken)

	redirectSeeOther(w, r, RouteDashboard)
}
