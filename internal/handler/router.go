// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olegiv/randomweb/internal/middleware"
	"github.com/olegiv/randomweb/internal/notice"
	"github.com/olegiv/randomweb/internal/render"
	"github.com/olegiv/randomweb/internal/version"
)

// AuthService is what the router needs from the auth manager.
type AuthService interface {
	middleware.Resolver
	Authenticator
}

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	Renderer     *render.Renderer
	Sessions     *scs.SessionManager
	Auth         AuthService
	Catalog      Catalog
	Notifier     notice.Notifier
	DB           Pinger
	Version      version.Info
	HomeMarkdown []byte
	StaticFS     fs.FS
	CSRF         middleware.CSRFConfig
	IsDev        bool

	// LoginProtection rate limits the credential forms and locks accounts
	// after repeated failures. Optional.
	LoginProtection *middleware.LoginProtection
}

func (c RouterConfig) validate() error {
	switch {
	case c.Renderer == nil:
		return errors.New("renderer is required")
	case c.Sessions == nil:
		return errors.New("session manager is required")
	case c.Auth == nil:
		return errors.New("auth service is required")
	case c.Catalog == nil:
		return errors.New("catalog is required")
	case c.Notifier == nil:
		return errors.New("notifier is required")
	case c.DB == nil:
		return errors.New("database is required")
	}
	return nil
}

// NewRouter builds the application's HTTP handler.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	home, err := NewHomeHandler(cfg.Renderer, cfg.HomeMarkdown)
	if err != nil {
		return nil, err
	}
	authHandler := NewAuthHandler(cfg.Renderer, cfg.Auth, cfg.Sessions, cfg.Notifier)
	if cfg.LoginProtection != nil {
		authHandler.WithLoginGuard(cfg.LoginProtection)
	}
	dashboard := NewDashboardHandler(cfg.Renderer, cfg.Catalog, cfg.Notifier)
	random := NewRandomHandler(cfg.Renderer, cfg.Catalog, cfg.Sessions)
	health := NewHealthHandler(cfg.DB, cfg.Version)

	secCfg := middleware.DefaultSecurityHeadersConfig(cfg.IsDev)
	secCfg.ExcludePaths = []string{RouteMetrics}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(chimw.RedirectSlashes)
	r.Use(chimw.Compress(5, "text/html", "text/css", "application/json"))
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders(secCfg))

	r.Get(RouteHealth, health.Health)
	r.Handle(RouteMetrics, promhttp.Handler())
	if cfg.StaticFS != nil {
		r.Handle(RouteStatic, staticHandler(cfg.StaticFS))
	}

	r.Group(func(r chi.Router) {
		r.Use(cfg.Sessions.LoadAndSave)
		r.Use(middleware.CSRF(cfg.CSRF))
		r.Use(middleware.LoadAuth(cfg.Auth, cfg.Sessions))

		r.Get(RouteRoot, home.Home)
		r.Get(RouteRandom, random.Page)
		r.Post(RouteRandom, random.Pick)
		r.Post(RouteLogout, authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RedirectIfAuthenticated)
			if cfg.LoginProtection != nil {
				r.Use(cfg.LoginProtection.Middleware())
			}
			r.Get(RouteLogin, authHandler.LoginForm)
			r.Post(RouteLogin, authHandler.Login)
			r.Get(RouteRegister, authHandler.RegisterForm)
			r.Post(RouteRegister, authHandler.Register)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get(RouteDashboard, dashboard.Dashboard)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post(RouteWebsites, dashboard.AddWebsite)
				r.Post(RouteWebsiteDelete, dashboard.DeleteWebsite)
			})
		})
	})

	return r, nil
}
