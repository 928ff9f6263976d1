// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/randomweb/internal/auth"
	"github.com/olegiv/randomweb/internal/backend"
	"github.com/olegiv/randomweb/internal/catalog"
	"github.com/olegiv/randomweb/internal/notice"
	"github.com/olegiv/randomweb/internal/render"
)

// Catalog is the set of website operations the handlers use. Every
// operation reports user-facing outcomes itself.
type Catalog interface {
	Newest(ctx context.Context) ([]backend.Website, error)
	All(ctx context.Context) ([]backend.Website, error)
	Add(ctx context.Context, userID, title, url string) (backend.Website, error)
	Delete(ctx context.Context, id int64) error
	Pick(ctx context.Context, list []backend.Website) (backend.Website, error)
}

// DashboardHandler handles the dashboard and its catalog mutations.
type DashboardHandler struct {
	renderer *render.Renderer
	catalog  Catalog
	notifier notice.Notifier
}

// DashboardData is the data for the dashboard template.
type DashboardData struct {
	Websites []backend.Website
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(renderer *render.Renderer, c Catalog, notifier notice.Notifier) *DashboardHandler {
	return &DashboardHandler{
		renderer: renderer,
		catalog:  c,
		notifier: notifier,
	}
}

// Dashboard handles GET /dashboard.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	// A load failure has already been reported and yields an empty list.
	websites, _ := h.catalog.Newest(r.Context())

	renderPage(w, r, h.renderer, TemplateDashboard, render.TemplateData{
		Title: "Dashboard",
		Data:  DashboardData{Websites: websites},
	})
}

// AddWebsite handles POST /dashboard/websites.
func (h *DashboardHandler) AddWebsite(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.notifier, RouteDashboard) {
		return
	}

	user := auth.FromContext(r.Context()).User()
	_, _ = h.catalog.Add(r.Context(), user.ID, r.PostFormValue("title"), r.PostFormValue("url"))

	redirectSeeOther(w, r, RouteDashboard)
}

// DeleteWebsite handles POST /dashboard/websites/{id}/delete.
func (h *DashboardHandler) DeleteWebsite(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, URLParamID), 10, 64)
	if err != nil || id <= 0 {
		slog.Warn("invalid website id", "id", chi.URLParam(r, URLParamID))
		notifyAndRedirect(w, r, h.notifier, RouteDashboard, notice.Failure(catalog.TitleError, catalog.DescDeleteFailed))
		return
	}

	_ = h.catalog.Delete(r.Context(), id)

	redirectSeeOther(w, r, RouteDashboard)
}
