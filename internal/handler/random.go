// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/gob"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/randomweb/internal/backend"
	"github.com/olegiv/randomweb/internal/render"
	"github.com/olegiv/randomweb/internal/session"
)

func init() {
	gob.Register(backend.Website{})
}

// RandomHandler serves the random website page and the pick.
type RandomHandler struct {
	renderer *render.Renderer
	catalog  Catalog
	sm       *scs.SessionManager
}

// RandomData is the data for the random template.
type RandomData struct {
	// HasWebsites is false when the list could not be loaded or is empty,
	// so the pick form stays in the current tab.
	HasWebsites bool
	Current     *backend.Website
}

// NewRandomHandler creates a new RandomHandler.
func NewRandomHandler(renderer *render.Renderer, c Catalog, sm *scs.SessionManager) *RandomHandler {
	return &RandomHandler{
		renderer: renderer,
		catalog:  c,
		sm:       sm,
	}
}

// Page handles GET /random.
func (h *RandomHandler) Page(w http.ResponseWriter, r *http.Request) {
	websites, _ := h.catalog.All(r.Context())

	data := RandomData{HasWebsites: len(websites) > 0}
	if current, ok := h.sm.Get(r.Context(), session.KeyCurrentPick).(backend.Website); ok {
		data.Current = &current
	}

	renderPage(w, r, h.renderer, TemplateRandom, render.TemplateData{
		Title: "Random Website",
		Data:  data,
	})
}

// Pick handles POST /random. The catalog is loaded fresh, one website is
// drawn and recorded as current, and the browser is sent to it without a
// referrer. An empty catalog sends the browser back to /random.
func (h *RandomHandler) Pick(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	websites, err := h.catalog.All(ctx)
	if err != nil {
		redirectSeeOther(w, r, RouteRandom)
		return
	}

	website, err := h.catalog.Pick(ctx, websites)
	if err != nil {
		redirectSeeOther(w, r, RouteRandom)
		return
	}

	h.sm.Put(ctx, session.KeyCurrentPick, website)

	w.Header().Set("Referrer-Policy", "no-referrer")
	http.Redirect(w, r, website.URL, http.StatusSeeOther)
}
