// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/olegiv/randomweb/internal/notice"
	"github.com/olegiv/randomweb/internal/render"
)

// redirectSeeOther answers a form POST with a 303 so the browser follows up
// with a GET.
func redirectSeeOther(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// notifyAndRedirect queues a notice and redirects to the given URL.
func notifyAndRedirect(w http.ResponseWriter, r *http.Request, notifier notice.Notifier, url string, n notice.Notice) {
	notifier.Notify(r.Context(), n)
	redirectSeeOther(w, r, url)
}

// parseFormOrRedirect parses the request form and redirects with an error notice on failure.
// Returns true if parsing succeeded, false if it failed (and redirect was performed).
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, notifier notice.Notifier, redirectURL string) bool {
	if err := r.ParseForm(); err != nil {
		notifyAndRedirect(w, r, notifier, redirectURL, notice.Failure(TitleError, MsgInvalidForm))
		return false
	}
	return true
}

// renderPage renders a page and turns a template failure into a 500.
func renderPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, name string, data render.TemplateData) {
	if err := renderer.Render(w, r, name, data); err != nil {
		logAndInternalError(w, "failed to render page", "template", name, "error", err)
	}
}

// logAndHTTPError logs an error and writes an HTTP error response.
func logAndHTTPError(w http.ResponseWriter, message string, statusCode int, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, message, statusCode)
}

// logAndInternalError logs an error and writes a 500 Internal Server Error response.
func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	logAndHTTPError(w, "Internal Server Error", http.StatusInternalServerError, logMsg, args...)
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
