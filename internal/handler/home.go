// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/olegiv/randomweb/internal/render"
)

// HomeHandler serves the landing page.
type HomeHandler struct {
	renderer *render.Renderer
	content  template.HTML
}

// HomeData is the data for the home template.
type HomeData struct {
	Copy template.HTML
}

// copySanitizer allows the tags goldmark emits for ordinary markdown.
var copySanitizer = bluemonday.UGCPolicy()

// NewHomeHandler converts the landing copy from markdown once.
func NewHomeHandler(renderer *render.Renderer, markdown []byte) (*HomeHandler, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("rendering home copy: %w", err)
	}
	return &HomeHandler{
		renderer: renderer,
		content:  template.HTML(copySanitizer.SanitizeBytes(buf.Bytes())), //nolint:gosec // sanitized by bluemonday
	}, nil
}

// Home handles GET /.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, TemplateHome, render.TemplateData{
		Data: HomeData{Copy: h.content},
	})
}
