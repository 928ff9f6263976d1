// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render parses the HTML templates once at startup and executes
// them with per-request data.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/olegiv/randomweb/internal/auth"
	"github.com/olegiv/randomweb/internal/notice"
)

const (
	baseLayout  = "layouts/base.html"
	partialsDir = "partials"
	pagesDir    = "pages"
)

// NoticeSource hands out the notices queued for the current request.
type NoticeSource interface {
	Pop(ctx context.Context) []notice.Notice
}

// Renderer handles template rendering with caching.
type Renderer struct {
	templates map[string]*template.Template
	notices   NoticeSource
	now       func() time.Time
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS fs.FS
	// Notices may be nil, in which case pages render without notices.
	Notices NoticeSource
}

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		notices:   cfg.Notices,
		now:       time.Now,
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}

	return r, nil
}

// parseTemplates builds one template set per page: base layout, partials,
// then the page itself.
func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := templateFiles(templatesFS, partialsDir)
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}

	pages, err := templateFiles(templatesFS, pagesDir)
	if err != nil {
		return fmt.Errorf("getting pages: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no page templates found in %s", pagesDir)
	}

	for _, tmplPath := range pages {
		name := strings.TrimSuffix(path.Base(tmplPath), ".html")

		files := []string{baseLayout}
		files = append(files, partials...)
		files = append(files, tmplPath)

		tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}

		r.templates[name] = tmpl
	}

	return nil
}

// templateFiles returns all .html files in a directory. A missing
// directory yields no files.
func templateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	var files []string

	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		return files, nil
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}

	return files, nil
}

// templateFuncs returns custom template functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 3:04 PM")
		},
		"truncate": func(s string, length int) string {
			runes := []rune(s)
			if len(runes) <= length {
				return s
			}
			return string(runes[:length]) + "..."
		},
	}
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	Auth        auth.State
	Notices     []notice.Notice
	CurrentYear int
	Data        any
}

// Has reports whether a template with the given name was parsed.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Render renders the named page. The auth state comes from the request
// context and queued notices are consumed.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	data.CurrentYear = r.now().Year()
	data.Auth = auth.FromContext(req.Context())
	if r.notices != nil {
		data.Notices = append(data.Notices, r.notices.Pop(req.Context())...)
	}

	// Render to buffer first to catch errors
	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
	return nil
}
