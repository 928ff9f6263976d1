// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/olegiv/randomweb/internal/auth"
	"github.com/olegiv/randomweb/internal/backend"
	"github.com/olegiv/randomweb/internal/notice"
)

type queue []notice.Notice

func (q *queue) Pop(context.Context) []notice.Notice {
	out := *q
	*q = nil
	return out
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": {Data: []byte(
			`{{define "base"}}<title>{{.Title}}</title>{{template "flash" .}}{{if .Auth.IsAuthenticated}}in{{else}}out{{end}}|{{template "content" .}}|{{.CurrentYear}}{{end}}`)},
		"partials/flash.html": {Data: []byte(
			`{{define "flash"}}{{range .Notices}}[{{.Title}}:{{.Description}}]{{end}}{{end}}`)},
		"pages/home.html": {Data: []byte(`{{define "content"}}home {{.Data}}{{end}}`)},
		"pages/broken.html": {Data: []byte(`{{define "content"}}{{.Data.Missing}}{{end}}`)},
	}
}

func newTestRenderer(t *testing.T, q *queue) *Renderer {
	t.Helper()
	cfg := Config{TemplatesFS: testFS()}
	if q != nil {
		cfg.Notices = q
	}
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }
	return r
}

func TestNew_ParsesPages(t *testing.T) {
	r := newTestRenderer(t, nil)

	for _, name := range []string{"home", "broken"} {
		if !r.Has(name) {
			t.Errorf("template %q not parsed", name)
		}
	}
	if r.Has("base") {
		t.Error("layouts must not be registered as pages")
	}
}

func TestNew_NoPages(t *testing.T) {
	_, err := New(Config{TemplatesFS: fstest.MapFS{
		"layouts/base.html": {Data: []byte(`{{define "base"}}{{end}}`)},
	}})
	if err == nil {
		t.Fatal("expected error without page templates")
	}
}

func TestRender(t *testing.T) {
	q := &queue{notice.Success("Saved", "All good")}
	r := newTestRenderer(t, q)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithState(req.Context(), auth.State{
		Session: &backend.Session{ID: "s", User: backend.User{ID: "u"}},
		Role:    backend.RoleUser,
	}))
	rec := httptest.NewRecorder()

	if err := r.Render(rec, req, "home", TemplateData{Title: "Home", Data: "<b>x</b>"}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	body := rec.Body.String()
	want := "<title>Home</title>[Saved:All good]in|home &lt;b&gt;x&lt;/b&gt;|2026"
	if body != want {
		t.Errorf("body = %q\nwant   %q", body, want)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if len(*q) != 0 {
		t.Error("notices should be consumed")
	}
}

func TestRender_Anonymous(t *testing.T) {
	r := newTestRenderer(t, nil)
	rec := httptest.NewRecorder()

	if err := r.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), "home", TemplateData{}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "out|") {
		t.Errorf("body = %q, want anonymous marker", rec.Body.String())
	}
}

func TestRender_Errors(t *testing.T) {
	r := newTestRenderer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	t.Run("unknown template", func(t *testing.T) {
		rec := httptest.NewRecorder()
		if err := r.Render(rec, req, "nope", TemplateData{}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("execution error writes nothing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		if err := r.Render(rec, req, "broken", TemplateData{Data: 42}); err == nil {
			t.Fatal("expected error")
		}
		if rec.Body.Len() != 0 {
			t.Errorf("partial output written: %q", rec.Body.String())
		}
	})
}

func TestTemplateFuncs(t *testing.T) {
	funcs := templateFuncs()

	formatDate := funcs["formatDate"].(func(time.Time) string)
	if got := formatDate(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)); got != "Jan 15, 2026" {
		t.Errorf("formatDate = %q", got)
	}

	truncate := funcs["truncate"].(func(string, int) string)
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"a longer title", 8, "a longer..."},
		{"héllo wörld", 5, "héllo..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
