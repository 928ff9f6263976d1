// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"io/fs"
	"net/http"
	"strconv"
	"strings"
)

// staticMaxAge is the Cache-Control max-age for embedded assets, in seconds.
const staticMaxAge = 86400

// staticHandler serves embedded assets under /static/ with a public
// Cache-Control header. Directories and missing files are 404s.
func staticHandler(fsys fs.FS) http.Handler {
	files := http.StripPrefix(routeStaticPrefix, http.FileServerFS(fsys))
	cacheControl := "public, max-age=" + strconv.Itoa(staticMaxAge)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, routeStaticPrefix)
		info, err := fs.Stat(fsys, name)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", cacheControl)
		files.ServeHTTP(w, r)
	})
}
