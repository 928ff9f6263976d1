// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/olegiv/randomweb/internal/version"
)

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        Pinger
	version   version.Info
	startTime time.Time
}

// HealthStatus is the /health response body.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Pinger, info version.Info) *HealthHandler {
	return &HealthHandler{
		db:        db,
		version:   info,
		startTime: time.Now(),
	}
}

// Health handles GET /health. It answers 503 when the database is unreachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())

	status, code := "healthy", http.StatusOK
	if dbCheck.Status != "healthy" {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthStatus{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version.String(),
		Checks:    map[string]Check{"database": dbCheck},
	})
}

// checkDatabase verifies database connectivity.
func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  "unhealthy",
			Message: "database connection failed",
			Latency: latency.String(),
		}
	}

	return Check{
		Status:  "healthy",
		Latency: latency.String(),
	}
}
