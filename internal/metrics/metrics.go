// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "randomweb",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "route", "status"})
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "randomweb",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	AuthOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "randomweb",
		Name:      "auth_operations_total",
		Help:      "Login, register and logout attempts by result",
	}, []string{"operation", "result"})
	CatalogOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "randomweb",
		Name:      "catalog_operations_total",
		Help:      "Website list, add and delete calls by result",
	}, []string{"operation", "result"})
	RandomPicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "randomweb",
		Name:      "random_picks_total",
		Help:      "Random website picks by result",
	}, []string{"result"})
	SessionsPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "randomweb",
		Name:      "sessions_purged_total",
		Help:      "Expired sessions removed by the purge job",
	})
)

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
