// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	RouteRoot          = "/"
	RouteRandom        = "/random"
	RouteLogin         = "/login"
	RouteRegister      = "/register"
	RouteLogout        = "/logout"
	RouteDashboard     = "/dashboard"
	RouteWebsites      = "/dashboard/websites"
	RouteWebsiteDelete = "/dashboard/websites/{id}/delete"
	RouteHealth        = "/health"
	RouteMetrics       = "/metrics"
	RouteStatic        = "/static/*"
	routeStaticPrefix  = "/static/"
	URLParamID         = "id"
)

// Template names, matching files under templates/pages.
const (
	TemplateHome      = "home"
	TemplateRandom    = "random"
	TemplateLogin     = "login"
	TemplateRegister  = "register"
	TemplateDashboard = "dashboard"
)

// Notice copy owned by the handlers.
const (
	TitleError          = "Error"
	MsgMissingFields    = "Please fill in all fields"
	MsgPasswordMismatch = "Passwords do not match"
	MsgInvalidForm      = "Invalid form data"
)
