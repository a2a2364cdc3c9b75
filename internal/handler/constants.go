// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"

	// Public routes.
	RouteUshers  = "/ushers"
	RouteEvents  = "/events"
	RouteContact = "/contact"

	// Auth routes.
	RouteAuth       = "/auth"
	RouteLogin      = "/login"
	RouteSignup     = "/signup"
	RouteVerifyCode = "/verify-code"
	RouteLogout     = "/logout"

	// Usher self-service.
	RouteProfile      = "/profile"
	RouteProfileImage = "/profile/image"

	// Admin routes, relative to /admin.
	RouteAdmin         = "/admin"
	RouteDashboard     = "/dashboard"
	RouteAdminUshers   = "/ushers"
	RouteAdminEvents   = "/events"
	RouteAdminCodes    = "/codes"
	RouteAdminRequests = "/requests"

	// Action suffixes.
	RouteSuffixNew        = "/new"
	RouteSuffixEdit       = "/edit"
	RouteSuffixDelete     = "/delete"
	RouteSuffixVisibility = "/visibility"
	RouteSuffixReject     = "/reject-picture"
	RouteSuffixImages     = "/images/remove"

	// Health.
	RouteHealth     = "/health"
	RouteHealthLive = "/health/live"

	RouteStatic = "/static/*"
)

// Redirect targets.
const (
	redirectHome          = "/"
	redirectLogin         = "/auth/login"
	redirectSignup        = "/auth/signup"
	redirectContact       = "/contact"
	redirectProfile       = "/profile"
	redirectAdmin         = "/admin"
	redirectAdminUshers   = "/admin/ushers"
	redirectAdminEvents   = "/admin/events"
	redirectAdminCodes    = "/admin/codes"
	redirectAdminRequests = "/admin/requests"
)

// Template names.
const (
	tmplHome          = "public/home"
	tmplUshers        = "public/ushers"
	tmplUsher         = "public/usher"
	tmplEvents        = "public/events"
	tmplEvent         = "public/event"
	tmplContact       = "public/contact"
	tmplLogin         = "auth/login"
	tmplSignup        = "auth/signup"
	tmplProfile       = "profile/edit"
	tmplDashboard     = "admin/dashboard"
	tmplAdminUshers   = "admin/ushers"
	tmplAdminEvents   = "admin/events"
	tmplAdminEvent    = "admin/event_form"
	tmplAdminCodes    = "admin/codes"
	tmplAdminRequests = "admin/requests"
	tmplNotFound      = "public/not_found"
	tmplLoading       = "loading"
)

// Page sizes.
const (
	homeUshersLimit    = 6
	homeEventsLimit    = 3
	contactUshersLimit = 8
	adminUshersLimit   = 50
)

// Form limits.
const (
	minPasswordLength = 6
	minNameLength     = 2
	maxFormMemory     = 32 << 20
)
