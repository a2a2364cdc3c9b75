// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tripolar-events/tripolar-web/internal/middleware"
)

// Handlers groups the route handlers registered by Register.
type Handlers struct {
	Public  *PublicHandler
	Auth    *AuthHandler
	Profile *ProfileHandler
	Admin   *AdminHandler
	Health  *HealthHandler
	// Static serves /static/ assets. Optional.
	Static http.Handler
}

// RouteMiddleware is the middleware Register applies to route groups.
// Nil entries are skipped.
type RouteMiddleware struct {
	// Session loads the browser session and resolves the signed-in user.
	// Liveness checks run without it.
	Session []func(http.Handler) http.Handler
	// CSRF protects every form route.
	CSRF func(http.Handler) http.Handler
	// LoginRate throttles auth form submissions per client IP.
	LoginRate func(http.Handler) http.Handler
	Guard     *middleware.Guard
}

func use(r chi.Router, mws ...func(http.Handler) http.Handler) {
	for _, mw := range mws {
		if mw != nil {
			r.Use(mw)
		}
	}
}

func with(r chi.Router, mw func(http.Handler) http.Handler) chi.Router {
	if mw == nil {
		return r
	}
	return r.With(mw)
}

// Register mounts all application routes on r.
func Register(r chi.Router, h Handlers, mw RouteMiddleware) {
	guard := mw.Guard
	if guard == nil {
		guard = middleware.NewGuard(nil)
	}

	if h.Static != nil {
		r.Handle(RouteStatic, h.Static)
	}
	r.Get(RouteHealthLive, h.Health.Liveness)

	r.Group(func(r chi.Router) {
		use(r, mw.Session...)
		r.Use(middleware.ExpiredSession)

		// Admins get health details, so it needs the session but not CSRF.
		r.Get(RouteHealth, h.Health.Health)

		r.Group(func(r chi.Router) {
			use(r, mw.CSRF)

			r.Get(RouteRoot, h.Public.Home)
			r.Get(RouteUshers, h.Public.Ushers)
			r.Get(RouteUshers+RouteParamID, h.Public.Usher)
			r.Get(RouteEvents, h.Public.Events)
			r.Get(RouteEvents+RouteParamID, h.Public.Event)
			r.Get(RouteContact, h.Public.ContactForm)
			r.Post(RouteContact, h.Public.Contact)

			r.Route(RouteAuth, func(r chi.Router) {
				r.Get(RouteLogin, h.Auth.LoginForm)
				with(r, mw.LoginRate).Post(RouteLogin, h.Auth.Login)
				r.Get(RouteSignup, h.Auth.SignupForm)
				with(r, mw.LoginRate).Post(RouteSignup, h.Auth.Signup)
				r.Post(RouteVerifyCode, h.Auth.VerifyCode)
				r.Post(RouteLogout, h.Auth.Logout)
			})

			r.Group(func(r chi.Router) {
				r.Use(guard.RequireUsher())
				r.Get(RouteProfile, h.Profile.Edit)
				r.Post(RouteProfile, h.Profile.Update) // HTML forms can't send PUT
				r.Post(RouteProfileImage, h.Profile.UploadImage)
			})

			r.Route(RouteAdmin, func(r chi.Router) {
				r.Use(guard.RequireAdmin())
				registerAdminRoutes(r, h.Admin)
			})
		})
	})

	r.NotFound(chain(mw.Session...).HandlerFunc(h.Public.NotFound).ServeHTTP)
}

// chain builds a chi middleware chain, skipping nil entries.
func chain(mws ...func(http.Handler) http.Handler) chi.Middlewares {
	var out chi.Middlewares
	for _, mw := range mws {
		if mw != nil {
			out = append(out, mw)
		}
	}
	return out
}

func registerAdminRoutes(r chi.Router, h *AdminHandler) {
	r.Get(RouteRoot, h.Dashboard)
	r.Get(RouteDashboard, h.Dashboard)

	ushersID := RouteAdminUshers + RouteParamID
	r.Get(RouteAdminUshers, h.Ushers)
	r.Post(ushersID, h.UpdateUsher)
	r.Post(ushersID+RouteSuffixDelete, h.DeleteUsher)
	r.Post(ushersID+RouteSuffixVisibility, h.ToggleVisibility)
	r.Post(ushersID+RouteSuffixReject, h.RejectPicture)

	eventsID := RouteAdminEvents + RouteParamID
	r.Get(RouteAdminEvents, h.Events)
	r.Get(RouteAdminEvents+RouteSuffixNew, h.NewEvent)
	r.Post(RouteAdminEvents, h.CreateEvent)
	r.Get(eventsID+RouteSuffixEdit, h.EditEvent)
	r.Post(eventsID, h.UpdateEvent)
	r.Post(eventsID+RouteSuffixDelete, h.DeleteEvent)
	r.Post(eventsID+RouteSuffixImages, h.RemoveEventImage)

	r.Get(RouteAdminCodes, h.Codes)
	r.Post(RouteAdminCodes, h.GenerateCode)
	r.Post(RouteAdminCodes+RouteParamID+RouteSuffixDelete, h.DeleteCode)

	requestsID := RouteAdminRequests + RouteParamID
	r.Get(RouteAdminRequests, h.Requests)
	r.Post(requestsID, h.UpdateRequest)
	r.Post(requestsID+RouteSuffixDelete, h.DeleteRequest)
}
