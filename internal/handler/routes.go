// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/seechoy/mun-app/internal/cache"
	"github.com/seechoy/mun-app/internal/middleware"
	"github.com/seechoy/mun-app/internal/render"
	"github.com/seechoy/mun-app/internal/scheduler"
	"github.com/seechoy/mun-app/internal/service"
	"github.com/seechoy/mun-app/internal/session"
	"github.com/seechoy/mun-app/internal/version"
)

// Deps holds everything the router needs. Cache, GeoIP, Scheduler,
// LoginProtection and StaticFS are optional.
type Deps struct {
	DB       *sql.DB
	Sessions *session.Manager
	Renderer *render.Renderer

	Accounts    *service.Accounts
	Conferences *service.Conferences
	Attendance  *service.Attendance
	Events      *service.EventService

	LoginProtection *middleware.LoginProtection
	Countries       CountryResolver

	Cache     cache.Cache
	CacheKind string
	GeoIP     interface{ Enabled() bool }
	Scheduler *scheduler.Scheduler
	Version   version.Info

	StaticFS fs.FS

	IsDevelopment  bool
	SessionSecret  string
	ServerAddr     string
	RequestTimeout time.Duration
	// TrustProxy rewrites RemoteAddr from the proxy headers before anything
	// reads the client address.
	TrustProxy bool
	// AccessLog enables chi's request logger.
	AccessLog bool
}

// NewRouter builds the application's HTTP handler.
func NewRouter(d Deps) http.Handler {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	attendances := NewAttendancesHandler(d.Attendance, d.Renderer, d.Sessions, d.Countries)
	conferences := NewConferencesHandler(d.Conferences, attendances, d.Renderer, d.Sessions, d.Events)
	users := NewUsersHandler(d.Accounts, d.Conferences, d.Attendance, d.Renderer, d.Sessions, d.Events)
	authHandler := NewAuthHandler(d.Accounts, d.Renderer, d.Sessions, d.Events, d.LoginProtection)
	pages := NewPagesHandler(d.Renderer)
	health := NewHealthHandler(HealthConfig{
		DB:        d.DB,
		Cache:     d.Cache,
		CacheKind: d.CacheKind,
		GeoIP:     d.GeoIP,
		Scheduler: d.Scheduler,
		Events:    d.Events,
		Version:   d.Version,
	})

	r := chi.NewRouter()

	if d.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestID)
	if d.AccessLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestPath)
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(d.IsDevelopment)))
	r.Use(middleware.Timeout(timeout))
	r.Use(d.Sessions.LoadAndSave)
	r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(d.SessionSecret), d.IsDevelopment, d.ServerAddr)))
	r.Use(middleware.LoadCaller(d.Sessions, d.DB))

	r.NotFound(pages.NotFound)
	r.MethodNotAllowed(pages.MethodNotAllowed)

	if d.StaticFS != nil {
		r.Handle(RouteStatic+"/*", http.StripPrefix(RouteStatic+"/", http.FileServer(http.FS(d.StaticFS))))
	}

	r.Get(RouteHealth, health.Health)
	r.Get(RouteHealth+"/live", health.Liveness)
	r.Get(RouteHealth+"/ready", health.Readiness)

	r.Get(RouteRoot, conferences.Home)
	r.Get(RouteAbout, pages.About)
	r.Get(RouteContact, pages.Contact)
	r.Get(RouteHelp, pages.Help)

	r.Get(RouteSignup, authHandler.SignupForm)
	r.Post(RouteSignup, authHandler.Signup)
	r.Get(RouteSignin, authHandler.SigninForm)
	if d.LoginProtection != nil {
		r.With(d.LoginProtection.Middleware()).Post(RouteSignin, authHandler.Signin)
	} else {
		r.Post(RouteSignin, authHandler.Signin)
	}
	r.Delete(RouteSignout, authHandler.Signout)
	r.Post(RouteSignout, authHandler.Signout)

	requireSignedIn := middleware.RequireSignedIn(d.Sessions)

	r.Route(RouteConferences, func(r chi.Router) {
		r.Get(RouteRoot, conferences.List)
		r.Get(RouteParamID, conferences.Show)

		r.Group(func(r chi.Router) {
			r.Use(requireSignedIn)
			r.Get(RouteSuffixNew, conferences.NewForm)
			r.Post(RouteRoot, conferences.Create)
			r.Get(RouteParamID+RouteSuffixEdit, conferences.EditForm)
			r.Put(RouteParamID, conferences.Update)
			r.Post(RouteParamID, conferences.Update)
			r.Delete(RouteParamID, conferences.Delete)
			r.Post(RouteParamID+RouteSuffixDelete, conferences.Delete)
		})
	})

	r.Route(RouteAttendances, func(r chi.Router) {
		r.Use(requireSignedIn)
		r.Post(RouteRoot, attendances.Create)
		r.Delete(RouteParamID, attendances.Delete)
		r.Post(RouteParamID+RouteSuffixDelete, attendances.Delete)
	})

	r.Route(RouteUsers, func(r chi.Router) {
		r.Get(RouteParamID, users.Show)

		r.Group(func(r chi.Router) {
			r.Use(requireSignedIn)
			r.Get(RouteRoot, users.List)
			r.Get(RouteParamID+RouteSuffixEdit, users.EditForm)
			r.Put(RouteParamID, users.Update)
			r.Post(RouteParamID, users.Update)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(d.Sessions, d.Events))
			r.Delete(RouteParamID, users.Delete)
			r.Post(RouteParamID+RouteSuffixDelete, users.Delete)
		})
	})

	return r
}
