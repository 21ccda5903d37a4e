// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for identity, access control,
// and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/seechoy/mun-app/internal/authz"
	"github.com/seechoy/mun-app/internal/service"
	"github.com/seechoy/mun-app/internal/session"
	"github.com/seechoy/mun-app/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyUser        ContextKey = "user"
	ContextKeyRequestPath ContextKey = "request_path"
)

// LoadCaller resolves the session's user and stores it in the request
// context, both as a store.User and as an authz.Caller. A session pointing
// at a user that no longer exists is destroyed and the request continues
// anonymously.
func LoadCaller(sm *session.Manager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.CurrentUserID(r.Context())
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByID(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, sql.ErrNoRows) {
					slog.Error("failed to load session user", "user_id", userID, "error", err)
				}
				_ = sm.SignOut(r.Context())
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			ctx = authz.NewContext(ctx, authz.Caller{ID: user.ID, Alias: user.Alias, Admin: user.Admin})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *store.User {
	user, ok := r.Context().Value(ContextKeyUser).(store.User)
	if !ok {
		return nil
	}
	return &user
}

// GetCaller returns the caller the request acts as.
func GetCaller(r *http.Request) authz.Caller {
	return authz.FromContext(r.Context())
}

// RequireSignedIn redirects anonymous callers to the sign-in page. GET
// requests remember their path so sign in can send the caller back.
func RequireSignedIn(sm *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := authz.RequireSignedIn(GetCaller(r))
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			if r.Method == http.MethodGet {
				sm.SetReturnTo(r.Context(), r.URL.RequestURI())
			}
			sm.SetFlash(r.Context(), d.Reason, "error")
			Redirect(w, r, d.Redirect)
		})
	}
}

// RequireAdmin denies callers without the admin flag. Anonymous callers are
// sent to sign in; denials are written to the audit log when events is set.
func RequireAdmin(sm *session.Manager, events *service.EventService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := GetCaller(r)
			d := authz.Check(caller, authz.RequireSignedIn, authz.RequireAdmin)
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			if caller.SignedIn() {
				// The event log handler persists WARN records, so only one of
				// the two is written.
				if events != nil {
					_ = events.LogSecurityEvent(r.Context(), "Access denied: admin required", caller.ID, RequestMeta(r), map[string]any{
						"method": r.Method,
						"path":   r.URL.Path,
					})
				} else {
					slog.Warn("access denied",
						"status", http.StatusForbidden,
						"method", r.Method,
						"path", r.URL.Path,
						"user_id", caller.ID,
						"remote_addr", r.RemoteAddr,
					)
				}
			}

			sm.SetFlash(r.Context(), d.Reason, "error")
			Redirect(w, r, d.Redirect)
		})
	}
}

// RequestMeta collects the request fields stored with audit events.
func RequestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{
		IP:        ClientIP(r),
		UserAgent: r.UserAgent(),
		RequestID: GetRequestID(r.Context()),
	}
}

// RequestPath creates middleware that stores the request path in the context.
// This is used by the logging handler to include the URL in error logs.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}
