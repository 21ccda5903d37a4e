// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seechoy/mun-app/internal/middleware"
	"github.com/seechoy/mun-app/internal/render"
	"github.com/seechoy/mun-app/internal/service"
	"github.com/seechoy/mun-app/internal/session"
)

// flashAndRedirect sets a flash message and redirects to the given URL.
// htmx requests get an HX-Redirect instead of a 303.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, sm *session.Manager, url, message, messageType string) {
	sm.SetFlash(r.Context(), message, messageType)
	middleware.Redirect(w, r, url)
}

// flashError sets an error flash message and redirects to the given URL.
func flashError(w http.ResponseWriter, r *http.Request, sm *session.Manager, url, message string) {
	flashAndRedirect(w, r, sm, url, message, "error")
}

// flashSuccess sets a success flash message and redirects to the given URL.
func flashSuccess(w http.ResponseWriter, r *http.Request, sm *session.Manager, url, message string) {
	flashAndRedirect(w, r, sm, url, message, "success")
}

// logAndHTTPError logs an error and writes an HTTP error response.
func logAndHTTPError(w http.ResponseWriter, message string, statusCode int, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, message, statusCode)
}

// logAndInternalError logs an error and writes a 500 Internal Server Error response.
func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	logAndHTTPError(w, "Internal Server Error", http.StatusInternalServerError, logMsg, args...)
}

// sendToastError answers an htmx request with an error toast and no swap.
func sendToastError(w http.ResponseWriter, statusCode int, message string) {
	middleware.SetToast(w, message, "error")
	w.Header().Set(middleware.HeaderHXReswap, "none")
	w.WriteHeader(statusCode)
}

// renderPage renders a page and turns template failures into a 500.
func renderPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, status int, name string, data render.TemplateData) {
	if err := renderer.Render(w, r, status, name, data); err != nil {
		logAndInternalError(w, "failed to render page", "page", name, "error", err)
	}
}

// ParseIDParam returns the positive integer {id} URL parameter.
func ParseIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// requireIDParam parses {id} and answers 404 when it is malformed.
func requireIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := ParseIDParam(r)
	if err != nil {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

// handleServiceError answers a failed service call. Denials flash and
// redirect where the guard says; missing records go home, or 404 for htmx;
// anything else is a logged 500.
func handleServiceError(w http.ResponseWriter, r *http.Request, sm *session.Manager, err error, logMsg string, args ...any) {
	if ae, ok := service.IsAuthorization(err); ok {
		slog.Warn("access denied",
			"method", r.Method,
			"path", r.URL.Path,
			"user_id", middleware.GetCaller(r).ID,
			"reason", ae.Reason,
		)
		flashError(w, r, sm, ae.Redirect, ae.Reason)
		return
	}

	if errors.Is(err, service.ErrNotFound) {
		if middleware.IsHTMX(r) {
			sendToastError(w, http.StatusNotFound, msgNotFound)
			return
		}
		flashError(w, r, sm, RouteRoot, msgNotFound)
		return
	}

	if middleware.IsHTMX(r) {
		slog.Error(logMsg, append(args, "error", err)...)
		sendToastError(w, http.StatusInternalServerError, msgSomethingWrong)
		return
	}
	logAndInternalError(w, logMsg, append(args, "error", err)...)
}

// formValue returns the named field of a parsed form.
func formValue(r *http.Request, name string) string {
	return r.PostForm.Get(name)
}

// parseFormOrRedirect parses the request form and redirects with an error message on failure.
// Returns true if parsing succeeded, false if it failed (and redirect was performed).
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, sm *session.Manager, redirectURL string) bool {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, sm, redirectURL, msgInvalidForm)
		return false
	}
	return true
}
