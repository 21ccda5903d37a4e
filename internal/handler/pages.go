// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strings"

	"github.com/seechoy/mun-app/internal/render"
)

// PagesHandler serves the static pages and error pages.
type PagesHandler struct {
	renderer *render.Renderer
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(renderer *render.Renderer) *PagesHandler {
	return &PagesHandler{renderer: renderer}
}

// About handles GET /about.
func (h *PagesHandler) About(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, http.StatusOK, "pages/about", render.TemplateData{Title: titleAbout})
}

// Contact handles GET /contact.
func (h *PagesHandler) Contact(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, http.StatusOK, "pages/contact", render.TemplateData{Title: titleContact})
}

// Help handles GET /help.
func (h *PagesHandler) Help(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, http.StatusOK, "pages/help", render.TemplateData{Title: titleHelp})
}

// NotFound renders the 404 page, or a JSON error for API style callers.
func (h *PagesHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	renderPage(w, r, h.renderer, http.StatusNotFound, "errors/error", render.TemplateData{
		Title: titleNotFound,
		Data:  "The page you were looking for doesn't exist.",
	})
}

// MethodNotAllowed answers requests using a method the route does not serve.
func (h *PagesHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
