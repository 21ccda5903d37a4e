// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/seechoy/mun-app/internal/authz"
	"github.com/seechoy/mun-app/internal/middleware"
	"github.com/seechoy/mun-app/internal/model"
	"github.com/seechoy/mun-app/internal/render"
	"github.com/seechoy/mun-app/internal/service"
	"github.com/seechoy/mun-app/internal/session"
	"github.com/seechoy/mun-app/internal/store"
	"github.com/seechoy/mun-app/internal/uikit"
)

// ConferencesHandler handles the conference directory routes, including the
// home page.
type ConferencesHandler struct {
	conferences  *service.Conferences
	attendance   *AttendancesHandler
	renderer     *render.Renderer
	sessions     *session.Manager
	eventService *service.EventService
}

// NewConferencesHandler creates a new ConferencesHandler. The attendances
// handler builds the attend/unattend widget on the show page.
func NewConferencesHandler(conferences *service.Conferences, attendance *AttendancesHandler, renderer *render.Renderer, sm *session.Manager, events *service.EventService) *ConferencesHandler {
	return &ConferencesHandler{
		conferences:  conferences,
		attendance:   attendance,
		renderer:     renderer,
		sessions:     sm,
		eventService: events,
	}
}

// ConferencesListData holds data for conference list templates.
type ConferencesListData struct {
	Conferences []store.ConferenceWithOwner
	Total       int64
}

// ConferenceShowData holds data for the conference page.
type ConferenceShowData struct {
	Conference store.ConferenceWithOwner
	Attendees  []store.Attendee
	Attendance AttendanceFormData
}

// Home handles GET /.
func (h *ConferencesHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "pages/home", titleHome, RouteRoot)
}

// List handles GET /conferences.
func (h *ConferencesHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "conferences/index", titleConferences, RouteConferences)
}

func (h *ConferencesHandler) list(w http.ResponseWriter, r *http.Request, page, title, baseURL string) {
	n := uikit.ParsePageParam(r)

	total, err := h.conferences.Count(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count conferences", "error", err)
		return
	}

	n, _ = uikit.NormalizePagination(n, total, model.ConferencesPerPage)
	confs, err := h.conferences.List(r.Context(), n)
	if err != nil {
		logAndInternalError(w, "failed to list conferences", "error", err)
		return
	}

	pagination := uikit.BuildPagination(n, total, model.ConferencesPerPage, baseURL, r.URL.Query())
	pagination.Target = paginationTarget

	renderPage(w, r, h.renderer, http.StatusOK, page, render.TemplateData{
		Title:      title,
		Data:       ConferencesListData{Conferences: confs, Total: total},
		Pagination: &pagination,
	})
}

// Show handles GET /conferences/{id}.
func (h *ConferencesHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIDParam(w, r)
	if !ok {
		return
	}

	conf, err := h.conferences.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.sessions, err, "failed to load conference", "conference_id", id)
		return
	}

	attendees, err := h.conferences.Attendees(r.Context(), id)
	if err != nil {
		logAndInternalError(w, "failed to list attendees", "conference_id", id, "error", err)
		return
	}

	form, err := h.attendance.formData(r, id)
	if err != nil {
		logAndInternalError(w, "failed to load attendance", "conference_id", id, "error", err)
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, "conferences/show", render.TemplateData{
		Title: conf.Title,
		Data: ConferenceShowData{
			Conference: conf,
			Attendees:  attendees,
			Attendance: form,
		},
	})
}

// NewForm handles GET /conferences/new.
func (h *ConferencesHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	if d := authz.ConferenceCreate(middleware.GetCaller(r)); !d.Allowed {
		flashError(w, r, h.sessions, d.Redirect, d.Reason)
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, "conferences/new", render.TemplateData{
		Title: titleNewConference,
		Form:  model.ConferenceInput{},
	})
}

// Create handles POST /conferences.
func (h *ConferencesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessions, RouteConferences+RouteSuffixNew) {
		return
	}

	caller := middleware.GetCaller(r)
	in := conferenceInput(r)

	conf, err := h.conferences.Create(r.Context(), caller, in)
	if err != nil {
		if ve, ok := service.IsValidation(err); ok {
			renderPage(w, r, h.renderer, http.StatusUnprocessableEntity, "conferences/new", render.TemplateData{
				Title:  titleNewConference,
				Form:   in.Normalize(),
				Errors: ve.Fields,
			})
			return
		}
		handleServiceError(w, r, h.sessions, err, "failed to create conference")
		return
	}

	slog.Info("conference created", "conference_id", conf.ID, "user_id", caller.ID)
	_ = h.eventService.LogConferenceEvent(r.Context(), model.EventLevelInfo, "Conference created", caller.ID, middleware.RequestMeta(r), map[string]any{
		"conference_id": conf.ID,
		"title":         conf.Title,
	})

	flashSuccess(w, r, h.sessions, conferencePath(conf.ID), msgConferenceCreated)
}

// EditForm handles GET /conferences/{id}/edit.
func (h *ConferencesHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIDParam(w, r)
	if !ok {
		return
	}

	conf, err := h.conferences.Authorize(r.Context(), middleware.GetCaller(r), id)
	if err != nil {
		handleServiceError(w, r, h.sessions, err, "failed to load conference", "conference_id", id)
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, "conferences/edit", render.TemplateData{
		Title: titleEditConference,
		Form: model.ConferenceInput{
			Title:       conf.Title,
			Date:        conf.Date,
			Location:    conf.Location,
			Description: conf.Description,
		},
		Data: conf,
	})
}

// Update handles PUT /conferences/{id} and its POST fallback.
func (h *ConferencesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIDParam(w, r)
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.sessions, conferencePath(id)+RouteSuffixEdit) {
		return
	}

	caller := middleware.GetCaller(r)
	in := conferenceInput(r)

	conf, err := h.conferences.Update(r.Context(), caller, id, in)
	if err != nil {
		if ve, ok := service.IsValidation(err); ok {
			renderPage(w, r, h.renderer, http.StatusUnprocessableEntity, "conferences/edit", render.TemplateData{
				Title:  titleEditConference,
				Form:   in.Normalize(),
				Errors: ve.Fields,
				Data:   store.Conference{ID: id},
			})
			return
		}
		handleServiceError(w, r, h.sessions, err, "failed to update conference", "conference_id", id)
		return
	}

	slog.Info("conference updated", "conference_id", conf.ID, "user_id", caller.ID)
	flashSuccess(w, r, h.sessions, conferencePath(conf.ID), msgConferenceUpdated)
}

// Delete handles DELETE /conferences/{id} and its POST fallback. Attendances
// of the conference go with it.
func (h *ConferencesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIDParam(w, r)
	if !ok {
		return
	}

	caller := middleware.GetCaller(r)
	if err := h.conferences.Destroy(r.Context(), caller, id); err != nil {
		if _, denied := service.IsAuthorization(err); denied && middleware.IsHTMX(r) {
			sendToastError(w, http.StatusForbidden, msgNotAllowed)
			return
		}
		handleServiceError(w, r, h.sessions, err, "failed to destroy conference", "conference_id", id)
		return
	}

	_ = h.eventService.LogConferenceEvent(r.Context(), model.EventLevelInfo, "Conference destroyed", caller.ID, middleware.RequestMeta(r), map[string]any{
		"conference_id": id,
	})

	if middleware.IsHTMX(r) {
		middleware.SetToast(w, msgConferenceDestroyed, "success")
		w.WriteHeader(http.StatusOK)
		return
	}
	flashSuccess(w, r, h.sessions, RouteRoot, msgConferenceDestroyed)
}

func conferenceInput(r *http.Request) model.ConferenceInput {
	return model.ConferenceInput{
		Title:       formValue(r, "title"),
		Date:        formValue(r, "date"),
		Location:    formValue(r, "location"),
		Description: formValue(r, "description"),
	}
}
