// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/seechoy/mun-app/internal/middleware"
	"github.com/seechoy/mun-app/internal/render"
	"github.com/seechoy/mun-app/internal/service"
	"github.com/seechoy/mun-app/internal/session"
)

// CountryResolver suggests the country a delegate represents from their
// client address. An empty result leaves the field blank.
type CountryResolver interface {
	DefaultCountry(ip string) string
}

// AttendanceFormData drives the attend/unattend fragment.
type AttendanceFormData struct {
	ConferenceID int64
	Attending    bool
	AttendanceID int64
	Count        int64
	Country      string
}

// AttendancesHandler handles attending and unattending conferences.
type AttendancesHandler struct {
	attendance *service.Attendance
	renderer   *render.Renderer
	sessions   *session.Manager
	countries  CountryResolver
}

// NewAttendancesHandler creates a new AttendancesHandler. countries may be nil.
func NewAttendancesHandler(attendance *service.Attendance, renderer *render.Renderer, sm *session.Manager, countries CountryResolver) *AttendancesHandler {
	return &AttendancesHandler{
		attendance: attendance,
		renderer:   renderer,
		sessions:   sm,
		countries:  countries,
	}
}

// Create handles POST /attendances. Attending twice is treated as success.
func (h *AttendancesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessions, RouteRoot) {
		return
	}

	conferenceID, err := strconv.ParseInt(formValue(r, "conference_id"), 10, 64)
	if err != nil || conferenceID <= 0 {
		handleServiceError(w, r, h.sessions, service.ErrNotFound, "invalid conference id")
		return
	}

	caller := middleware.GetCaller(r)
	country := formValue(r, "country")
	if country == "" && h.countries != nil {
		country = h.countries.DefaultCountry(middleware.ClientIP(r))
	}

	a, err := h.attendance.Attend(r.Context(), caller, conferenceID, country)
	switch {
	case err == nil:
		slog.Info("attending conference", "user_id", caller.ID, "conference_id", conferenceID, "attendance_id", a.ID)
	case errors.Is(err, service.ErrConflict):
		slog.Debug("already attending conference", "user_id", caller.ID, "conference_id", conferenceID)
	default:
		handleServiceError(w, r, h.sessions, err, "failed to attend conference", "conference_id", conferenceID)
		return
	}

	h.respond(w, r, conferenceID)
}

// Delete handles DELETE /attendances/{id} and its POST fallback. It removes
// the caller's own attendance of the conference the given attendance belongs
// to, so nobody can remove someone else's.
func (h *AttendancesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIDParam(w, r)
	if !ok {
		return
	}

	a, err := h.attendance.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.sessions, err, "failed to load attendance", "attendance_id", id)
		return
	}

	caller := middleware.GetCaller(r)
	removed, err := h.attendance.Unattend(r.Context(), caller, a.ConferenceID)
	if err != nil {
		handleServiceError(w, r, h.sessions, err, "failed to unattend conference", "conference_id", a.ConferenceID)
		return
	}
	if removed {
		slog.Info("unattended conference", "user_id", caller.ID, "conference_id", a.ConferenceID)
	}

	h.respond(w, r, a.ConferenceID)
}

// respond renders the fresh fragment for htmx and redirects to the
// conference otherwise.
func (h *AttendancesHandler) respond(w http.ResponseWriter, r *http.Request, conferenceID int64) {
	if !middleware.IsHTMX(r) {
		http.Redirect(w, r, conferencePath(conferenceID), http.StatusSeeOther)
		return
	}

	data, err := h.formData(r, conferenceID)
	if err != nil {
		logAndInternalError(w, "failed to load attendance", "conference_id", conferenceID, "error", err)
		return
	}
	if err := h.renderer.RenderFragment(w, http.StatusOK, "attendance_form", data); err != nil {
		logAndInternalError(w, "failed to render attendance form", "error", err)
	}
}

func (h *AttendancesHandler) formData(r *http.Request, conferenceID int64) (AttendanceFormData, error) {
	data := AttendanceFormData{ConferenceID: conferenceID}

	a, attending, err := h.attendance.Find(r.Context(), middleware.GetCaller(r).ID, conferenceID)
	if err != nil {
		return data, err
	}
	if attending {
		data.Attending = true
		data.AttendanceID = a.ID
		data.Country = a.Country
	} else if h.countries != nil {
		data.Country = h.countries.DefaultCountry(middleware.ClientIP(r))
	}

	if data.Count, err = h.attendance.Count(r.Context(), conferenceID); err != nil {
		return data, err
	}
	return data, nil
}
