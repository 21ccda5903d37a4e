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

// UsersHandler handles the user directory and profile routes.
type UsersHandler struct {
	accounts     *service.Accounts
	conferences  *service.Conferences
	attendance   *service.Attendance
	renderer     *render.Renderer
	sessions     *session.Manager
	eventService *service.EventService
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(accounts *service.Accounts, conferences *service.Conferences, attendance *service.Attendance, renderer *render.Renderer, sm *session.Manager, events *service.EventService) *UsersHandler {
	return &UsersHandler{
		accounts:     accounts,
		conferences:  conferences,
		attendance:   attendance,
		renderer:     renderer,
		sessions:     sm,
		eventService: events,
	}
}

// UsersListData holds data for the users index template.
type UsersListData struct {
	Users      []store.User
	TotalUsers int64
}

// UserShowData holds data for the profile page.
type UserShowData struct {
	User      store.User
	Owned     []store.Conference
	Attending []store.AttendedConference
}

// List handles GET /users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	page := uikit.ParsePageParam(r)

	total, err := h.accounts.Count(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count users", "error", err)
		return
	}

	page, _ = uikit.NormalizePagination(page, total, model.UsersPerPage)
	users, err := h.accounts.List(r.Context(), page)
	if err != nil {
		logAndInternalError(w, "failed to list users", "error", err)
		return
	}

	pagination := uikit.BuildPagination(page, total, model.UsersPerPage, RouteUsers, r.URL.Query())
	pagination.Target = paginationTarget

	renderPage(w, r, h.renderer, http.StatusOK, "users/index", render.TemplateData{
		Title:      titleUsers,
		Data:       UsersListData{Users: users, TotalUsers: total},
		Pagination: &pagination,
	})
}

// Show handles GET /users/{id}.
func (h *UsersHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.sessions, err, "failed to load user", "user_id", id)
		return
	}

	owned, err := h.conferences.OwnedBy(r.Context(), id)
	if err != nil {
		logAndInternalError(w, "failed to list owned conferences", "user_id", id, "error", err)
		return
	}
	attending, err := h.attendance.Attending(r.Context(), id)
	if err != nil {
		logAndInternalError(w, "failed to list attended conferences", "user_id", id, "error", err)
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, "users/show", render.TemplateData{
		Title: user.Alias,
		Data:  UserShowData{User: user, Owned: owned, Attending: attending},
	})
}

// EditForm handles GET /users/{id}/edit. Only the owner may edit a profile;
// everyone else goes home.
func (h *UsersHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIDParam(w, r)
	if !ok {
		return
	}

	if d := authz.ProfileWrite(middleware.GetCaller(r), id); !d.Allowed {
		middleware.Redirect(w, r, RouteRoot)
		return
	}

	// Only the user themself gets here, and LoadCaller already fetched them.
	user := middleware.GetUser(r)
	if user == nil {
		middleware.Redirect(w, r, RouteRoot)
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, "users/edit", render.TemplateData{
		Title: titleEditUser,
		Form:  model.ProfileInput{Alias: user.Alias, Email: user.Email},
		Data:  *user,
	})
}

// Update handles PUT /users/{id} and its POST fallback.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIDParam(w, r)
	if !ok {
		return
	}

	caller := middleware.GetCaller(r)
	if d := authz.ProfileWrite(caller, id); !d.Allowed {
		middleware.Redirect(w, r, RouteRoot)
		return
	}
	if !parseFormOrRedirect(w, r, h.sessions, userPath(id)+RouteSuffixEdit) {
		return
	}

	in := model.ProfileInput{
		Alias:                formValue(r, "alias"),
		Email:                formValue(r, "email"),
		Password:             formValue(r, "password"),
		PasswordConfirmation: formValue(r, "password_confirmation"),
	}

	updated, err := h.accounts.UpdateProfile(r.Context(), caller, id, in)
	if err != nil {
		if ve, ok := service.IsValidation(err); ok {
			in.Password, in.PasswordConfirmation = "", ""
			renderPage(w, r, h.renderer, http.StatusUnprocessableEntity, "users/edit", render.TemplateData{
				Title:  titleEditUser,
				Form:   in.Normalize(),
				Errors: ve.Fields,
				Data:   store.User{ID: id},
			})
			return
		}
		handleServiceError(w, r, h.sessions, err, "failed to update user", "user_id", id)
		return
	}

	slog.Info("profile updated", "user_id", updated.ID, "password_changed", in.ChangesPassword())
	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo, "Profile updated", caller.ID, middleware.RequestMeta(r), map[string]any{
		"password_changed": in.ChangesPassword(),
	})

	flashSuccess(w, r, h.sessions, userPath(updated.ID), msgProfileUpdated)
}

// Delete handles DELETE /users/{id} and its POST fallback. An admin deleting
// themself is a silent no-op.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIDParam(w, r)
	if !ok {
		return
	}

	caller := middleware.GetCaller(r)
	destroyed, err := h.accounts.Destroy(r.Context(), caller, id)
	if err != nil {
		handleServiceError(w, r, h.sessions, err, "failed to destroy user", "user_id", id)
		return
	}

	if !destroyed {
		if middleware.IsHTMX(r) {
			w.Header().Set(middleware.HeaderHXReswap, "none")
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, RouteUsers, http.StatusSeeOther)
		return
	}

	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo, "User destroyed", caller.ID, middleware.RequestMeta(r), map[string]any{
		"target_user_id": id,
	})

	if middleware.IsHTMX(r) {
		// Empty body removes the row.
		middleware.SetToast(w, msgUserDestroyed, "success")
		w.WriteHeader(http.StatusOK)
		return
	}
	flashSuccess(w, r, h.sessions, RouteUsers, msgUserDestroyed)
}
