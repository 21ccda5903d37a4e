// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/seechoy/mun-app/internal/middleware"
	"github.com/seechoy/mun-app/internal/model"
	"github.com/seechoy/mun-app/internal/render"
	"github.com/seechoy/mun-app/internal/service"
	"github.com/seechoy/mun-app/internal/session"
)

// signinForm is the sign-in form echoed back on failure. The password is
// never echoed.
type signinForm struct {
	Email string
}

// AuthHandler handles signup, sign in and sign out.
type AuthHandler struct {
	accounts        *service.Accounts
	renderer        *render.Renderer
	sessions        *session.Manager
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler. lp may be nil.
func NewAuthHandler(accounts *service.Accounts, renderer *render.Renderer, sm *session.Manager, events *service.EventService, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		accounts:        accounts,
		renderer:        renderer,
		sessions:        sm,
		eventService:    events,
		loginProtection: lp,
	}
}

// SignupForm renders the signup page. Signed-in callers go home.
func (h *AuthHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	if middleware.GetCaller(r).SignedIn() {
		middleware.Redirect(w, r, RouteRoot)
		return
	}
	renderPage(w, r, h.renderer, http.StatusOK, "users/new", render.TemplateData{
		Title: titleSignup,
		Form:  model.RegistrationInput{},
	})
}

// Signup creates an account and signs the new user in.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if middleware.GetCaller(r).SignedIn() {
		middleware.Redirect(w, r, RouteRoot)
		return
	}
	if !parseFormOrRedirect(w, r, h.sessions, RouteSignup) {
		return
	}

	in := model.RegistrationInput{
		Alias:                formValue(r, "alias"),
		Email:                formValue(r, "email"),
		Password:             formValue(r, "password"),
		PasswordConfirmation: formValue(r, "password_confirmation"),
	}

	user, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		if ve, ok := service.IsValidation(err); ok {
			in.Password, in.PasswordConfirmation = "", ""
			renderPage(w, r, h.renderer, http.StatusUnprocessableEntity, "users/new", render.TemplateData{
				Title:  titleSignup,
				Form:   in.Normalize(),
				Errors: ve.Fields,
			})
			return
		}
		logAndInternalError(w, "failed to register user", "error", err)
		return
	}

	if err := h.sessions.SignIn(r.Context(), user.ID); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	slog.Info("user signed up", "user_id", user.ID, "alias", user.Alias)
	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "User signed up", user.ID, middleware.RequestMeta(r), map[string]any{"alias": user.Alias})

	flashSuccess(w, r, h.sessions, userPath(user.ID), msgWelcome)
}

// SigninForm renders the sign-in page.
func (h *AuthHandler) SigninForm(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, http.StatusOK, "sessions/new", render.TemplateData{
		Title: titleSignin,
		Form:  signinForm{},
	})
}

// Signin verifies credentials and starts a session. Failures re-render the
// form with 422; repeated failures lock the account for a while.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessions, RouteSignin) {
		return
	}

	email := strings.TrimSpace(formValue(r, "email"))
	password := formValue(r, "password")
	// Verify resolves the account by the same key, so padding or case
	// changes in the email never reach a fresh lockout counter.
	account := model.EmailKey(email)
	meta := middleware.RequestMeta(r)

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(account); locked {
			_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Sign in attempt on locked account", 0, meta, map[string]any{"email": email})
			h.signinFailed(w, r, email, fmt.Sprintf("ACCOUNT LOCKED! TRY AGAIN IN %s.", formatDuration(remaining)))
			return
		}
	}

	user, ok, err := h.accounts.Verify(r.Context(), email, password)
	if err != nil {
		logAndInternalError(w, "sign in failed", "error", err)
		return
	}

	if !ok {
		slog.Debug("invalid sign in attempt", "email", email)
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Sign in failed", 0, meta, map[string]any{"email": email})

		msg := msgInvalidCredentials
		if h.loginProtection != nil {
			if locked, lockDuration := h.loginProtection.RecordFailedAttempt(account); locked {
				_ = h.eventService.LogSecurityEvent(r.Context(), "Account locked due to failed attempts", 0, meta, map[string]any{"email": email, "duration": lockDuration.String()})
				msg = fmt.Sprintf("TOO MANY FAILED ATTEMPTS! ACCOUNT LOCKED FOR %s.", formatDuration(lockDuration))
			} else if remaining := h.loginProtection.GetRemainingAttempts(account); remaining <= 3 && remaining > 0 {
				msg = fmt.Sprintf("%s %d ATTEMPTS LEFT.", msgInvalidCredentials, remaining)
			}
		}
		h.signinFailed(w, r, email, msg)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(account)
	}

	returnTo := h.sessions.PopReturnTo(r.Context(), userPath(user.ID))
	if err := h.sessions.SignIn(r.Context(), user.ID); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	slog.Info("user signed in", "user_id", user.ID)
	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "User signed in", user.ID, meta, nil)

	middleware.Redirect(w, r, returnTo)
}

func (h *AuthHandler) signinFailed(w http.ResponseWriter, r *http.Request, email, msg string) {
	renderPage(w, r, h.renderer, http.StatusUnprocessableEntity, "sessions/new", render.TemplateData{
		Title:     titleSignin,
		Flash:     msg,
		FlashType: "error",
		Form:      signinForm{Email: email},
	})
}

// Signout ends the session and goes home.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetCaller(r)
	if err := h.sessions.SignOut(r.Context()); err != nil {
		slog.Error("failed to destroy session", "error", err)
	}
	if caller.SignedIn() {
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "User signed out", caller.ID, middleware.RequestMeta(r), nil)
	}
	middleware.Redirect(w, r, RouteRoot)
}

func userPath(id int64) string {
	return fmt.Sprintf("%s/%d", RouteUsers, id)
}

func conferencePath(id int64) string {
	return fmt.Sprintf("%s/%d", RouteConferences, id)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d SECONDS", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 MINUTE"
		}
		return fmt.Sprintf("%d MINUTES", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 HOUR"
	}
	return fmt.Sprintf("%d HOURS", hours)
}
