// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	RouteRoot    = "/"
	RouteAbout   = "/about"
	RouteContact = "/contact"
	RouteHelp    = "/help"

	RouteSignup  = "/signup"
	RouteSignin  = "/signin"
	RouteSignout = "/signout"

	RouteUsers       = "/users"
	RouteConferences = "/conferences"
	RouteAttendances = "/attendances"

	RouteHealth = "/health"
	RouteStatic = "/static"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"
	// RouteSuffixEdit is the suffix for edit form routes.
	RouteSuffixEdit = "/edit"
	// RouteSuffixDelete is the POST fallback for DELETE routes.
	RouteSuffixDelete = "/delete"
)

// Flash messages.
const (
	msgWelcome             = "WELCOME TO THE MODEL UNITED NATIONS APP OF DOOM!"
	msgInvalidCredentials  = "INVALID EMAIL/PASSWORD COMBO!"
	msgProfileUpdated      = "PROFILE UPDATED!"
	msgUserDestroyed       = "USER DESTROYED!"
	msgConferenceCreated   = "CONFERENCE CREATED"
	msgConferenceUpdated   = "CONFERENCE UPDATED!"
	msgConferenceDestroyed = "CONFERENCE DESTROYED!"
	msgNotFound            = "NOT FOUND!"
	msgNotAllowed          = "NOT ALLOWED!"
	msgInvalidForm         = "Invalid form data"
	msgSomethingWrong      = "Something went wrong. Please try again."
)

// Page titles.
const (
	titleHome           = "HOME"
	titleAbout          = "ABOUT"
	titleContact        = "CONTACT"
	titleHelp           = "HELP"
	titleSignup         = "SIGN UP"
	titleSignin         = "SIGN IN"
	titleUsers          = "ALL DA USERS"
	titleEditUser       = "EDIT USER"
	titleConferences    = "ALL DA CONFERENCES"
	titleNewConference  = "NEW CONFERENCE"
	titleEditConference = "EDIT CONFERENCE"
	titleNotFound       = "NOT FOUND"
)

// paginationTarget is the element htmx swaps for page links.
const paginationTarget = "main"
