// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model holds the domain rules shared by the store, the services and
// the handlers: field limits, validation and the audit event vocabulary.
package model

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// User field limits.
const (
	AliasMaxLength    = 32
	EmailMaxLength    = 254
	PasswordMinLength = 6
	PasswordMaxLength = 32
)

var emailPattern = regexp.MustCompile(`(?i)^[\w+\-.]+@[a-z\d\-.]+\.[a-z]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// RegistrationInput is the signup form.
type RegistrationInput struct {
	Alias                string
	Email                string
	Password             string
	PasswordConfirmation string
}

// Normalize trims surrounding whitespace from alias and email.
func (in RegistrationInput) Normalize() RegistrationInput {
	in.Alias = strings.TrimSpace(in.Alias)
	in.Email = strings.TrimSpace(in.Email)
	return in
}

// ValidateRegistration checks the shape of a signup form. Uniqueness is
// checked by the caller against the store.
func ValidateRegistration(in RegistrationInput) FieldErrors {
	errs := FieldErrors{}
	validateAlias(errs, in.Alias)
	validateEmail(errs, in.Email)
	validatePassword(errs, in.Password, in.PasswordConfirmation)
	return errs
}

// ProfileInput is the profile edit form. A blank password keeps the
// current one.
type ProfileInput struct {
	Alias                string
	Email                string
	Password             string
	PasswordConfirmation string
}

// Normalize trims surrounding whitespace from alias and email.
func (in ProfileInput) Normalize() ProfileInput {
	in.Alias = strings.TrimSpace(in.Alias)
	in.Email = strings.TrimSpace(in.Email)
	return in
}

// ChangesPassword reports whether the form carries a new password.
func (in ProfileInput) ChangesPassword() bool {
	return in.Password != "" || in.PasswordConfirmation != ""
}

// ValidateProfile checks the shape of a profile edit form.
func ValidateProfile(in ProfileInput) FieldErrors {
	errs := FieldErrors{}
	validateAlias(errs, in.Alias)
	validateEmail(errs, in.Email)
	if in.ChangesPassword() {
		validatePassword(errs, in.Password, in.PasswordConfirmation)
	}
	return errs
}

func validateAlias(errs FieldErrors, alias string) {
	switch {
	case alias == "":
		errs.Add("alias", "Alias is required")
	case utf8.RuneCountInString(alias) > AliasMaxLength:
		errs.Add("alias", "Alias must be at most 32 characters")
	}
}

func validateEmail(errs FieldErrors, email string) {
	switch {
	case email == "":
		errs.Add("email", "Email is required")
	case len(email) > EmailMaxLength:
		errs.Add("email", "Email is too long")
	case !ValidEmail(email):
		errs.Add("email", "Email is invalid")
	}
}

func validatePassword(errs FieldErrors, password, confirmation string) {
	n := utf8.RuneCountInString(password)
	switch {
	case password == "":
		errs.Add("password", "Password is required")
	case n < PasswordMinLength:
		errs.Add("password", "Password must be at least 6 characters")
	case n > PasswordMaxLength:
		errs.Add("password", "Password must be at most 32 characters")
	}
	if password != confirmation {
		errs.Add("password_confirmation", "Password confirmation doesn't match")
	}
}
