// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/seechoy/mun-app/internal/authz"
	"github.com/seechoy/mun-app/internal/model"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write would break a uniqueness rule.
	ErrConflict = errors.New("uniqueness conflict")
)

// ValidationError carries per-field messages for a rejected form.
type ValidationError struct {
	Fields model.FieldErrors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.String()
}

// AuthorizationError is returned when the guard denies an action.
type AuthorizationError struct {
	Redirect string
	Reason   string
}

func (e *AuthorizationError) Error() string {
	return "not authorized: " + e.Reason
}

// ConflictError names the field whose uniqueness was violated. It matches
// ErrConflict with errors.Is.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already taken", e.Field)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func denied(d authz.Decision) error {
	return &AuthorizationError{Redirect: d.Redirect, Reason: d.Reason}
}

func invalid(fields model.FieldErrors) error {
	return &ValidationError{Fields: fields}
}

// notFound maps sql.ErrNoRows to ErrNotFound and wraps everything else.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("loading %s: %w", what, err)
}

// IsValidation reports whether err is a *ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// IsAuthorization reports whether err is an *AuthorizationError and returns it.
func IsAuthorization(err error) (*AuthorizationError, bool) {
	var ae *AuthorizationError
	ok := errors.As(err, &ae)
	return ae, ok
}

func offset(page, perPage int) int64 {
	if page < 1 {
		page = 1
	}
	return int64((page - 1) * perPage)
}
