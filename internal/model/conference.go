// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strings"
	"unicode/utf8"
)

// Conference field limits.
const (
	TitleMaxLength       = 64
	DateMaxLength        = 64
	LocationMaxLength    = 128
	DescriptionMaxLength = 4000
	CountryMaxLength     = 64
)

// Page sizes.
const (
	ConferencesPerPage = 5
	UsersPerPage       = 30
)

// ConferenceInput is the conference create/edit form.
type ConferenceInput struct {
	Title       string
	Date        string
	Location    string
	Description string
}

// Normalize trims surrounding whitespace from every field.
func (in ConferenceInput) Normalize() ConferenceInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Date = strings.TrimSpace(in.Date)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

// ValidateConference checks a normalized conference form.
func ValidateConference(in ConferenceInput) FieldErrors {
	errs := FieldErrors{}
	switch {
	case in.Title == "":
		errs.Add("title", "Title is required")
	case utf8.RuneCountInString(in.Title) > TitleMaxLength:
		errs.Add("title", "Title must be at most 64 characters")
	}
	if utf8.RuneCountInString(in.Date) > DateMaxLength {
		errs.Add("date", "Date must be at most 64 characters")
	}
	if utf8.RuneCountInString(in.Location) > LocationMaxLength {
		errs.Add("location", "Location must be at most 128 characters")
	}
	if utf8.RuneCountInString(in.Description) > DescriptionMaxLength {
		errs.Add("description", "Description must be at most 4000 characters")
	}
	return errs
}

// NormalizeCountry trims and truncates the free-text country of an attendance.
func NormalizeCountry(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > CountryMaxLength {
		s = string([]rune(s)[:CountryMaxLength])
	}
	return s
}
