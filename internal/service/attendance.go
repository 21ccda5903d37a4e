// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/seechoy/mun-app/internal/authz"
	"github.com/seechoy/mun-app/internal/model"
	"github.com/seechoy/mun-app/internal/store"
)

// Attendance is the ledger of which users attend which conferences.
type Attendance struct {
	queries *store.Queries
}

// NewAttendance creates an Attendance service.
func NewAttendance(db *sql.DB) *Attendance {
	return &Attendance{queries: store.New(db)}
}

// Attend records that the caller attends conferenceID. A second attempt
// fails with an error matching ErrConflict and leaves the ledger unchanged.
func (s *Attendance) Attend(ctx context.Context, caller authz.Caller, conferenceID int64, country string) (store.Attendance, error) {
	if d := authz.RequireSignedIn(caller); !d.Allowed {
		return store.Attendance{}, denied(d)
	}
	if _, err := s.queries.GetConference(ctx, conferenceID); err != nil {
		return store.Attendance{}, notFound(err, "conference")
	}

	now := time.Now().UTC()
	a, err := s.queries.CreateAttendance(ctx, store.CreateAttendanceParams{
		UserID:       caller.ID,
		ConferenceID: conferenceID,
		Country:      model.NormalizeCountry(country),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return store.Attendance{}, &ConflictError{Field: "conference_id"}
		}
		return store.Attendance{}, fmt.Errorf("creating attendance: %w", err)
	}
	return a, nil
}

// Unattend removes the caller's attendance of conferenceID. It reports
// whether a row was removed; a missing attendance is not an error.
func (s *Attendance) Unattend(ctx context.Context, caller authz.Caller, conferenceID int64) (bool, error) {
	if d := authz.RequireSignedIn(caller); !d.Allowed {
		return false, denied(d)
	}

	n, err := s.queries.DeleteAttendanceByUserAndConference(ctx, caller.ID, conferenceID)
	if err != nil {
		return false, fmt.Errorf("deleting attendance: %w", err)
	}
	return n > 0, nil
}

// IsAttending reports whether userID attends conferenceID.
func (s *Attendance) IsAttending(ctx context.Context, userID, conferenceID int64) (bool, error) {
	_, ok, err := s.Find(ctx, userID, conferenceID)
	return ok, err
}

// Find returns userID's attendance of conferenceID, if any.
func (s *Attendance) Find(ctx context.Context, userID, conferenceID int64) (store.Attendance, bool, error) {
	if userID == 0 {
		return store.Attendance{}, false, nil
	}
	a, err := s.queries.GetAttendanceByUserAndConference(ctx, userID, conferenceID)
	switch {
	case err == nil:
		return a, true, nil
	case errors.Is(err, sql.ErrNoRows):
		return store.Attendance{}, false, nil
	default:
		return store.Attendance{}, false, fmt.Errorf("checking attendance: %w", err)
	}
}

// Get returns the attendance with id.
func (s *Attendance) Get(ctx context.Context, id int64) (store.Attendance, error) {
	a, err := s.queries.GetAttendance(ctx, id)
	if err != nil {
		return store.Attendance{}, notFound(err, "attendance")
	}
	return a, nil
}

// Attending lists the conferences userID attends.
func (s *Attendance) Attending(ctx context.Context, userID int64) ([]store.AttendedConference, error) {
	confs, err := s.queries.ListAttendedConferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing attended conferences: %w", err)
	}
	return confs, nil
}

// Count returns the number of attendees of conferenceID.
func (s *Attendance) Count(ctx context.Context, conferenceID int64) (int64, error) {
	n, err := s.queries.CountAttendancesByConference(ctx, conferenceID)
	if err != nil {
		return 0, fmt.Errorf("counting attendees: %w", err)
	}
	return n, nil
}
