// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/seechoy/mun-app/internal/authz"
	"github.com/seechoy/mun-app/internal/cache"
	"github.com/seechoy/mun-app/internal/model"
	"github.com/seechoy/mun-app/internal/store"
)

// Conferences is the conference directory.
type Conferences struct {
	db      *sql.DB
	queries *store.Queries
	counts  *cache.Counts
}

// NewConferences creates a Conferences service. counts may be nil.
func NewConferences(db *sql.DB, counts *cache.Counts) *Conferences {
	return &Conferences{
		db:      db,
		queries: store.New(db),
		counts:  counts,
	}
}

// List returns one page of conferences, newest first.
func (s *Conferences) List(ctx context.Context, page int) ([]store.ConferenceWithOwner, error) {
	confs, err := s.queries.ListConferences(ctx, store.ListConferencesParams{
		Limit:  model.ConferencesPerPage,
		Offset: offset(page, model.ConferencesPerPage),
	})
	if err != nil {
		return nil, fmt.Errorf("listing conferences: %w", err)
	}
	return confs, nil
}

// Count returns the number of conferences.
func (s *Conferences) Count(ctx context.Context) (int64, error) {
	return s.counts.GetOrLoad(ctx, cache.KeyConferenceCount, s.queries.CountConferences)
}

// Get returns a conference with its owner alias and attendee count.
func (s *Conferences) Get(ctx context.Context, id int64) (store.ConferenceWithOwner, error) {
	conf, err := s.queries.GetConferenceWithOwner(ctx, id)
	if err != nil {
		return store.ConferenceWithOwner{}, notFound(err, "conference")
	}
	return conf, nil
}

// Attendees lists the users attending conference id, earliest first.
func (s *Conferences) Attendees(ctx context.Context, id int64) ([]store.Attendee, error) {
	attendees, err := s.queries.ListAttendeesByConference(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing attendees: %w", err)
	}
	return attendees, nil
}

// OwnedBy lists the conferences created by userID.
func (s *Conferences) OwnedBy(ctx context.Context, userID int64) ([]store.Conference, error) {
	confs, err := s.queries.ListConferencesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing conferences of user %d: %w", userID, err)
	}
	return confs, nil
}

// Create adds a conference owned by the caller. Only signed-in admins may
// create conferences.
func (s *Conferences) Create(ctx context.Context, caller authz.Caller, in model.ConferenceInput) (store.Conference, error) {
	if d := authz.ConferenceCreate(caller); !d.Allowed {
		return store.Conference{}, denied(d)
	}

	in = in.Normalize()
	if errs := model.ValidateConference(in); errs.Any() {
		return store.Conference{}, invalid(errs)
	}

	now := time.Now().UTC()
	conf, err := s.queries.CreateConference(ctx, store.CreateConferenceParams{
		Title:       in.Title,
		Date:        in.Date,
		Location:    in.Location,
		Description: in.Description,
		UserID:      caller.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return store.Conference{}, fmt.Errorf("creating conference: %w", err)
	}

	s.counts.Invalidate(ctx, cache.KeyConferenceCount)
	return conf, nil
}

// load fetches a conference for a write, checking sign-in before the lookup
// and ownership plus admin after it.
func (s *Conferences) load(ctx context.Context, caller authz.Caller, id int64) (store.Conference, error) {
	if d := authz.RequireSignedIn(caller); !d.Allowed {
		return store.Conference{}, denied(d)
	}
	conf, err := s.queries.GetConference(ctx, id)
	if err != nil {
		return store.Conference{}, notFound(err, "conference")
	}
	if d := authz.ConferenceWrite(caller, conf.UserID); !d.Allowed {
		return store.Conference{}, denied(d)
	}
	return conf, nil
}

// Authorize reports whether caller may change conference id, without
// changing anything. Edit forms use it before rendering.
func (s *Conferences) Authorize(ctx context.Context, caller authz.Caller, id int64) (store.Conference, error) {
	return s.load(ctx, caller, id)
}

// Update changes a conference. The caller must own it and be an admin.
func (s *Conferences) Update(ctx context.Context, caller authz.Caller, id int64, in model.ConferenceInput) (store.Conference, error) {
	if _, err := s.load(ctx, caller, id); err != nil {
		return store.Conference{}, err
	}

	in = in.Normalize()
	if errs := model.ValidateConference(in); errs.Any() {
		return store.Conference{}, invalid(errs)
	}

	conf, err := s.queries.UpdateConference(ctx, store.UpdateConferenceParams{
		Title:       in.Title,
		Date:        in.Date,
		Location:    in.Location,
		Description: in.Description,
		UpdatedAt:   time.Now().UTC(),
		ID:          id,
	})
	if err != nil {
		return store.Conference{}, notFound(err, "conference")
	}
	return conf, nil
}

// Destroy removes a conference and its attendances in one transaction.
func (s *Conferences) Destroy(ctx context.Context, caller authz.Caller, id int64) error {
	if _, err := s.load(ctx, caller, id); err != nil {
		return err
	}

	var res store.CascadeResult
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		res, err = q.DeleteConferenceCascade(ctx, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("destroying conference %d: %w", id, err)
	}

	s.counts.Invalidate(ctx, cache.KeyConferenceCount)
	slog.Info("conference destroyed", "conference_id", id, "by", caller.ID, "attendances", res.Attendances)
	return nil
}
