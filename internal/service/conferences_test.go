// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seechoy/mun-app/internal/authz"
	"github.com/seechoy/mun-app/internal/model"
	"github.com/seechoy/mun-app/internal/store"
	"github.com/seechoy/mun-app/internal/testutil"
)

func hmun() model.ConferenceInput {
	return model.ConferenceInput{Title: "HMUN 2012", Date: "Feb 16-19, 2012", Location: "Boston", Description: "**Harvard** MUN"}
}

func TestConferenceCreate(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewConferences(db, nil)
	ctx := context.Background()

	root := testutil.CreateUser(t, db, "root", "root@man.jp", true)
	rob := testutil.CreateUser(t, db, "rob", "rob@man.jp", false)

	t.Run("anonymous is sent to sign in", func(t *testing.T) {
		_, err := svc.Create(ctx, authz.Anonymous, hmun())
		ae, ok := IsAuthorization(err)
		require.True(t, ok)
		assert.Equal(t, authz.SignInPath, ae.Redirect)
	})

	t.Run("non-admin is denied and nothing is stored", func(t *testing.T) {
		_, err := svc.Create(ctx, callerFor(rob), hmun())
		ae, ok := IsAuthorization(err)
		require.True(t, ok)
		assert.Equal(t, authz.HomePath, ae.Redirect)

		n, err := svc.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("admin creates", func(t *testing.T) {
		conf, err := svc.Create(ctx, callerFor(root), hmun())
		require.NoError(t, err)
		assert.Equal(t, root.ID, conf.UserID)
		assert.Equal(t, "HMUN 2012", conf.Title)

		got, err := svc.Get(ctx, conf.ID)
		require.NoError(t, err)
		assert.Equal(t, "root", got.OwnerAlias)
		assert.Zero(t, got.AttendeeCount)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.Create(ctx, callerFor(root), model.ConferenceInput{Title: strings.Repeat("t", 65)})
		ve, ok := IsValidation(err)
		require.True(t, ok)
		assert.Contains(t, ve.Fields, "title")
	})
}

func TestConferenceUpdateAndDestroyRequireOwnerAndAdmin(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewConferences(db, nil)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner", "owner@man.jp", true)
	otherAdmin := testutil.CreateUser(t, db, "other", "other@man.jp", true)
	member := testutil.CreateUser(t, db, "member", "member@man.jp", false)
	conf := testutil.CreateConference(t, db, owner.ID, "HMUN")

	// The owner loses the admin flag: ownership alone is not enough.
	demotedOwner := callerFor(owner)
	demotedOwner.Admin = false

	denials := []struct {
		name     string
		caller   authz.Caller
		redirect string
	}{
		{"anonymous", authz.Anonymous, authz.SignInPath},
		{"member", callerFor(member), authz.HomePath},
		{"admin but not owner", callerFor(otherAdmin), authz.HomePath},
		{"owner but not admin", demotedOwner, authz.HomePath},
	}

	for _, tt := range denials {
		t.Run("update "+tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, tt.caller, conf.ID, hmun())
			ae, ok := IsAuthorization(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.redirect, ae.Redirect)
		})
		t.Run("destroy "+tt.name, func(t *testing.T) {
			err := svc.Destroy(ctx, tt.caller, conf.ID)
			_, ok := IsAuthorization(err)
			require.True(t, ok, "got %v", err)
		})
	}

	got, err := svc.Get(ctx, conf.ID)
	require.NoError(t, err)
	assert.Equal(t, "HMUN", got.Title, "denied updates change nothing")

	updated, err := svc.Update(ctx, callerFor(owner), conf.ID, hmun())
	require.NoError(t, err)
	assert.Equal(t, "HMUN 2012", updated.Title)
	assert.Equal(t, "Boston", updated.Location)
}

func TestConferenceUpdate_Validation(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewConferences(db, nil)

	owner := testutil.CreateUser(t, db, "owner", "owner@man.jp", true)
	conf := testutil.CreateConference(t, db, owner.ID, "HMUN")

	_, err := svc.Update(context.Background(), callerFor(owner), conf.ID, model.ConferenceInput{Title: " "})
	_, ok := IsValidation(err)
	assert.True(t, ok)
}

func TestConferenceNotFound(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewConferences(db, nil)
	ctx := context.Background()

	root := testutil.CreateUser(t, db, "root", "root@man.jp", true)

	_, err := svc.Get(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, callerFor(root), 404, hmun())
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Destroy(ctx, callerFor(root), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConferenceDestroyCascades(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewConferences(db, nil)
	ctx := context.Background()
	q := store.New(db)

	owner := testutil.CreateUser(t, db, "owner", "owner@man.jp", true)
	rob := testutil.CreateUser(t, db, "rob", "rob@man.jp", false)
	conf := testutil.CreateConference(t, db, owner.ID, "HMUN")
	other := testutil.CreateConference(t, db, owner.ID, "NMUN")
	testutil.CreateAttendance(t, db, rob.ID, conf.ID)
	testutil.CreateAttendance(t, db, owner.ID, conf.ID)
	testutil.CreateAttendance(t, db, rob.ID, other.ID)

	require.NoError(t, svc.Destroy(ctx, callerFor(owner), conf.ID))

	_, err := svc.Get(ctx, conf.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := q.CountAttendancesByConference(ctx, conf.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = q.CountAttendancesByConference(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "other conferences keep their attendees")
}

func TestConferenceListPagination(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewConferences(db, nil)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner", "owner@man.jp", true)
	for i := 1; i <= 7; i++ {
		testutil.CreateConference(t, db, owner.ID, fmt.Sprintf("Conference %d", i))
	}

	page1, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, page1, model.ConferencesPerPage)
	assert.Equal(t, "Conference 7", page1[0].Title, "newest first")

	page2, err := svc.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 2)

	page0, err := svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, page1, page0, "page below 1 is treated as the first page")

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	owned, err := svc.OwnedBy(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 7)
}
