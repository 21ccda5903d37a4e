// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seechoy/mun-app/internal/authz"
	"github.com/seechoy/mun-app/internal/cache"
	"github.com/seechoy/mun-app/internal/model"
	"github.com/seechoy/mun-app/internal/store"
	"github.com/seechoy/mun-app/internal/testutil"
)

func robman() model.RegistrationInput {
	return model.RegistrationInput{
		Alias:                "ROBMAN",
		Email:                "rob@man.jp",
		Password:             "foobar",
		PasswordConfirmation: "foobar",
	}
}

func callerFor(u store.User) authz.Caller {
	return authz.Caller{ID: u.ID, Alias: u.Alias, Admin: u.Admin}
}

func TestRegister(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewAccounts(db, nil)
	ctx := context.Background()

	user, err := svc.Register(ctx, robman())
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "ROBMAN", user.Alias)
	assert.Equal(t, "rob@man.jp", user.Email)
	assert.False(t, user.Admin, "registration never grants admin")
	assert.NotContains(t, user.PasswordHash, "foobar")
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$argon2id$"))
}

func TestRegister_CaseInsensitiveUniqueness(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewAccounts(db, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, robman())
	require.NoError(t, err)

	tests := []struct {
		name  string
		in    model.RegistrationInput
		field string
	}{
		{
			name:  "alias differs in case",
			in:    model.RegistrationInput{Alias: "robman", Email: "other@man.jp", Password: "foobar", PasswordConfirmation: "foobar"},
			field: "alias",
		},
		{
			name:  "email differs in case",
			in:    model.RegistrationInput{Alias: "other", Email: "ROB@MAN.JP", Password: "foobar", PasswordConfirmation: "foobar"},
			field: "email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			ve, ok := IsValidation(err)
			require.True(t, ok, "expected ValidationError, got %v", err)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRegister_Invalid(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewAccounts(db, nil)

	in := robman()
	in.Email = "user@foo,com"
	in.PasswordConfirmation = "mismatch"

	_, err := svc.Register(context.Background(), in)
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "email")
	assert.Contains(t, ve.Fields, "password_confirmation")

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegister_InvalidatesUserCount(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	mem := cache.NewMemoryCache(cache.MemoryOptions{DefaultTTL: time.Minute})
	defer func() { _ = mem.Close() }()
	svc := NewAccounts(db, cache.NewCounts(mem, time.Minute))
	ctx := context.Background()

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.Register(ctx, robman())
	require.NoError(t, err)

	n, err = svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestVerify(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewAccounts(db, nil)
	ctx := context.Background()

	registered, err := svc.Register(ctx, robman())
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		ok       bool
	}{
		{"correct", "rob@man.jp", "foobar", true},
		{"email in other case", " Rob@Man.JP ", "foobar", true},
		{"wrong password", "rob@man.jp", "foobaz", false},
		{"unknown email", "nobody@man.jp", "foobar", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, ok, err := svc.Verify(ctx, tt.email, tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, registered.ID, user.ID)
			} else {
				assert.Zero(t, user.ID)
			}
		})
	}

	after, err := svc.Get(ctx, registered.ID)
	require.NoError(t, err)
	assert.True(t, after.LastLoginAt.Valid, "successful verify records last login")
}

func TestVerify_StorageFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM users WHERE email_key").
		WithArgs("rob@man.jp").
		WillReturnError(errors.New("disk I/O error"))

	svc := NewAccounts(db, nil)
	_, ok, err := svc.Verify(context.Background(), "rob@man.jp", "foobar")
	assert.False(t, ok)
	assert.ErrorContains(t, err, "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

var userMockColumns = []string{"id", "alias", "alias_key", "email", "email_key", "password_hash", "admin", "last_login_at", "created_at", "updated_at"}

// A concurrent signup can take the alias or email after checkTaken passed;
// the unique index then rejects the write and the caller still gets a field
// error rather than a 500.
func TestRegister_UniqueIndexRace(t *testing.T) {
	tests := []struct {
		name   string
		dbErr  string
		field  string
		absent string
	}{
		{"email", "constraint failed: UNIQUE constraint failed: users.email_key (2067)", "email", "alias"},
		{"alias", "constraint failed: UNIQUE constraint failed: users.alias_key (2067)", "alias", "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			mock.ExpectQuery("FROM users WHERE alias_key").
				WithArgs("robman").
				WillReturnRows(sqlmock.NewRows(userMockColumns))
			mock.ExpectQuery("FROM users WHERE email_key").
				WithArgs("rob@man.jp").
				WillReturnRows(sqlmock.NewRows(userMockColumns))
			mock.ExpectQuery("INSERT INTO users").
				WillReturnError(errors.New(tt.dbErr))

			_, err = NewAccounts(db, nil).Register(context.Background(), robman())

			ve, ok := IsValidation(err)
			require.True(t, ok, "want *ValidationError, got %v", err)
			assert.Contains(t, ve.Fields, tt.field)
			assert.NotContains(t, ve.Fields, tt.absent)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateProfile_UniqueIndexRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userMockColumns).
			AddRow(int64(7), "rob", "rob", "rob@man.jp", "rob@man.jp", "hash", false, nil, now, now))
	mock.ExpectQuery("FROM users WHERE alias_key").
		WithArgs("ann").
		WillReturnRows(sqlmock.NewRows(userMockColumns))
	mock.ExpectQuery("FROM users WHERE email_key").
		WithArgs("rob@man.jp").
		WillReturnRows(sqlmock.NewRows(userMockColumns))
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE users SET").
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: users.alias_key (2067)"))
	mock.ExpectRollback()

	rob := authz.Caller{ID: 7, Alias: "rob"}
	_, err = NewAccounts(db, nil).UpdateProfile(context.Background(), rob, 7, model.ProfileInput{Alias: "ann", Email: "rob@man.jp"})

	ve, ok := IsValidation(err)
	require.True(t, ok, "want *ValidationError, got %v", err)
	assert.Equal(t, "Alias has already been taken", ve.Fields["alias"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewAccounts(db, nil)
	ctx := context.Background()

	rob := testutil.CreateUser(t, db, "rob", "rob@man.jp", false)
	ann := testutil.CreateUser(t, db, "ann", "ann@man.jp", false)
	root := testutil.CreateUser(t, db, "root", "root@man.jp", true)

	t.Run("own profile without password", func(t *testing.T) {
		updated, err := svc.UpdateProfile(ctx, callerFor(rob), rob.ID, model.ProfileInput{Alias: "Robert", Email: "robert@man.jp"})
		require.NoError(t, err)
		assert.Equal(t, "Robert", updated.Alias)
		assert.Equal(t, rob.PasswordHash, updated.PasswordHash, "blank password keeps the hash")

		_, ok, err := svc.Verify(ctx, "robert@man.jp", testutil.DefaultPassword)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("own profile with password", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, callerFor(rob), rob.ID, model.ProfileInput{
			Alias: "Robert", Email: "robert@man.jp", Password: "newpass", PasswordConfirmation: "newpass",
		})
		require.NoError(t, err)

		_, ok, err := svc.Verify(ctx, "robert@man.jp", "newpass")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("alias taken by another user", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, callerFor(rob), rob.ID, model.ProfileInput{Alias: "ANN", Email: "robert@man.jp"})
		ve, ok := IsValidation(err)
		require.True(t, ok, "got %v", err)
		assert.Contains(t, ve.Fields, "alias")
	})

	t.Run("other user's profile", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, callerFor(ann), rob.ID, model.ProfileInput{Alias: "x", Email: "x@man.jp"})
		ae, ok := IsAuthorization(err)
		require.True(t, ok, "got %v", err)
		assert.Equal(t, authz.HomePath, ae.Redirect)
	})

	t.Run("admin cannot edit others", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, callerFor(root), ann.ID, model.ProfileInput{Alias: "x", Email: "x@man.jp"})
		_, ok := IsAuthorization(err)
		assert.True(t, ok)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, authz.Anonymous, rob.ID, model.ProfileInput{Alias: "x", Email: "x@man.jp"})
		ae, ok := IsAuthorization(err)
		require.True(t, ok)
		assert.Equal(t, authz.SignInPath, ae.Redirect)
	})
}

func TestDestroy(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewAccounts(db, nil)
	ctx := context.Background()
	q := store.New(db)

	root := testutil.CreateUser(t, db, "root", "root@man.jp", true)
	rob := testutil.CreateUser(t, db, "rob", "rob@man.jp", false)
	ann := testutil.CreateUser(t, db, "ann", "ann@man.jp", true)

	// ann owns a conference rob attends; rob attends another too.
	annConf := testutil.CreateConference(t, db, ann.ID, "HMUN")
	rootConf := testutil.CreateConference(t, db, root.ID, "NMUN")
	testutil.CreateAttendance(t, db, rob.ID, annConf.ID)
	testutil.CreateAttendance(t, db, rob.ID, rootConf.ID)
	testutil.CreateAttendance(t, db, ann.ID, rootConf.ID)

	t.Run("non-admin is denied", func(t *testing.T) {
		destroyed, err := svc.Destroy(ctx, callerFor(rob), ann.ID)
		_, ok := IsAuthorization(err)
		assert.True(t, ok)
		assert.False(t, destroyed)
	})

	t.Run("admin destroying self is a no-op", func(t *testing.T) {
		before, err := q.CountUsers(ctx)
		require.NoError(t, err)

		destroyed, err := svc.Destroy(ctx, callerFor(root), root.ID)
		require.NoError(t, err)
		assert.False(t, destroyed)

		after, err := q.CountUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Destroy(ctx, callerFor(root), 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cascade", func(t *testing.T) {
		destroyed, err := svc.Destroy(ctx, callerFor(root), ann.ID)
		require.NoError(t, err)
		assert.True(t, destroyed)

		_, err = svc.Get(ctx, ann.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = q.GetConference(ctx, annConf.ID)
		assert.Error(t, err, "owned conference removed")

		n, err := q.CountAttendancesByConference(ctx, annConf.ID)
		require.NoError(t, err)
		assert.Zero(t, n, "attendances of owned conference removed")

		n, err = q.CountAttendancesByConference(ctx, rootConf.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n, "only rob still attends NMUN")
	})
}
