// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers: a migrated temporary
// database, quiet loggers and user/conference fixtures.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/seechoy/mun-app/internal/auth"
	"github.com/seechoy/mun-app/internal/model"
	"github.com/seechoy/mun-app/internal/store"
)

// DefaultPassword is the password of users created by CreateUser.
const DefaultPassword = "foobar"

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary database with all migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "munapp-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
	}
}

// CreateUser inserts a user with DefaultPassword directly through the store.
func CreateUser(t *testing.T, db *sql.DB, alias, email string, admin bool) store.User {
	t.Helper()

	hash, err := auth.HashPassword(DefaultPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	now := time.Now().UTC()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Alias:        alias,
		AliasKey:     model.FoldKey(alias),
		Email:        email,
		EmailKey:     model.FoldKey(email),
		PasswordHash: hash,
		Admin:        admin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser(%q): %v", alias, err)
	}
	return user
}

// CreateConference inserts a conference owned by ownerID.
func CreateConference(t *testing.T, db *sql.DB, ownerID int64, title string) store.Conference {
	t.Helper()

	now := time.Now().UTC()
	conf, err := store.New(db).CreateConference(context.Background(), store.CreateConferenceParams{
		Title:     title,
		Date:      "March 2012",
		Location:  "New York",
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateConference(%q): %v", title, err)
	}
	return conf
}

// CreateAttendance inserts an attendance row.
func CreateAttendance(t *testing.T, db *sql.DB, userID, conferenceID int64) store.Attendance {
	t.Helper()

	now := time.Now().UTC()
	a, err := store.New(db).CreateAttendance(context.Background(), store.CreateAttendanceParams{
		UserID:       userID,
		ConferenceID: conferenceID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateAttendance(%d, %d): %v", userID, conferenceID, err)
	}
	return a
}
