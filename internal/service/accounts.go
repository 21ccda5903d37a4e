// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the application's use cases: accounts, the
// conference directory, the attendance ledger and the audit log. Every
// mutating operation takes the caller explicitly and consults authz.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/seechoy/mun-app/internal/auth"
	"github.com/seechoy/mun-app/internal/authz"
	"github.com/seechoy/mun-app/internal/cache"
	"github.com/seechoy/mun-app/internal/model"
	"github.com/seechoy/mun-app/internal/store"
)

// Accounts is the credential store: registration, verification, profile
// edits and admin-only removal.
type Accounts struct {
	db      *sql.DB
	queries *store.Queries
	counts  *cache.Counts
}

// NewAccounts creates an Accounts service. counts may be nil.
func NewAccounts(db *sql.DB, counts *cache.Counts) *Accounts {
	return &Accounts{
		db:      db,
		queries: store.New(db),
		counts:  counts,
	}
}

// Register validates in and creates a non-admin user.
func (s *Accounts) Register(ctx context.Context, in model.RegistrationInput) (store.User, error) {
	in = in.Normalize()
	errs := model.ValidateRegistration(in)

	aliasKey := model.FoldKey(in.Alias)
	emailKey := model.FoldKey(in.Email)
	if err := s.checkTaken(ctx, errs, 0, aliasKey, emailKey); err != nil {
		return store.User{}, err
	}
	if errs.Any() {
		return store.User{}, invalid(errs)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return store.User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Alias:        in.Alias,
		AliasKey:     aliasKey,
		Email:        in.Email,
		EmailKey:     emailKey,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return store.User{}, invalid(takenFields(err))
		}
		return store.User{}, fmt.Errorf("creating user: %w", err)
	}

	s.counts.Invalidate(ctx, cache.KeyUserCount)
	return user, nil
}

// Verify checks an email/password pair. ok is false for an unknown email or
// a wrong password; err is only set for storage failures.
func (s *Accounts) Verify(ctx context.Context, email, password string) (user store.User, ok bool, err error) {
	emailKey := model.EmailKey(email)
	user, err = s.queries.GetUserByEmailKey(ctx, emailKey)
	if errors.Is(err, sql.ErrNoRows) {
		auth.CompareDummy(password)
		return store.User{}, false, nil
	}
	if err != nil {
		return store.User{}, false, fmt.Errorf("loading user: %w", err)
	}

	ok, err = auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		return store.User{}, false, fmt.Errorf("checking password for user %d: %w", user.ID, err)
	}
	if !ok {
		return store.User{}, false, nil
	}

	now := time.Now().UTC()
	if auth.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user.ID, password, now)
	}
	if err := s.queries.UpdateUserLastLogin(ctx, user.ID, now); err != nil {
		slog.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}

	return user, true, nil
}

func (s *Accounts) rehash(ctx context.Context, userID int64, password string, now time.Time) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		err = s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
			PasswordHash: hash,
			UpdatedAt:    now,
			ID:           userID,
		})
	}
	if err != nil {
		slog.Warn("failed to upgrade password hash", "user_id", userID, "error", err)
	}
}

// Get returns the user with id.
func (s *Accounts) Get(ctx context.Context, id int64) (store.User, error) {
	user, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return store.User{}, notFound(err, "user")
	}
	return user, nil
}

// List returns one page of users ordered by id.
func (s *Accounts) List(ctx context.Context, page int) ([]store.User, error) {
	users, err := s.queries.ListUsers(ctx, store.ListUsersParams{
		Limit:  model.UsersPerPage,
		Offset: offset(page, model.UsersPerPage),
	})
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Count returns the number of users.
func (s *Accounts) Count(ctx context.Context) (int64, error) {
	return s.counts.GetOrLoad(ctx, cache.KeyUserCount, s.queries.CountUsers)
}

// UpdateProfile lets a user change their own alias, email and, when given,
// password.
func (s *Accounts) UpdateProfile(ctx context.Context, caller authz.Caller, id int64, in model.ProfileInput) (store.User, error) {
	if d := authz.ProfileWrite(caller, id); !d.Allowed {
		return store.User{}, denied(d)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return store.User{}, err
	}

	in = in.Normalize()
	errs := model.ValidateProfile(in)
	aliasKey := model.FoldKey(in.Alias)
	emailKey := model.FoldKey(in.Email)
	if err := s.checkTaken(ctx, errs, id, aliasKey, emailKey); err != nil {
		return store.User{}, err
	}
	if errs.Any() {
		return store.User{}, invalid(errs)
	}

	var hash string
	if in.ChangesPassword() {
		var err error
		if hash, err = auth.HashPassword(in.Password); err != nil {
			return store.User{}, fmt.Errorf("hashing password: %w", err)
		}
	}

	var updated store.User
	now := time.Now().UTC()
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		updated, err = q.UpdateUser(ctx, store.UpdateUserParams{
			Alias:     in.Alias,
			AliasKey:  aliasKey,
			Email:     in.Email,
			EmailKey:  emailKey,
			UpdatedAt: now,
			ID:        id,
		})
		if err != nil {
			return err
		}
		if hash == "" {
			return nil
		}
		return q.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
			PasswordHash: hash,
			UpdatedAt:    now,
			ID:           id,
		})
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return store.User{}, invalid(takenFields(err))
		}
		return store.User{}, fmt.Errorf("updating user %d: %w", id, err)
	}
	return updated, nil
}

// Destroy removes targetID and everything that depends on it. Only admins
// may destroy users; an admin destroying themself is a no-op and reports
// destroyed=false without an error.
func (s *Accounts) Destroy(ctx context.Context, caller authz.Caller, targetID int64) (destroyed bool, err error) {
	if d := authz.UserDestroy(caller); !d.Allowed {
		return false, denied(d)
	}
	if !authz.CanDestroyUser(caller, targetID) {
		return false, nil
	}
	if _, err := s.Get(ctx, targetID); err != nil {
		return false, err
	}

	var res store.CascadeResult
	err = store.InTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		res, err = q.DeleteUserCascade(ctx, targetID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("destroying user %d: %w", targetID, err)
	}

	s.counts.Invalidate(ctx, cache.KeyUserCount, cache.KeyConferenceCount)
	slog.Info("user destroyed",
		"user_id", targetID,
		"by", caller.ID,
		"conferences", res.Conferences,
		"attendances", res.Attendances,
	)
	return res.Users > 0, nil
}

// checkTaken adds alias/email errors when another user already holds the
// folded key. Fields that already failed validation are skipped.
func (s *Accounts) checkTaken(ctx context.Context, errs model.FieldErrors, selfID int64, aliasKey, emailKey string) error {
	if _, failed := errs["alias"]; !failed {
		u, err := s.queries.GetUserByAliasKey(ctx, aliasKey)
		switch {
		case err == nil && u.ID != selfID:
			errs.Add("alias", "Alias has already been taken")
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("checking alias: %w", err)
		}
	}
	if _, failed := errs["email"]; !failed {
		u, err := s.queries.GetUserByEmailKey(ctx, emailKey)
		switch {
		case err == nil && u.ID != selfID:
			errs.Add("email", "Email has already been taken")
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("checking email: %w", err)
		}
	}
	return nil
}

func takenFields(err error) model.FieldErrors {
	errs := model.FieldErrors{}
	switch store.UniqueViolationColumn(err) {
	case "users.alias_key":
		errs.Add("alias", "Alias has already been taken")
	case "users.email_key":
		errs.Add("email", "Email has already been taken")
	default:
		errs.Add("base", "That record already exists")
	}
	return errs
}
