// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/seechoy/mun-app/internal/auth"
	"github.com/seechoy/mun-app/internal/model"
)

// AdminSeed describes the administrator created on first start.
type AdminSeed struct {
	Alias    string
	Email    string
	Password string
}

// SeedAdmin creates the configured administrator unless a user with the same
// email already exists. Signup never grants the admin flag, so this is the
// only way an installation gets its first admin.
func SeedAdmin(ctx context.Context, db *sql.DB, seed AdminSeed) error {
	queries := New(db)
	emailKey := model.FoldKey(seed.Email)

	_, err := queries.GetUserByEmailKey(ctx, emailKey)
	if err == nil {
		slog.Info("admin user already exists, skipping seed", "email", seed.Email)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(seed.Password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Alias:        seed.Alias,
		AliasKey:     model.FoldKey(seed.Alias),
		Email:        seed.Email,
		EmailKey:     emailKey,
		PasswordHash: passwordHash,
		Admin:        true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created admin user", "id", user.ID, "alias", user.Alias, "email", user.Email)
	return nil
}
