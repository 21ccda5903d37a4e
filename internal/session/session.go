// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session wraps scs to mark requests as signed in. Tokens live in a
// cookie; the session data is stored server side in SQLite.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Session keys.
const (
	KeyUserID    = "user_id"
	KeyReturnTo  = "return_to"
	KeyFlash     = "flash"
	KeyFlashType = "flash_type"
)

// Manager is an scs session manager with the sign-in vocabulary of the app.
type Manager struct {
	*scs.SessionManager
}

// New creates a session manager backed by the sessions table in db.
func New(db *sql.DB, isDev bool) *Manager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev
	if !isDev {
		// __Host- cookies must be Secure, have Path=/ and no Domain.
		sm.Cookie.Name = "__Host-session"
		sm.Cookie.Path = "/"
	}

	return &Manager{SessionManager: sm}
}

// SignIn binds userID to the session. The token is renewed first so a token
// planted before sign in is worthless afterwards.
func (m *Manager) SignIn(ctx context.Context, userID int64) error {
	if err := m.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	m.Put(ctx, KeyUserID, userID)
	return nil
}

// SignOut destroys the session and its stored data.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.Destroy(ctx); err != nil {
		return fmt.Errorf("destroying session: %w", err)
	}
	return nil
}

// CurrentUserID returns the signed-in user id, or 0 for anonymous sessions.
func (m *Manager) CurrentUserID(ctx context.Context) int64 {
	return m.GetInt64(ctx, KeyUserID)
}

// SetReturnTo remembers where to send the caller after sign in.
func (m *Manager) SetReturnTo(ctx context.Context, path string) {
	if safeLocalPath(path) {
		m.Put(ctx, KeyReturnTo, path)
	}
}

// PopReturnTo returns and clears the remembered location, or fallback.
func (m *Manager) PopReturnTo(ctx context.Context, fallback string) string {
	path := m.PopString(ctx, KeyReturnTo)
	if !safeLocalPath(path) {
		return fallback
	}
	return path
}

// SetFlash stores a one-shot message shown on the next rendered page.
func (m *Manager) SetFlash(ctx context.Context, msg, flashType string) {
	m.Put(ctx, KeyFlash, msg)
	m.Put(ctx, KeyFlashType, flashType)
}

// PopFlash returns and clears the pending flash message.
func (m *Manager) PopFlash(ctx context.Context) (msg, flashType string) {
	return m.PopString(ctx, KeyFlash), m.PopString(ctx, KeyFlashType)
}

func safeLocalPath(path string) bool {
	return strings.HasPrefix(path, "/") &&
		!strings.HasPrefix(path, "//") &&
		!strings.HasPrefix(path, "/\\")
}
