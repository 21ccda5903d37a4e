// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/seechoy/mun-app/internal/authz"
	"github.com/seechoy/mun-app/internal/middleware"
	"github.com/seechoy/mun-app/internal/model"
	"github.com/seechoy/mun-app/internal/store"
	"github.com/seechoy/mun-app/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func newTestLogger(t *testing.T) (*slog.Logger, *sql.DB) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	return slog.New(NewEventLogHandler(discardHandler{}, db)), db
}

func listEvents(t *testing.T, db *sql.DB) []store.Event {
	t.Helper()
	events, err := store.New(db).ListEvents(context.Background(), store.ListEventsParams{Limit: 50})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	return events
}

func onlyEvent(t *testing.T, db *sql.DB) store.Event {
	t.Helper()
	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	return events[0]
}

func metadataOf(t *testing.T, e store.Event) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(e.Metadata), &m); err != nil {
		t.Fatalf("metadata %q is not JSON: %v", e.Metadata, err)
	}
	return m
}

func TestEventLogHandler_Levels(t *testing.T) {
	tests := []struct {
		name      string
		log       func(*slog.Logger)
		wantLevel string
	}{
		{"error", func(l *slog.Logger) { l.Error("database connection failed") }, model.EventLevelError},
		{"warn", func(l *slog.Logger) { l.Warn("slow query") }, model.EventLevelWarning},
		{"info", func(l *slog.Logger) { l.Info("server started") }, ""},
		{"debug", func(l *slog.Logger) { l.Debug("tick") }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, db := newTestLogger(t)
			tt.log(logger)

			events := listEvents(t, db)
			if tt.wantLevel == "" {
				if len(events) != 0 {
					t.Errorf("got %d events, want none", len(events))
				}
				return
			}
			if len(events) != 1 || events[0].Level != tt.wantLevel {
				t.Fatalf("events = %+v, want one %s event", events, tt.wantLevel)
			}
		})
	}
}

func TestEventLogHandler_CustomLevel(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, db, slog.LevelError))
	logger.Warn("ignored")
	logger.Error("stored")

	if e := onlyEvent(t, db); e.Message != "stored" {
		t.Errorf("Message = %q, want stored", e.Message)
	}
}

func TestEventLogHandler_CategoryInference(t *testing.T) {
	tests := []struct {
		message  string
		expected string
	}{
		{"CSRF validation failed", model.EventCategorySecurity},
		{"sign in rate limit exceeded", model.EventCategorySecurity},
		{"account locked due to failed sign in attempts", model.EventCategorySecurity},
		{"failed to upgrade password hash", model.EventCategoryAuth},
		{"failed to load session user", model.EventCategoryAuth},
		{"failed to record attendance", model.EventCategoryAttendance},
		{"conference update failed", model.EventCategoryConference},
		{"user destroy failed", model.EventCategoryUser},
		{"disk almost full", model.EventCategorySystem},
	}

	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			logger, db := newTestLogger(t)
			logger.Warn(tc.message)

			if e := onlyEvent(t, db); e.Category != tc.expected {
				t.Errorf("Category = %q, want %q", e.Category, tc.expected)
			}
		})
	}
}

func TestEventLogHandler_ExplicitCategoryAndUser(t *testing.T) {
	logger, db := newTestLogger(t)
	logger.Error("something happened", AttrCategory, model.EventCategoryConference, AttrUserID, int64(42))

	e := onlyEvent(t, db)
	if e.Category != model.EventCategoryConference {
		t.Errorf("Category = %q, want %q", e.Category, model.EventCategoryConference)
	}
	if !e.UserID.Valid || e.UserID.Int64 != 42 {
		t.Errorf("UserID = %+v, want 42", e.UserID)
	}
	m := metadataOf(t, e)
	if _, ok := m[AttrCategory]; ok {
		t.Error("category should not be repeated in metadata")
	}
}

func TestEventLogHandler_Metadata(t *testing.T) {
	logger, db := newTestLogger(t)
	logger.Error("query failed",
		"table", "conferences",
		"rows", 3,
		"retry", false,
		"detail", "quote \" and\nnewline",
		slog.Group("db", "path", "munapp.db"),
	)

	m := metadataOf(t, onlyEvent(t, db))
	if m["table"] != "conferences" {
		t.Errorf("table = %v", m["table"])
	}
	if m["rows"] != float64(3) {
		t.Errorf("rows = %v, want 3", m["rows"])
	}
	if m["retry"] != false {
		t.Errorf("retry = %v, want false", m["retry"])
	}
	if m["detail"] != "quote \" and\nnewline" {
		t.Errorf("detail = %q", m["detail"])
	}
	if m["db.path"] != "munapp.db" {
		t.Errorf("db.path = %v", m["db.path"])
	}
}

func TestEventLogHandler_NoAttrs(t *testing.T) {
	logger, db := newTestLogger(t)
	logger.Warn("bare")

	if e := onlyEvent(t, db); e.Metadata != "{}" {
		t.Errorf("Metadata = %q, want {}", e.Metadata)
	}
}

func TestEventLogHandler_WithAttrsAndGroup(t *testing.T) {
	logger, db := newTestLogger(t)
	logger.With("component", "scheduler").WithGroup("job").Warn("job slow", "name", "prune_events")

	m := metadataOf(t, onlyEvent(t, db))
	if m["component"] != "scheduler" {
		t.Errorf("component = %v, want scheduler", m["component"])
	}
	if m["job.name"] != "prune_events" {
		t.Errorf("job.name = %v, want prune_events", m["job.name"])
	}
}

func TestEventLogHandler_RequestContext(t *testing.T) {
	logger, db := newTestLogger(t)

	handler := middleware.RequestID(middleware.RequestPath(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := authz.NewContext(r.Context(), authz.Caller{ID: 7})
		logger.ErrorContext(ctx, "render failed")
	})))
	req := httptest.NewRequest(http.MethodGet, "/conferences/3", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	e := onlyEvent(t, db)
	if e.RequestID != "req-123" {
		t.Errorf("RequestID = %q, want req-123", e.RequestID)
	}
	if !e.UserID.Valid || e.UserID.Int64 != 7 {
		t.Errorf("UserID = %+v, want 7", e.UserID)
	}
	if m := metadataOf(t, e); m["path"] != "/conferences/3" {
		t.Errorf("path = %v, want /conferences/3", m["path"])
	}
}

func TestEventLogHandler_CancelledContextStillLogs(t *testing.T) {
	logger, db := newTestLogger(t)

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), chimw.RequestIDKey, "gone"))
	cancel()
	logger.ErrorContext(ctx, "client went away")

	if e := onlyEvent(t, db); e.RequestID != "gone" {
		t.Errorf("RequestID = %q, want gone", e.RequestID)
	}
}

func TestSlogLevelToEventLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, model.EventLevelInfo},
		{slog.LevelInfo, model.EventLevelInfo},
		{slog.LevelWarn, model.EventLevelWarning},
		{slog.LevelError, model.EventLevelError},
		{slog.LevelError + 4, model.EventLevelError},
	}

	for _, tt := range tests {
		if got := slogLevelToEventLevel(tt.level); got != tt.want {
			t.Errorf("slogLevelToEventLevel(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}
