// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that also persists WARN and ERROR
// records into the audit event log.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/seechoy/mun-app/internal/authz"
	"github.com/seechoy/mun-app/internal/middleware"
	"github.com/seechoy/mun-app/internal/model"
	"github.com/seechoy/mun-app/internal/store"
)

// Attribute keys with a meaning for the event log.
const (
	AttrCategory = "category"
	AttrUserID   = "user_id"
)

const writeTimeout = 2 * time.Second

// EventLogHandler is a slog.Handler that wraps another handler and also
// writes records at or above its level to the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
	group   string
}

// NewEventLogHandler creates an EventLogHandler that persists WARN and above.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates an EventLogHandler with a custom
// minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.writeToEventLog(ctx, r)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithAttrs(attrs)
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), h.qualify(attrs)...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.inner = h.inner.WithGroup(name)
	clone.group = h.prefixed(name)
	return &clone
}

func (h *EventLogHandler) prefixed(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *EventLogHandler) qualify(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, slog.Attr{Key: h.prefixed(a.Key), Value: a.Value})
	}
	return out
}

// writeToEventLog stores r. Request details come from ctx; the write itself
// uses a fresh context so a cancelled request still gets logged.
func (h *EventLogHandler) writeToEventLog(ctx context.Context, r slog.Record) {
	attrs := h.recordAttrs(r)
	category, userID, metadata := splitAttrs(attrs)

	if category == "" {
		category = inferCategory(r.Message)
	}
	if !userID.Valid {
		if c := authz.FromContext(ctx); c.SignedIn() {
			userID = sql.NullInt64{Int64: c.ID, Valid: true}
		}
	}
	if path := middleware.GetRequestPath(ctx); path != "" {
		metadata["path"] = path
	}

	metadataJSON := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	created := r.Time.UTC()
	if r.Time.IsZero() {
		created = time.Now().UTC()
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	_, _ = h.queries.CreateEvent(writeCtx, store.CreateEventParams{
		Level:     slogLevelToEventLevel(r.Level),
		Category:  category,
		Message:   r.Message,
		UserID:    userID,
		RequestID: chimw.GetReqID(ctx),
		Metadata:  metadataJSON,
		CreatedAt: created,
	})
}

func (h *EventLogHandler) recordAttrs(r slog.Record) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, slog.Attr{Key: h.prefixed(a.Key), Value: a.Value})
		return true
	})
	return attrs
}

// splitAttrs pulls the category and user id out of attrs and returns the
// rest as metadata. Group values are flattened with dotted keys.
func splitAttrs(attrs []slog.Attr) (category string, userID sql.NullInt64, metadata map[string]any) {
	metadata = make(map[string]any, len(attrs))
	var walk func(prefix string, attrs []slog.Attr)
	walk = func(prefix string, attrs []slog.Attr) {
		for _, a := range attrs {
			key := a.Key
			if prefix != "" {
				key = prefix + "." + key
			}
			v := a.Value.Resolve()
			switch {
			case v.Kind() == slog.KindGroup:
				walk(key, v.Group())
			case key == AttrCategory:
				category = v.String()
			case key == AttrUserID && v.Kind() == slog.KindInt64:
				userID = sql.NullInt64{Int64: v.Int64(), Valid: v.Int64() != 0}
			default:
				metadata[key] = attrValue(v)
			}
		}
	}
	walk("", attrs)
	return category, userID, metadata
}

func attrValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	default:
		return v.String()
	}
}

// inferCategory guesses a category from the message.
func inferCategory(message string) string {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "csrf") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "denied") || strings.Contains(msg, "locked"):
		return model.EventCategorySecurity
	case strings.Contains(msg, "sign in") || strings.Contains(msg, "sign out") ||
		strings.Contains(msg, "session") || strings.Contains(msg, "password"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "attend"):
		return model.EventCategoryAttendance
	case strings.Contains(msg, "conference"):
		return model.EventCategoryConference
	case strings.Contains(msg, "user"):
		return model.EventCategoryUser
	default:
		return model.EventCategorySystem
	}
}

func slogLevelToEventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}
