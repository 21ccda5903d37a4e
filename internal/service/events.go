// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mileusna/useragent"

	"github.com/seechoy/mun-app/internal/model"
	"github.com/seechoy/mun-app/internal/store"
)

const maxUserAgentLength = 512

// RequestMeta identifies the request an audit event came from.
type RequestMeta struct {
	IP        string
	UserAgent string
	RequestID string
}

// EventService writes the audit log.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{
		queries: store.New(db),
	}
}

// LogEvent stores an audit event. userID 0 means no user. Browser and OS
// parsed from the user agent are added to metadata.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, userID int64, meta RequestMeta, metadata map[string]any) error {
	var nullUserID sql.NullInt64
	if userID != 0 {
		nullUserID = sql.NullInt64{Int64: userID, Valid: true}
	}

	if meta.UserAgent != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		ua := useragent.Parse(meta.UserAgent)
		metadata["browser"] = ua.Name
		metadata["os"] = ua.OS
		metadata["device"] = deviceType(ua)
	}

	metadataJSON := "{}"
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	uaString := meta.UserAgent
	if len(uaString) > maxUserAgentLength {
		uaString = uaString[:maxUserAgentLength]
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    nullUserID,
		IpAddress: meta.IP,
		UserAgent: uaString,
		RequestID: meta.RequestID,
		Metadata:  metadataJSON,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to log event", "category", category, "error", err)
		return fmt.Errorf("creating event: %w", err)
	}
	return nil
}

// LogAuthEvent logs a sign-in related event.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message string, userID int64, meta RequestMeta, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, userID, meta, metadata)
}

// LogUserEvent logs an account event.
func (s *EventService) LogUserEvent(ctx context.Context, level, message string, userID int64, meta RequestMeta, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryUser, message, userID, meta, metadata)
}

// LogConferenceEvent logs a conference directory event.
func (s *EventService) LogConferenceEvent(ctx context.Context, level, message string, userID int64, meta RequestMeta, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryConference, message, userID, meta, metadata)
}

// LogSecurityEvent logs a denied or throttled request.
func (s *EventService) LogSecurityEvent(ctx context.Context, message string, userID int64, meta RequestMeta, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelWarning, model.EventCategorySecurity, message, userID, meta, metadata)
}

// Recent returns the newest events.
func (s *EventService) Recent(ctx context.Context, limit int) ([]store.Event, error) {
	events, err := s.queries.ListEvents(ctx, store.ListEventsParams{Limit: int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// DeleteOldEvents removes events older than olderThan and returns how many
// were removed.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	n, err := s.queries.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting old events: %w", err)
	}
	return n, nil
}

func deviceType(ua useragent.UserAgent) string {
	switch {
	case ua.Bot:
		return "bot"
	case ua.Tablet:
		return "tablet"
	case ua.Mobile:
		return "mobile"
	case ua.Desktop:
		return "desktop"
	default:
		return "unknown"
	}
}
