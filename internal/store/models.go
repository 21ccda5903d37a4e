// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64        `json:"id"`
	Alias        string       `json:"alias"`
	AliasKey     string       `json:"-"`
	Email        string       `json:"email"`
	EmailKey     string       `json:"-"`
	PasswordHash string       `json:"-"`
	Admin        bool         `json:"admin"`
	LastLoginAt  sql.NullTime `json:"last_login_at"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type Conference struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ConferenceWithOwner is a conference row joined with its owner's alias.
type ConferenceWithOwner struct {
	Conference
	OwnerAlias    string `json:"owner_alias"`
	AttendeeCount int64  `json:"attendee_count"`
}

type Attendance struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	ConferenceID int64     `json:"conference_id"`
	Country      string    `json:"country"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Attendee is an attendance row joined with the attending user.
type Attendee struct {
	AttendanceID int64     `json:"attendance_id"`
	UserID       int64     `json:"user_id"`
	Alias        string    `json:"alias"`
	Country      string    `json:"country"`
	CreatedAt    time.Time `json:"created_at"`
}

// AttendedConference is an attendance row joined with its conference.
type AttendedConference struct {
	AttendanceID int64  `json:"attendance_id"`
	ConferenceID int64  `json:"conference_id"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	Location     string `json:"location"`
	Country      string `json:"country"`
}

type Event struct {
	ID        int64         `json:"id"`
	Level     string        `json:"level"`
	Category  string        `json:"category"`
	Message   string        `json:"message"`
	UserID    sql.NullInt64 `json:"user_id"`
	IpAddress string        `json:"ip_address"`
	UserAgent string        `json:"user_agent"`
	RequestID string        `json:"request_id"`
	Metadata  string        `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}
