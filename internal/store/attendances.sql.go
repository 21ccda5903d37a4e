// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const attendanceColumns = `id, user_id, conference_id, country, created_at, updated_at`

func scanAttendance(row rowScanner) (Attendance, error) {
	var i Attendance
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.ConferenceID,
		&i.Country,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createAttendance = `-- name: CreateAttendance :one
INSERT INTO attendances (user_id, conference_id, country, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + attendanceColumns

type CreateAttendanceParams struct {
	UserID       int64     `json:"user_id"`
	ConferenceID int64     `json:"conference_id"`
	Country      string    `json:"country"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (q *Queries) CreateAttendance(ctx context.Context, arg CreateAttendanceParams) (Attendance, error) {
	row := q.db.QueryRowContext(ctx, createAttendance,
		arg.UserID,
		arg.ConferenceID,
		arg.Country,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanAttendance(row)
}

const getAttendance = `-- name: GetAttendance :one
SELECT ` + attendanceColumns + ` FROM attendances WHERE id = ?`

func (q *Queries) GetAttendance(ctx context.Context, id int64) (Attendance, error) {
	return scanAttendance(q.db.QueryRowContext(ctx, getAttendance, id))
}

const getAttendanceByUserAndConference = `-- name: GetAttendanceByUserAndConference :one
SELECT ` + attendanceColumns + ` FROM attendances WHERE user_id = ? AND conference_id = ?`

func (q *Queries) GetAttendanceByUserAndConference(ctx context.Context, userID, conferenceID int64) (Attendance, error) {
	return scanAttendance(q.db.QueryRowContext(ctx, getAttendanceByUserAndConference, userID, conferenceID))
}

const countAttendancesByConference = `-- name: CountAttendancesByConference :one
SELECT COUNT(*) FROM attendances WHERE conference_id = ?`

func (q *Queries) CountAttendancesByConference(ctx context.Context, conferenceID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countAttendancesByConference, conferenceID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listAttendeesByConference = `-- name: ListAttendeesByConference :many
SELECT a.id, u.id, u.alias, a.country, a.created_at
FROM attendances a
JOIN users u ON u.id = a.user_id
WHERE a.conference_id = ?
ORDER BY a.created_at, a.id`

func (q *Queries) ListAttendeesByConference(ctx context.Context, conferenceID int64) ([]Attendee, error) {
	rows, err := q.db.QueryContext(ctx, listAttendeesByConference, conferenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Attendee
	for rows.Next() {
		var i Attendee
		if err := rows.Scan(
			&i.AttendanceID,
			&i.UserID,
			&i.Alias,
			&i.Country,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listAttendedConferences = `-- name: ListAttendedConferences :many
SELECT a.id, c.id, c.title, c.date, c.location, a.country
FROM attendances a
JOIN conferences c ON c.id = a.conference_id
WHERE a.user_id = ?
ORDER BY a.created_at DESC, a.id DESC`

func (q *Queries) ListAttendedConferences(ctx context.Context, userID int64) ([]AttendedConference, error) {
	rows, err := q.db.QueryContext(ctx, listAttendedConferences, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AttendedConference
	for rows.Next() {
		var i AttendedConference
		if err := rows.Scan(
			&i.AttendanceID,
			&i.ConferenceID,
			&i.Title,
			&i.Date,
			&i.Location,
			&i.Country,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteAttendanceByUserAndConference = `-- name: DeleteAttendanceByUserAndConference :execrows
DELETE FROM attendances WHERE user_id = ? AND conference_id = ?`

func (q *Queries) DeleteAttendanceByUserAndConference(ctx context.Context, userID, conferenceID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAttendanceByUserAndConference, userID, conferenceID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteAttendancesByConference = `-- name: DeleteAttendancesByConference :execrows
DELETE FROM attendances WHERE conference_id = ?`

func (q *Queries) DeleteAttendancesByConference(ctx context.Context, conferenceID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAttendancesByConference, conferenceID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteAttendancesByUser = `-- name: DeleteAttendancesByUser :execrows
DELETE FROM attendances WHERE user_id = ?`

func (q *Queries) DeleteAttendancesByUser(ctx context.Context, userID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAttendancesByUser, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteAttendancesByConferenceOwner = `-- name: DeleteAttendancesByConferenceOwner :execrows
DELETE FROM attendances
WHERE conference_id IN (SELECT id FROM conferences WHERE user_id = ?)`

func (q *Queries) DeleteAttendancesByConferenceOwner(ctx context.Context, ownerID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAttendancesByConferenceOwner, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
