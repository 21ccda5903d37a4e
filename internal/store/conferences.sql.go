// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const conferenceColumns = `c.id, c.title, c.date, c.location, c.description, c.user_id, c.created_at, c.updated_at`

func scanConference(row rowScanner) (Conference, error) {
	var i Conference
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Date,
		&i.Location,
		&i.Description,
		&i.UserID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanConferenceWithOwner(row rowScanner) (ConferenceWithOwner, error) {
	var i ConferenceWithOwner
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Date,
		&i.Location,
		&i.Description,
		&i.UserID,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.OwnerAlias,
		&i.AttendeeCount,
	)
	return i, err
}

const createConference = `-- name: CreateConference :one
INSERT INTO conferences (title, date, location, description, user_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, title, date, location, description, user_id, created_at, updated_at`

type CreateConferenceParams struct {
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (q *Queries) CreateConference(ctx context.Context, arg CreateConferenceParams) (Conference, error) {
	row := q.db.QueryRowContext(ctx, createConference,
		arg.Title,
		arg.Date,
		arg.Location,
		arg.Description,
		arg.UserID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanConference(row)
}

const getConference = `-- name: GetConference :one
SELECT ` + conferenceColumns + ` FROM conferences c WHERE c.id = ?`

func (q *Queries) GetConference(ctx context.Context, id int64) (Conference, error) {
	return scanConference(q.db.QueryRowContext(ctx, getConference, id))
}

const getConferenceWithOwner = `-- name: GetConferenceWithOwner :one
SELECT ` + conferenceColumns + `, u.alias,
    (SELECT COUNT(*) FROM attendances a WHERE a.conference_id = c.id)
FROM conferences c
JOIN users u ON u.id = c.user_id
WHERE c.id = ?`

func (q *Queries) GetConferenceWithOwner(ctx context.Context, id int64) (ConferenceWithOwner, error) {
	return scanConferenceWithOwner(q.db.QueryRowContext(ctx, getConferenceWithOwner, id))
}

const listConferences = `-- name: ListConferences :many
SELECT ` + conferenceColumns + `, u.alias,
    (SELECT COUNT(*) FROM attendances a WHERE a.conference_id = c.id)
FROM conferences c
JOIN users u ON u.id = c.user_id
ORDER BY c.created_at DESC, c.id DESC
LIMIT ? OFFSET ?`

type ListConferencesParams struct {
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

func (q *Queries) ListConferences(ctx context.Context, arg ListConferencesParams) ([]ConferenceWithOwner, error) {
	rows, err := q.db.QueryContext(ctx, listConferences, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ConferenceWithOwner
	for rows.Next() {
		i, err := scanConferenceWithOwner(rows)
		if err != nil {
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

const listConferencesByUser = `-- name: ListConferencesByUser :many
SELECT ` + conferenceColumns + ` FROM conferences c WHERE c.user_id = ? ORDER BY c.created_at DESC, c.id DESC`

func (q *Queries) ListConferencesByUser(ctx context.Context, userID int64) ([]Conference, error) {
	rows, err := q.db.QueryContext(ctx, listConferencesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Conference
	for rows.Next() {
		i, err := scanConference(rows)
		if err != nil {
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

const countConferences = `-- name: CountConferences :one
SELECT COUNT(*) FROM conferences`

func (q *Queries) CountConferences(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countConferences)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateConference = `-- name: UpdateConference :one
UPDATE conferences SET title = ?, date = ?, location = ?, description = ?, updated_at = ?
WHERE id = ?
RETURNING id, title, date, location, description, user_id, created_at, updated_at`

type UpdateConferenceParams struct {
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
	ID          int64     `json:"id"`
}

func (q *Queries) UpdateConference(ctx context.Context, arg UpdateConferenceParams) (Conference, error) {
	row := q.db.QueryRowContext(ctx, updateConference,
		arg.Title,
		arg.Date,
		arg.Location,
		arg.Description,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanConference(row)
}

const deleteConference = `-- name: DeleteConference :execrows
DELETE FROM conferences WHERE id = ?`

func (q *Queries) DeleteConference(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteConference, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteConferencesByUser = `-- name: DeleteConferencesByUser :execrows
DELETE FROM conferences WHERE user_id = ?`

func (q *Queries) DeleteConferencesByUser(ctx context.Context, userID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteConferencesByUser, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
