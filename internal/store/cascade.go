// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
)

// CascadeResult counts the rows removed by a cascading delete.
type CascadeResult struct {
	Users       int64
	Conferences int64
	Attendances int64
}

// DeleteConferenceCascade removes a conference and its attendances.
// Callers run it inside a transaction.
func (q *Queries) DeleteConferenceCascade(ctx context.Context, conferenceID int64) (CascadeResult, error) {
	var res CascadeResult

	n, err := q.DeleteAttendancesByConference(ctx, conferenceID)
	if err != nil {
		return res, fmt.Errorf("deleting attendances of conference %d: %w", conferenceID, err)
	}
	res.Attendances = n

	n, err = q.DeleteConference(ctx, conferenceID)
	if err != nil {
		return res, fmt.Errorf("deleting conference %d: %w", conferenceID, err)
	}
	res.Conferences = n

	return res, nil
}

// DeleteUserCascade removes a user together with the conferences they own,
// the attendances of those conferences and their own attendances.
// Callers run it inside a transaction.
func (q *Queries) DeleteUserCascade(ctx context.Context, userID int64) (CascadeResult, error) {
	var res CascadeResult

	n, err := q.DeleteAttendancesByConferenceOwner(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("deleting attendances of owned conferences: %w", err)
	}
	res.Attendances += n

	n, err = q.DeleteConferencesByUser(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("deleting owned conferences: %w", err)
	}
	res.Conferences = n

	n, err = q.DeleteAttendancesByUser(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("deleting attendances: %w", err)
	}
	res.Attendances += n

	n, err = q.DeleteUser(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("deleting user %d: %w", userID, err)
	}
	res.Users = n

	return res, nil
}
