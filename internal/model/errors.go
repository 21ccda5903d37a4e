// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"sort"
	"strings"
)

// FieldErrors maps a form field to its first error message.
type FieldErrors map[string]string

// Add records msg for field unless the field already has an error.
func (e FieldErrors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Any reports whether at least one field failed.
func (e FieldErrors) Any() bool {
	return len(e) > 0
}

// String joins the messages in field order.
func (e FieldErrors) String() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, e[f])
	}
	return strings.Join(msgs, "; ")
}
