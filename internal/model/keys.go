// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// FoldKey returns the comparison key used by the case-insensitive unique
// indexes on alias and email.
func FoldKey(s string) string {
	return folder.String(norm.NFKC.String(s))
}

// EmailKey is FoldKey of an email as typed into a form: surrounding
// whitespace does not make a different account. Sign in, its lockout
// counter and the stored email_key all agree on this key.
func EmailKey(email string) string {
	return FoldKey(strings.TrimSpace(email))
}
