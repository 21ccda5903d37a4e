// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package uikit provides reusable template helpers and pagination logic for
// the HTML views.
package uikit

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// TemplateFuncs returns a template.FuncMap with pure helper functions.
// Callers can merge project-specific functions on top.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"lower":     strings.ToLower,
		"upper":     strings.ToUpper,
		"hasPrefix": strings.HasPrefix,
		"truncate":  Truncate,

		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"seq": func(start, end int) []int {
			var result []int
			for i := start; i <= end; i++ {
				result = append(result, i)
			}
			return result
		},

		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 3:04 PM")
		},
		"timeAgo": func(t time.Time) string {
			return TimeAgo(t, time.Now())
		},

		"formatNumber": FormatNumber,
		"pluralize":    Pluralize,

		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				dict[key] = values[i+1]
			}
			return dict
		},
	}
}

// Truncate shortens s to length runes and appends "...".
func Truncate(s string, length int) string {
	if utf8.RuneCountInString(s) <= length {
		return s
	}
	return string([]rune(s)[:length]) + "..."
}

// FormatNumber groups the digits of n in threes.
func FormatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	var result strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}
	return sign + result.String()
}

// Pluralize returns "1 attendee" or "3 attendees". plural defaults to
// singular + "s".
func Pluralize(n int64, singular string, plural ...string) string {
	word := singular
	if n != 1 {
		if len(plural) > 0 {
			word = plural[0]
		} else {
			word = singular + "s"
		}
	}
	return fmt.Sprintf("%d %s", n, word)
}

// TimeAgo describes how long before now t was, at a coarse resolution.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return Pluralize(int64(d/time.Minute), "minute") + " ago"
	case d < 24*time.Hour:
		return Pluralize(int64(d/time.Hour), "hour") + " ago"
	case d < 30*24*time.Hour:
		return Pluralize(int64(d/(24*time.Hour)), "day") + " ago"
	default:
		return t.Format("Jan 2, 2006")
	}
}
