// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

import (
	"testing"
	"time"
)

func TestTemplateFuncs_FormatFunctions(t *testing.T) {
	funcs := TemplateFuncs()

	formatDate := funcs["formatDate"].(func(time.Time) string)
	testTime := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	if got := formatDate(testTime); got != "Mar 15, 2025" {
		t.Errorf("formatDate() = %q, want %q", got, "Mar 15, 2025")
	}

	formatDateTime := funcs["formatDateTime"].(func(time.Time) string)
	testTime = time.Date(2025, time.March, 15, 14, 30, 0, 0, time.UTC)
	if got := formatDateTime(testTime); got != "Mar 15, 2025 2:30 PM" {
		t.Errorf("formatDateTime() = %q, want %q", got, "Mar 15, 2025 2:30 PM")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"hello world", 5, "hello..."},
		{"hello", 5, "hello"},
		{"hello", 10, "hello"},
		{"", 5, ""},
		{"Généve conférence", 6, "Généve..."},
	}

	for _, tt := range tests {
		if got := Truncate(tt.input, tt.length); got != tt.expected {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.length, got, tt.expected)
		}
	}
}

func TestTemplateFuncs_MathFunctions(t *testing.T) {
	funcs := TemplateFuncs()

	add := funcs["add"].(func(int, int) int)
	if got := add(2, 3); got != 5 {
		t.Errorf("add(2, 3) = %d, want 5", got)
	}

	sub := funcs["sub"].(func(int, int) int)
	if got := sub(5, 3); got != 2 {
		t.Errorf("sub(5, 3) = %d, want 2", got)
	}

	seq := funcs["seq"].(func(int, int) []int)
	if got := seq(1, 3); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("seq(1, 3) = %v, want [1 2 3]", got)
	}
	if got := seq(3, 1); len(got) != 0 {
		t.Errorf("seq(3, 1) = %v, want empty", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.input); got != tt.expected {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestPluralize(t *testing.T) {
	tests := []struct {
		n        int64
		plural   []string
		expected string
	}{
		{0, nil, "0 attendees"},
		{1, nil, "1 attendee"},
		{2, nil, "2 attendees"},
		{2, []string{"people"}, "2 people"},
		{1, []string{"people"}, "1 attendee"},
	}

	for _, tt := range tests {
		if got := Pluralize(tt.n, "attendee", tt.plural...); got != tt.expected {
			t.Errorf("Pluralize(%d, %v) = %q, want %q", tt.n, tt.plural, got, tt.expected)
		}
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago      time.Duration
		expected string
	}{
		{10 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{3 * time.Hour, "3 hours ago"},
		{48 * time.Hour, "2 days ago"},
		{60 * 24 * time.Hour, "Jan 14, 2025"},
	}

	for _, tt := range tests {
		if got := TimeAgo(now.Add(-tt.ago), now); got != tt.expected {
			t.Errorf("TimeAgo(-%v) = %q, want %q", tt.ago, got, tt.expected)
		}
	}
}

func TestTemplateFuncs_Dict(t *testing.T) {
	dict := TemplateFuncs()["dict"].(func(...any) map[string]any)

	d := dict("Conference", 1, "Attending", true)
	if d["Conference"] != 1 || d["Attending"] != true {
		t.Errorf("dict() = %v", d)
	}
	if dict("odd") != nil {
		t.Error("dict with odd arguments should return nil")
	}
	if d := dict(1, "skipped", "kept", 2); len(d) != 1 || d["kept"] != 2 {
		t.Errorf("dict with non-string key = %v", d)
	}
}
