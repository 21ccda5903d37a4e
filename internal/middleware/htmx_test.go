// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRedirect(t *testing.T) {
	t.Run("browser", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Redirect(rec, httptest.NewRequest(http.MethodPost, "/conferences", nil), "/conferences/1")
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/conferences/1" {
			t.Errorf("got %d %q", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("htmx", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/conferences", nil)
		req.Header.Set(HeaderHXRequest, "true")
		rec := httptest.NewRecorder()
		Redirect(rec, req, "/conferences/1")
		if rec.Code != http.StatusOK || rec.Header().Get(HeaderHXRedirect) != "/conferences/1" {
			t.Errorf("got %d HX-Redirect=%q", rec.Code, rec.Header().Get(HeaderHXRedirect))
		}
		if rec.Header().Get("Location") != "" {
			t.Error("htmx redirect must not set Location")
		}
	})
}

func TestSetToast(t *testing.T) {
	rec := httptest.NewRecorder()
	SetToast(rec, `Conference "HMUN" deleted`, "success")

	var payload struct {
		ShowToast struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"showToast"`
	}
	if err := json.Unmarshal([]byte(rec.Header().Get(HeaderHXTrigger)), &payload); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	if payload.ShowToast.Message != `Conference "HMUN" deleted` || payload.ShowToast.Type != "success" {
		t.Errorf("payload = %+v", payload.ShowToast)
	}
}

func TestStripTrailingSlash(t *testing.T) {
	handler := StripTrailingSlash(okHandler())

	tests := []struct {
		method   string
		path     string
		wantCode int
		wantLoc  string
	}{
		{http.MethodGet, "/", http.StatusOK, ""},
		{http.MethodGet, "/conferences", http.StatusOK, ""},
		{http.MethodGet, "/conferences/", http.StatusMovedPermanently, "/conferences"},
		{http.MethodGet, "/users/?page=2", http.StatusMovedPermanently, "/users?page=2"},
		{http.MethodPost, "/attendances/", http.StatusPermanentRedirect, "/attendances"},
		{http.MethodGet, "//evil.example/", http.StatusMovedPermanently, "/"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if got := rec.Header().Get("Location"); got != tt.wantLoc {
				t.Errorf("Location = %q, want %q", got, tt.wantLoc)
			}
		})
	}
}
