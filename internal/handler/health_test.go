// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seechoy/mun-app/internal/authz"
	"github.com/seechoy/mun-app/internal/scheduler"
	"github.com/seechoy/mun-app/internal/service"
	"github.com/seechoy/mun-app/internal/testutil"
	"github.com/seechoy/mun-app/internal/version"
)

type fakeGeoIP bool

func (f fakeGeoIP) Enabled() bool { return bool(f) }

func newTestHealthHandler(t *testing.T) *HealthHandler {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	sched := scheduler.New(testutil.DiscardLogger())
	if err := sched.Add("noop", "does nothing", "0 3 * * *", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Add: %v", err)
	}

	return NewHealthHandler(HealthConfig{
		DB:        db,
		CacheKind: "memory",
		GeoIP:     fakeGeoIP(true),
		Scheduler: sched,
		Events:    service.NewEventService(db),
		Version:   version.Info{Version: "v1.2.3"},
	})
}

func healthRequest(path string, caller authz.Caller) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return req.WithContext(authz.NewContext(req.Context(), caller))
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp
}

func TestHealthHandler_Health_Public(t *testing.T) {
	h := newTestHealthHandler(t)

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assertStatus(t, w.Code, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q; want application/json", ct)
	}

	resp := decodeJSON(t, w)
	if resp["status"] != "healthy" {
		t.Errorf("status = %v; want healthy", resp["status"])
	}
	for _, field := range []string{"uptime", "version", "checks", "jobs"} {
		if _, ok := resp[field]; ok {
			t.Errorf("public response should not contain %q", field)
		}
	}
}

func TestHealthHandler_Health_SignedIn(t *testing.T) {
	h := newTestHealthHandler(t)

	w := httptest.NewRecorder()
	h.Health(w, healthRequest("/health", authz.Caller{ID: 2, Alias: "ROBMAN"}))

	resp := decodeJSON(t, w)
	if resp["version"] != "v1.2.3" {
		t.Errorf("version = %v; want v1.2.3", resp["version"])
	}
	if _, ok := resp["checks"]; ok {
		t.Error("non-admin response should not contain checks")
	}
}

func TestHealthHandler_Health_Admin(t *testing.T) {
	h := newTestHealthHandler(t)
	if err := h.events.LogSecurityEvent(context.Background(), "Access denied: admin required", 2, service.RequestMeta{IP: "10.0.0.1"}, nil); err != nil {
		t.Fatalf("LogSecurityEvent: %v", err)
	}

	w := httptest.NewRecorder()
	h.Health(w, healthRequest("/health?verbose=true", authz.Caller{ID: 1, Alias: "ADMIN", Admin: true}))

	assertStatus(t, w.Code, http.StatusOK)
	resp := decodeJSON(t, w)

	checks, ok := resp["checks"].(map[string]any)
	if !ok {
		t.Fatalf("checks missing: %v", resp)
	}
	for _, name := range []string{"database", "cache", "geoip"} {
		check, ok := checks[name].(map[string]any)
		if !ok {
			t.Errorf("check %q missing", name)
			continue
		}
		if check["status"] != "healthy" {
			t.Errorf("%s status = %v; want healthy", name, check["status"])
		}
	}

	jobs, ok := resp["jobs"].([]any)
	if !ok || len(jobs) != 1 {
		t.Errorf("jobs = %v; want one job", resp["jobs"])
	}
	if _, ok := resp["system"]; !ok {
		t.Error("verbose admin response should contain system info")
	}
	events, ok := resp["recent_events"].([]any)
	if !ok || len(events) != 1 {
		t.Fatalf("recent_events = %v; want one event", resp["recent_events"])
	}
	if e := events[0].(map[string]any); e["message"] != "Access denied: admin required" {
		t.Errorf("event message = %v", e["message"])
	}
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	h := newTestHealthHandler(t)
	_ = h.db.Close()

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assertStatus(t, w.Code, http.StatusServiceUnavailable)
	if resp := decodeJSON(t, w); resp["status"] != "unhealthy" {
		t.Errorf("status = %v; want unhealthy", resp["status"])
	}

	w = httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assertStatus(t, w.Code, http.StatusServiceUnavailable)
	resp := decodeJSON(t, w)
	if resp["status"] != "not_ready" {
		t.Errorf("status = %v; want not_ready", resp["status"])
	}
	if _, ok := resp["message"]; ok {
		t.Error("anonymous readiness should not leak the error")
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := newTestHealthHandler(t)

	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assertStatus(t, w.Code, http.StatusOK)
	if resp := decodeJSON(t, w); resp["status"] != "alive" {
		t.Errorf("status = %v; want alive", resp["status"])
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	h := newTestHealthHandler(t)

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assertStatus(t, w.Code, http.StatusOK)
	if resp := decodeJSON(t, w); resp["status"] != "ready" {
		t.Errorf("status = %v; want ready", resp["status"])
	}
}

func TestHealthRoutes(t *testing.T) {
	app := newTestApp(t)

	resp := app.client().get(RouteHealth + "/live")
	assertStatus(t, resp.Status, http.StatusOK)
	assertContains(t, resp.Body, "alive")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
