// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/seechoy/mun-app/internal/cache"
	"github.com/seechoy/mun-app/internal/middleware"
	"github.com/seechoy/mun-app/internal/scheduler"
	"github.com/seechoy/mun-app/internal/service"
	"github.com/seechoy/mun-app/internal/version"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db          *sql.DB
	cache       cache.Cache
	cacheKind   string
	geoip       interface{ Enabled() bool }
	scheduler   *scheduler.Scheduler
	events      *service.EventService
	version     version.Info
	startTime   time.Time
	pingTimeout time.Duration
}

// HealthConfig wires the components a health report covers. Only DB is
// required.
type HealthConfig struct {
	DB        *sql.DB
	Cache     cache.Cache
	CacheKind string
	GeoIP     interface{ Enabled() bool }
	Scheduler *scheduler.Scheduler
	Events    *service.EventService
	Version   version.Info
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(cfg HealthConfig) *HealthHandler {
	return &HealthHandler{
		db:          cfg.DB,
		cache:       cfg.Cache,
		cacheKind:   cfg.CacheKind,
		geoip:       cfg.GeoIP,
		scheduler:   cfg.Scheduler,
		events:      cfg.Events,
		version:     cfg.Version.WithDefaults(),
		startTime:   time.Now(),
		pingTimeout: 2 * time.Second,
	}
}

// HealthStatusPublic is the minimal health response for anonymous callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks,omitempty"`
	Jobs      []JobStatus      `json:"jobs,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
	Events    []EventSummary   `json:"recent_events,omitempty"`
}

// EventSummary is an audit log entry as shown to admins.
type EventSummary struct {
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// JobStatus reports a scheduled job.
type JobStatus struct {
	Name      string    `json:"name"`
	Schedule  string    `json:"schedule"`
	LastRun   time.Time `json:"last_run,omitzero"`
	LastError string    `json:"last_error,omitempty"`
	NextRun   time.Time `json:"next_run,omitzero"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health. Anonymous callers get the overall status,
// signed-in users add uptime and version, admins get every check.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"database": h.checkDatabase(r.Context()),
		"cache":    h.checkCache(r.Context()),
		"geoip":    h.checkGeoIP(),
	}

	overallStatus := "healthy"
	if checks["database"].Status != "healthy" {
		overallStatus = "unhealthy"
	} else if checks["cache"].Status != "healthy" {
		overallStatus = "degraded"
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	caller := middleware.GetCaller(r)
	if !caller.SignedIn() {
		writeJSON(w, statusCode, HealthStatusPublic{Status: overallStatus})
		return
	}

	status := HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version.Version,
	}

	if caller.Admin {
		status.Checks = checks
		status.Jobs = h.jobs()
		if r.URL.Query().Get("verbose") == "true" {
			status.System = h.getSystemInfo()
			status.Events = h.recentEvents(r.Context())
		}
	}

	writeJSON(w, statusCode, status)
}

// Liveness handles GET /health/live - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready - checks if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())
	if dbCheck.Status == "healthy" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	resp := map[string]string{"status": "not_ready"}
	// Error details only for admins.
	if middleware.GetCaller(r).Admin {
		resp["message"] = dbCheck.Message
	}
	writeJSON(w, http.StatusServiceUnavailable, resp)
}

// checkDatabase verifies database connectivity.
func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, h.pingTimeout)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  "unhealthy",
			Message: err.Error(),
			Latency: latency.String(),
		}
	}

	return Check{
		Status:  "healthy",
		Message: "Connected",
		Latency: latency.String(),
	}
}

// checkCache pings the cache when the backend supports it.
func (h *HealthHandler) checkCache(ctx context.Context) Check {
	if h.cache == nil {
		return Check{Status: "healthy", Message: "disabled"}
	}

	pinger, ok := h.cache.(interface{ Ping(context.Context) error })
	if !ok {
		return Check{Status: "healthy", Message: h.cacheKind}
	}

	ctx, cancel := context.WithTimeout(ctx, h.pingTimeout)
	defer cancel()

	start := time.Now()
	if err := pinger.Ping(ctx); err != nil {
		return Check{
			Status:  "degraded",
			Message: h.cacheKind + ": " + err.Error(),
			Latency: time.Since(start).String(),
		}
	}
	return Check{Status: "healthy", Message: h.cacheKind, Latency: time.Since(start).String()}
}

func (h *HealthHandler) checkGeoIP() Check {
	if h.geoip == nil || !h.geoip.Enabled() {
		return Check{Status: "healthy", Message: "disabled"}
	}
	return Check{Status: "healthy", Message: "loaded"}
}

func (h *HealthHandler) jobs() []JobStatus {
	if h.scheduler == nil {
		return nil
	}
	infos := h.scheduler.Jobs()
	out := make([]JobStatus, 0, len(infos))
	for _, j := range infos {
		out = append(out, JobStatus{
			Name:      j.Name,
			Schedule:  j.Schedule,
			LastRun:   j.LastRun,
			LastError: j.LastError,
			NextRun:   j.NextRun,
		})
	}
	return out
}

const recentEventsLimit = 10

func (h *HealthHandler) recentEvents(ctx context.Context) []EventSummary {
	if h.events == nil {
		return nil
	}
	events, err := h.events.Recent(ctx, recentEventsLimit)
	if err != nil {
		slog.Error("failed to load recent events", "error", err)
		return nil
	}
	out := make([]EventSummary, 0, len(events))
	for _, e := range events {
		out = append(out, EventSummary{
			Level:     e.Level,
			Category:  e.Category,
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

// getSystemInfo returns system-level metrics.
func (h *HealthHandler) getSystemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
