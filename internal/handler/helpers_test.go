// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seechoy/mun-app/internal/cache"
	"github.com/seechoy/mun-app/internal/middleware"
	"github.com/seechoy/mun-app/internal/render"
	"github.com/seechoy/mun-app/internal/service"
	"github.com/seechoy/mun-app/internal/session"
	"github.com/seechoy/mun-app/internal/store"
	"github.com/seechoy/mun-app/internal/testutil"
	"github.com/seechoy/mun-app/web"
)

const testSecret = "k3Jd9vQx7LmZp2Wc8RtYb5NhG4sFaE6u"

// testApp is the full router served over a real listener, so cookies and
// sessions round-trip the way a browser sees them.
type testApp struct {
	t      *testing.T
	db     *sql.DB
	server *httptest.Server
	deps   Deps
}

// fixedCountry answers every lookup with one country.
type fixedCountry string

func (c fixedCountry) DefaultCountry(string) string { return string(c) }

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	sm := session.New(db, true)

	templates, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("fs.Sub(templates): %v", err)
	}
	static, err := fs.Sub(web.Static, "static/dist")
	if err != nil {
		t.Fatalf("fs.Sub(static): %v", err)
	}

	renderer, err := render.New(render.Config{TemplatesFS: templates, Sessions: sm})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	mem := cache.NewMemoryCache(cache.MemoryOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })
	counts := cache.NewCounts(mem, time.Minute)

	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       1000,
		IPBurst:           1000,
		MaxFailedAttempts: 5,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})
	t.Cleanup(lp.Stop)

	deps := Deps{
		DB:              db,
		Sessions:        sm,
		Renderer:        renderer,
		Accounts:        service.NewAccounts(db, counts),
		Conferences:     service.NewConferences(db, counts),
		Attendance:      service.NewAttendance(db),
		Events:          service.NewEventService(db),
		LoginProtection: lp,
		Countries:       fixedCountry("Japan"),
		Cache:           mem,
		CacheKind:       "memory",
		StaticFS:        static,
		IsDevelopment:   true,
		SessionSecret:   testSecret,
	}

	server := httptest.NewServer(NewRouter(deps))
	t.Cleanup(server.Close)

	return &testApp{t: t, db: db, server: server, deps: deps}
}

// testResponse is a fully read response.
type testResponse struct {
	Status int
	Header http.Header
	Body   string
}

// Location returns the redirect target for both 303s and HX-Redirects.
func (r testResponse) Location() string {
	if loc := r.Header.Get(middleware.HeaderHXRedirect); loc != "" {
		return loc
	}
	return r.Header.Get("Location")
}

// testClient is one browser: its own cookie jar, redirects not followed.
type testClient struct {
	t    *testing.T
	app  *testApp
	http *http.Client
}

func (a *testApp) client() *testClient {
	a.t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		a.t.Fatalf("cookiejar.New: %v", err)
	}
	return &testClient{
		t:   a.t,
		app: a,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
			Timeout: 10 * time.Second,
		},
	}
}

func (c *testClient) do(method, path string, form url.Values, htmx bool) testResponse {
	c.t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, c.app.server.URL+path, body)
	if err != nil {
		c.t.Fatalf("NewRequest %s %s: %v", method, path, err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set(middleware.HeaderHXRequest, "true")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("reading %s %s: %v", method, path, err)
	}
	return testResponse{Status: resp.StatusCode, Header: resp.Header, Body: string(raw)}
}

func (c *testClient) get(path string) testResponse {
	c.t.Helper()
	return c.do(http.MethodGet, path, nil, false)
}

func (c *testClient) post(path string, form url.Values) testResponse {
	c.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	return c.do(http.MethodPost, path, form, false)
}

// follow GETs the redirect target of resp.
func (c *testClient) follow(resp testResponse) testResponse {
	c.t.Helper()
	loc := resp.Location()
	if loc == "" {
		c.t.Fatalf("response %d has no redirect target", resp.Status)
	}
	return c.get(loc)
}

func (c *testClient) signIn(email, password string) testResponse {
	c.t.Helper()
	return c.post(RouteSignin, url.Values{"email": {email}, "password": {password}})
}

// signedIn returns a client signed in as user.
func (a *testApp) signedIn(user store.User) *testClient {
	a.t.Helper()
	c := a.client()
	resp := c.signIn(user.Email, testutil.DefaultPassword)
	if resp.Status != http.StatusSeeOther {
		a.t.Fatalf("sign in as %s: status %d", user.Email, resp.Status)
	}
	return c
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

// assertRedirect checks the response redirects to want.
func assertRedirect(t *testing.T, resp testResponse, want string) {
	t.Helper()
	if got := resp.Location(); got != want {
		t.Errorf("redirect = %q (status %d); want %q", got, resp.Status, want)
	}
}

func assertContains(t *testing.T, body, want string) {
	t.Helper()
	if !strings.Contains(body, want) {
		t.Errorf("body does not contain %q", want)
	}
}

func assertNotContains(t *testing.T, body, unwanted string) {
	t.Helper()
	if strings.Contains(body, unwanted) {
		t.Errorf("body unexpectedly contains %q", unwanted)
	}
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}
