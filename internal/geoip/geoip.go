// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip guesses a delegate's country from the client IP using a
// MaxMind GeoLite2-Country database. It is optional: without a database
// every lookup comes back empty.
package geoip

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

// LocalCode is returned for loopback and private addresses.
const LocalCode = "LOCAL"

var privateCIDRs = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"fc00::/7",  // IPv6 unique local
	"fe80::/10", // IPv6 link-local
)

func mustParseCIDRs(blocks ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(blocks))
	for _, block := range blocks {
		_, cidr, err := net.ParseCIDR(block)
		if err != nil {
			panic(err)
		}
		nets = append(nets, cidr)
	}
	return nets
}

// Lookup resolves IPs to countries. The zero value is usable and disabled.
type Lookup struct {
	mu        sync.RWMutex
	db        *maxminddb.Reader
	dbPath    string
	dbModTime time.Time
}

// geoRecord matches the GeoLite2-Country database structure.
type geoRecord struct {
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
}

// New opens the database at dbPath. An empty path returns a disabled
// Lookup. A path that cannot be opened returns a disabled Lookup and the
// error, so callers can log it and carry on.
func New(dbPath string) (*Lookup, error) {
	g := &Lookup{dbPath: dbPath}
	if dbPath == "" {
		return g, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g, g.load()
}

// load opens or reopens the database. Caller must hold g.mu.
func (g *Lookup) load() error {
	info, err := os.Stat(g.dbPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("geoip database not found: %s", g.dbPath)
		}
		return fmt.Errorf("geoip database stat: %w", err)
	}

	if g.db != nil && info.ModTime().Equal(g.dbModTime) {
		return nil
	}

	db, err := maxminddb.Open(g.dbPath)
	if err != nil {
		return fmt.Errorf("opening geoip database: %w", err)
	}

	if g.db != nil {
		_ = g.db.Close()
	}
	g.db = db
	g.dbModTime = info.ModTime()
	return nil
}

// Reload reopens the database when the file on disk has changed. The old
// reader stays in use if the new file cannot be opened.
func (g *Lookup) Reload() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dbPath == "" {
		return nil
	}
	return g.load()
}

// Enabled reports whether a database is loaded.
func (g *Lookup) Enabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.db != nil
}

// CountryCode returns the ISO code for ip, LocalCode for private and
// loopback addresses, or "" when unknown.
func (g *Lookup) CountryCode(ip string) string {
	code, _ := g.lookup(ip)
	return code
}

// DefaultCountry returns the English country name to prefill an attendance
// form with. Local and unknown addresses give "".
func (g *Lookup) DefaultCountry(ip string) string {
	code, name := g.lookup(ip)
	if code == "" || code == LocalCode {
		return ""
	}
	if name != "" {
		return name
	}
	return code
}

func (g *Lookup) lookup(ip string) (code, name string) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", ""
	}
	if parsed.IsLoopback() || isPrivateIP(parsed) {
		return LocalCode, ""
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.db == nil {
		return "", ""
	}

	var record geoRecord
	if err := g.db.Lookup(parsed, &record); err != nil {
		return "", ""
	}
	return record.Country.ISOCode, record.Country.Names["en"]
}

// Close releases the database.
func (g *Lookup) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	return err
}

func isPrivateIP(ip net.IP) bool {
	for _, cidr := range privateCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}
