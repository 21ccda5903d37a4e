// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package web embeds the HTML templates and the compiled static assets.
package web

import "embed"

// Templates holds layouts/, pages/, partials/ and one directory per resource.
//
//go:embed all:templates
var Templates embed.FS

// Static is served under /static. Callers strip the static/dist prefix.
//
//go:embed all:static/dist
var Static embed.FS
