// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render turns templates embedded under web/templates into HTML
// responses. Full requests get the page inside the base layout; htmx
// requests get only the page's "content" block.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/seechoy/mun-app/internal/authz"
	"github.com/seechoy/mun-app/internal/middleware"
	"github.com/seechoy/mun-app/internal/model"
	"github.com/seechoy/mun-app/internal/session"
	"github.com/seechoy/mun-app/internal/uikit"
)

// SiteTitle prefixes every page title.
const SiteTitle = "MODEL UNITED NATIONS APP OF DOOM"

// blankLinesRegex matches two or more consecutive newlines (with optional whitespace between).
var blankLinesRegex = regexp.MustCompile(`(\r?\n\s*){2,}`)

// Template directories. Pages live in every other top-level directory.
const (
	layoutFile  = "layouts/base.html"
	partialsDir = "partials"
	layoutsDir  = "layouts"
)

// Renderer handles template rendering with caching.
type Renderer struct {
	pages     map[string]*template.Template
	fragments *template.Template
	sessions  *session.Manager
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS fs.FS
	// Sessions supplies pending flash messages. May be nil.
	Sessions *session.Manager
}

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		pages:    make(map[string]*template.Template),
		sessions: cfg.Sessions,
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := templateFiles(templatesFS, partialsDir)
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}

	r.fragments = template.New("").Funcs(templateFuncs())
	if len(partials) > 0 {
		if r.fragments, err = r.fragments.ParseFS(templatesFS, partials...); err != nil {
			return fmt.Errorf("parsing partials: %w", err)
		}
	}

	dirs, err := fs.ReadDir(templatesFS, ".")
	if err != nil {
		return fmt.Errorf("reading templates: %w", err)
	}
	for _, dir := range dirs {
		if !dir.IsDir() || dir.Name() == partialsDir || dir.Name() == layoutsDir {
			continue
		}
		pages, err := templateFiles(templatesFS, dir.Name())
		if err != nil {
			return fmt.Errorf("getting %s templates: %w", dir.Name(), err)
		}
		for _, page := range pages {
			name := strings.TrimSuffix(page, ".html")

			files := append([]string{layoutFile}, partials...)
			files = append(files, page)

			tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(templatesFS, files...)
			if err != nil {
				return fmt.Errorf("parsing template %s: %w", name, err)
			}
			r.pages[name] = tmpl
		}
	}

	return nil
}

// templateFiles returns all .html files in dir, slash separated.
func templateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

func templateFuncs() template.FuncMap {
	funcs := uikit.TemplateFuncs()
	funcs["markdown"] = Markdown
	funcs["fieldError"] = func(errs model.FieldErrors, field string) string {
		return errs[field]
	}
	return funcs
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	Caller      authz.Caller
	Flash       string
	FlashType   string
	CurrentYear int
	Path        string

	// Form is the submitted input echoed back into a form; Errors holds its
	// field messages.
	Form   any
	Errors model.FieldErrors

	Data       any
	Pagination *uikit.Pagination
}

// FullTitle returns the document title.
func (d TemplateData) FullTitle() string {
	if d.Title == "" {
		return SiteTitle
	}
	return SiteTitle + " | " + d.Title
}

// HasPage reports whether name is a known page template.
func (r *Renderer) HasPage(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render writes page name with status. The caller, path and pending flash
// are filled in from the request.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	data.CurrentYear = time.Now().Year()
	data.Caller = authz.FromContext(req.Context())
	data.Path = req.URL.Path
	if data.Flash == "" && r.sessions != nil {
		data.Flash, data.FlashType = r.sessions.PopFlash(req.Context())
	}
	if data.Flash != "" && data.FlashType == "" {
		data.FlashType = "info"
	}

	block := "base"
	if middleware.IsHTMX(req) {
		block = "content"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, block, data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Add("Vary", middleware.HeaderHXRequest)
	w.WriteHeader(status)
	_, err := w.Write(blankLinesRegex.ReplaceAll(buf.Bytes(), []byte("\n")))
	return err
}

// RenderFragment writes the partial template name on its own.
func (r *Renderer) RenderFragment(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := r.fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("executing fragment %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(blankLinesRegex.ReplaceAll(buf.Bytes(), []byte("\n")))
	return err
}
