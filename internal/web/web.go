// Package web holds the server-rendered pages and the installable-app manifest.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/splitkar/splitkar/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Page names.
const (
	PageLogin     = "login.html"
	PageDashboard = "dashboard.html"
	PageProfile   = "profile.html"
	PageGroups    = "groups.html"
	PageJoin      = "join.html"
	PageOffline   = "offline.html"
)

var pageNames = []string{PageLogin, PageDashboard, PageProfile, PageGroups, PageJoin, PageOffline}

// Page is the data every page template receives.
type Page struct {
	Title string
	// Email is the signed-in user's address, empty when signed out.
	Email string
	Data  any
}

// Renderer executes page templates inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"initial":     initial,
		"displayName": displayName,
		"date":        func(t time.Time) string { return t.Format("2 Jan 2006") },
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// Render writes page to w. Nothing is written if execution fails.
func (r *Renderer) Render(w io.Writer, name string, page Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, page); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// displayName returns the member's full name or a placeholder.
func displayName(p *model.PublicProfile) string {
	if p == nil || p.FullName == nil || strings.TrimSpace(*p.FullName) == "" {
		return "Unknown User"
	}
	return *p.FullName
}

// initial returns the upper-cased first letter of the member's name.
func initial(p *model.PublicProfile) string {
	name := "U"
	if p != nil && p.FullName != nil && strings.TrimSpace(*p.FullName) != "" {
		name = strings.TrimSpace(*p.FullName)
	}
	for _, r := range name {
		return string(unicode.ToUpper(r))
	}
	return "U"
}
