package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aussiebroadwan/quill/internal/web/authstate"
	"github.com/aussiebroadwan/quill/pkg/httpx"
	"github.com/aussiebroadwan/quill/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the data every template receives.
type Page struct {
	Title   string
	Auth    authstate.State
	Flash   *Flash
	CSRF    string
	Form    *Form
	Message string // page-level error
	Data    any
}

// Form echoes submitted values and per-field errors back into a template.
type Form struct {
	Values url.Values
	Errors map[string]string
}

func newForm(values url.Values) *Form {
	if values == nil {
		values = url.Values{}
	}
	return &Form{Values: values, Errors: map[string]string{}}
}

// Get returns a submitted value. Password fields are never echoed.
func (f *Form) Get(field string) string {
	if f == nil || strings.Contains(field, "password") {
		return ""
	}
	return f.Values.Get(field)
}

func (f *Form) Error(field string) string {
	if f == nil {
		return ""
	}
	return f.Errors[field]
}

func (f *Form) HasErrors() bool { return f != nil && len(f.Errors) > 0 }

// templates holds one parsed set per page, each layered over layout.html.
type templates map[string]*template.Template

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2 Jan 2006")
	},
	"excerpt": func(s string, n int) string {
		r := []rune(strings.TrimSpace(s))
		if len(r) <= n {
			return string(r)
		}
		return strings.TrimSpace(string(r[:n])) + "…"
	},
}

func parseTemplates() (templates, error) {
	base, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	out := make(templates, len(pages))
	for _, p := range pages {
		name := strings.TrimSuffix(path.Base(p), ".html")
		if name == "layout" {
			continue
		}

		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, p); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", p, err)
		}
		out[name] = t
	}
	return out, nil
}

// render writes page name with status. The page is buffered so a template
// error can still become a 500.
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, name string, p Page) {
	t, ok := h.templates[name]
	if !ok {
		slogx.FromContext(r.Context()).Error("unknown template", "template", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	p.Auth = authstate.FromContext(r.Context())
	p.CSRF = csrfToken(r.Context())
	if p.Flash == nil {
		p.Flash = takeFlash(w, r)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		slogx.FromContext(r.Context()).Error("failed to render template", "template", name, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
