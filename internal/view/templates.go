package view

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/showroom-admin/backoffice/internal/shared"
	"github.com/showroom-admin/backoffice/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// MenuItem is one entry of the admin navigation.
type MenuItem struct {
	Label  string
	URL    string
	Active bool
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	UserName    string
	Menu        []MenuItem
	Data        any
}

// DateTimeLayout is the display format of timestamps.
const DateTimeLayout = "02 Jan 2006 15:04"

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(DateTimeLayout)
		},
		"add": func(a, b int) int { return a + b },
		"contains": func(list []string, v string) bool {
			for _, item := range list {
				if item == v {
					return true
				}
			}
			return false
		},
		"lower": strings.ToLower,
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates,
		"templates/layouts/*.html",
		"templates/partials/*.html",
		"templates/pages/*.html",
		"templates/pages/admin/*.html",
		"templates/pages/errors/*.html",
	)
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}

// ErrorPage renders pages/errors/error.html with the given status.
func ErrorPage(engine *Engine, logger *slog.Logger, status int, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		data := TemplateData{
			Title:       http.StatusText(status),
			CurrentPath: r.URL.Path,
			Data: map[string]any{
				"Status":  status,
				"Message": message,
			},
		}
		if err := engine.Render(w, "pages/errors/error.html", data); err != nil && logger != nil {
			logger.Error("render error page", slog.Int("status", status), slog.Any("error", err))
		}
	})
}
