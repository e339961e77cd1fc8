// Package admin provides the generic list/detail/form views that every
// back-office entity is exposed through, gated by per-view role policies.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/showroom-admin/backoffice/internal/rbac"
	"github.com/showroom-admin/backoffice/internal/shared"
	"github.com/showroom-admin/backoffice/internal/view"
)

// BasePath is where the admin is mounted.
const BasePath = "/admin"

// Auditor records admin changes.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ChangeObserver counts admin writes.
type ChangeObserver interface {
	ObserveChange(entity, action string)
}

// View binds a resource to a policy under an endpoint.
type View struct {
	Name     string
	Endpoint string
	Resource Resource
	Policy   Policy
}

// URL returns the list URL of the view.
func (v *View) URL() string {
	return BasePath + "/" + v.Endpoint + "/"
}

// Config groups Admin dependencies.
type Config struct {
	Logger    *slog.Logger
	Templates *view.Engine
	CSRF      *shared.CSRFManager
	RBAC      rbac.Middleware
	Audit     Auditor
	Metrics   ChangeObserver
	Forbidden http.Handler
	NotFound  http.Handler
}

// Admin serves all registered views.
type Admin struct {
	logger    *slog.Logger
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
	audit     Auditor
	metrics   ChangeObserver
	forbidden http.Handler
	notFound  http.Handler
	views     []*View
}

// New constructs an Admin.
func New(cfg Config) *Admin {
	a := &Admin{
		logger:    cfg.Logger,
		templates: cfg.Templates,
		csrf:      cfg.CSRF,
		rbac:      cfg.RBAC,
		audit:     cfg.Audit,
		metrics:   cfg.Metrics,
		forbidden: cfg.Forbidden,
		notFound:  cfg.NotFound,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.forbidden == nil {
		a.forbidden = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
	if a.notFound == nil {
		a.notFound = http.NotFoundHandler()
	}
	return a
}

// AddView registers a view. Endpoints must be unique.
func (a *Admin) AddView(v View) {
	v.Endpoint = strings.Trim(v.Endpoint, "/")
	for _, existing := range a.views {
		if existing.Endpoint == v.Endpoint {
			panic("admin: duplicate endpoint " + v.Endpoint)
		}
	}
	a.views = append(a.views, &v)
}

// Views returns the registered views in menu order.
func (a *Admin) Views() []*View {
	return a.views
}

// MountRoutes registers the admin routes on a router mounted at BasePath.
func (a *Admin) MountRoutes(r chi.Router) {
	r.With(a.rbac.RequireAuthenticated).Get("/", a.index)
	for _, v := range a.views {
		v := v
		r.Route("/"+v.Endpoint, func(r chi.Router) {
			r.Use(a.rbac.RequireRole(v.Policy.Role))
			r.Get("/", a.list(v))
			r.Get("/export.csv", a.export(v))
			r.Get("/new", a.createForm(v))
			r.Post("/new", a.create(v))
			r.Get("/{id}", a.details(v))
			r.Get("/{id}/edit", a.editForm(v))
			r.Post("/{id}/edit", a.update(v))
			r.Post("/{id}/inline", a.inline(v))
			r.Post("/{id}/delete", a.delete(v))
		})
	}
}

type indexItem struct {
	Name  string
	URL   string
	Count int
	Err   bool
}

func (a *Admin) index(w http.ResponseWriter, r *http.Request) {
	principal := rbac.PrincipalFromContext(r.Context())
	var allowed []*View
	for _, v := range a.views {
		if v.Policy.Allows(principal) {
			allowed = append(allowed, v)
		}
	}

	items := make([]indexItem, len(allowed))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(4)
	for i, v := range allowed {
		i, v := i, v
		items[i] = indexItem{Name: v.Name, URL: v.URL()}
		g.Go(func() error {
			_, total, err := v.Resource.List(ctx, shared.ListQuery{Limit: 1})
			if err != nil {
				a.logger.Warn("admin count", slog.String("view", v.Endpoint), slog.Any("error", err))
				items[i].Err = true
				return nil
			}
			items[i].Count = total
			return nil
		})
	}
	_ = g.Wait()

	a.render(w, r, nil, "Dashboard", "pages/admin/index.html", map[string]any{"Views": items}, http.StatusOK)
}

func (a *Admin) menu(principal *rbac.Principal, current *View) []view.MenuItem {
	var items []view.MenuItem
	for _, v := range a.views {
		if !v.Policy.Allows(principal) {
			continue
		}
		items = append(items, view.MenuItem{Label: v.Name, URL: v.URL(), Active: v == current})
	}
	return items
}

func (a *Admin) render(w http.ResponseWriter, r *http.Request, current *View, title, template string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	principal := rbac.PrincipalFromContext(r.Context())
	csrfToken, _ := a.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		UserName:    principal.DisplayName(),
		Menu:        a.menu(principal, current),
		Data:        data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := a.templates.Render(w, template, viewData); err != nil {
		a.logger.Error("render template", slog.String("template", template), slog.Any("error", err))
	}
}

func (a *Admin) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (a *Admin) record(ctx context.Context, v *View, action string, id int64, meta map[string]any) {
	if a.metrics != nil {
		a.metrics.ObserveChange(v.Resource.Entity(), action)
	}
	if a.audit == nil {
		return
	}
	var actor int64
	if p := rbac.PrincipalFromContext(ctx); p != nil {
		actor = p.ID
	}
	entry := shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   v.Resource.Entity(),
		EntityID: formatInt(id),
		Meta:     meta,
	}
	if err := a.audit.Record(ctx, entry); err != nil {
		a.logger.Warn("audit record", slog.String("entity", entry.Entity), slog.String("action", action), slog.Any("error", err))
	}
}
