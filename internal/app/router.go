package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/showroom-admin/backoffice/internal/admin"
	"github.com/showroom-admin/backoffice/internal/auth"
	"github.com/showroom-admin/backoffice/internal/observability"
	"github.com/showroom-admin/backoffice/internal/rbac"
	"github.com/showroom-admin/backoffice/internal/shared"
	"github.com/showroom-admin/backoffice/internal/view"
	"github.com/showroom-admin/backoffice/jobs"
	"github.com/showroom-admin/backoffice/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthHandler    *auth.Handler
	Admin          *admin.Admin
	RBAC           rbac.Middleware
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
	Forbidden      http.Handler
	NotFound       http.Handler
}

// NewRouter constructs the chi.Router with back-office defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	if params.NotFound != nil {
		r.NotFound(params.NotFound.ServeHTTP)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		registerAssetTypes(staticFS, params.Logger)
		// Static files bypass sessions and rate limiting.
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
			RBAC:           params.RBAC,
			Metrics:        params.Metrics,
			Forbidden:      params.Forbidden,
		}) {
			r.Use(mw)
		}

		r.Get("/", landing(params))
		params.AuthHandler.MountRoutes(r)
		r.Route(admin.BasePath, func(r chi.Router) {
			params.Admin.MountRoutes(r)
			if params.JobHandler != nil {
				r.Route("/jobs", func(r chi.Router) {
					r.Use(params.RBAC.RequireRole(shared.RoleSuperuser))
					params.JobHandler.MountRoutes(r)
				})
			}
		})
	})

	return r
}

func landing(params RouterParams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:       "Showroom back office",
			CSRFToken:   csrfToken,
			Flash:       flash,
			CurrentPath: r.URL.Path,
			UserName:    rbac.PrincipalFromContext(r.Context()).DisplayName(),
		}
		if err := params.Templates.Render(w, "pages/landing.html", data); err != nil {
			params.Logger.Error("render landing", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
