package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/infolibrary/infolibrary/internal/administrators"
	"github.com/infolibrary/infolibrary/internal/auth"
	"github.com/infolibrary/infolibrary/internal/catalog"
	"github.com/infolibrary/infolibrary/internal/entities"
	"github.com/infolibrary/infolibrary/internal/observability"
	"github.com/infolibrary/infolibrary/internal/permissions"
	"github.com/infolibrary/infolibrary/internal/platform/httpx"
	"github.com/infolibrary/infolibrary/internal/roles"
	"github.com/infolibrary/infolibrary/internal/shared"
	"github.com/infolibrary/infolibrary/jobs"
	"github.com/infolibrary/infolibrary/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Authenticator  *auth.Authenticator
	Metrics        *observability.Metrics
	Tracing        bool

	AuthHandler           *auth.Handler
	PublicHandler         *catalog.PublicHandler
	CatalogHandler        *catalog.Handler
	EntitiesHandler       *entities.Handler
	PermissionsHandler    *permissions.Handler
	RolesHandler          *roles.Handler
	AdministratorsHandler *administrators.Handler
	JobHandler            *jobs.Handler
}

// NewRouter constructs the chi.Router serving public pages, sign-in and the
// admin area.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Authenticator:  params.Authenticator,
		Metrics:        params.Metrics,
		Tracing:        params.Tracing,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.PublicHandler != nil {
		params.PublicHandler.MountRoutes(r)
	}
	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}

	r.Route("/admin", func(r chi.Router) {
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountRoutes(r)
		}
		if params.EntitiesHandler != nil {
			r.Route("/entities", params.EntitiesHandler.MountRoutes)
		}
		if params.PermissionsHandler != nil {
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		}
		if params.RolesHandler != nil {
			r.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.AdministratorsHandler != nil {
			r.Route("/administrators", params.AdministratorsHandler.MountRoutes)
			r.Route("/profile", params.AdministratorsHandler.MountProfileRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler lets browsers keep embedded assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
