package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/infolibrary/infolibrary/internal/administrators"
	"github.com/infolibrary/infolibrary/internal/app"
	"github.com/infolibrary/infolibrary/internal/auth"
	"github.com/infolibrary/infolibrary/internal/catalog"
	"github.com/infolibrary/infolibrary/internal/entities"
	"github.com/infolibrary/infolibrary/internal/observability"
	"github.com/infolibrary/infolibrary/internal/permissions"
	"github.com/infolibrary/infolibrary/internal/platform/cache"
	"github.com/infolibrary/infolibrary/internal/platform/db"
	"github.com/infolibrary/infolibrary/internal/rbac"
	"github.com/infolibrary/infolibrary/internal/roles"
	"github.com/infolibrary/infolibrary/internal/shared"
	"github.com/infolibrary/infolibrary/internal/view"
	"github.com/infolibrary/infolibrary/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Default().Warn("load .env", slog.Any("error", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing(), logger)
	if err != nil {
		logger.Error("init tracing", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("shutdown tracing", slog.Any("error", err))
		}
	}()

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	secureCookies := cfg.IsProduction()
	sessionManager := shared.NewSessionManager(redisClient, "infolibrary_session", cfg.SessionSecret, cfg.SessionTTL, secureCookies)
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}
	pages := view.Responder{Logger: logger, Templates: templates, CSRF: csrfManager}

	metrics := observability.NewMetrics()

	// Authorization core.
	authorizer := rbac.NewAuthorizer(rbac.NewAuthorizationStore(pool), metrics)
	guard := rbac.Middleware{
		Authorizer: authorizer,
		Logger:     logger,
		Fail: func(w http.ResponseWriter, r *http.Request, err error) {
			pages.Fail(w, r, rbac.DeniedPath, err)
		},
	}
	rolePermissions := rbac.NewGrantRepository(pool, rbac.RolePermissions)
	administratorRoles := rbac.NewGrantRepository(pool, rbac.AdministratorRoles)

	entityService := entities.NewService(entities.NewRepository(pool))
	permissionService := permissions.NewService(permissions.NewRepository(pool), entityService)
	permissionCatalog := rbac.NewCatalog(entityService, permissionService)
	roleService := roles.NewService(roles.NewRepository(pool), permissionCatalog, rolePermissions, roles.NewTransactor(pool))
	administratorService := administrators.NewService(administrators.Deps{
		Repo:               administrators.NewRepository(pool),
		AdministratorRoles: administratorRoles,
		RolePermissions:    rolePermissions,
		Work:               administrators.NewTransactor(pool),
		Catalog:            permissionCatalog,
	})

	// Sign-in.
	jobClient := jobs.NewClient(cfg.Redis().AsynqOpt())
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authService := auth.NewService(administratorService, auth.NewCodeStore(redisClient, cfg.LoginCodeTTL), jobClient, metrics)
	authenticator := auth.NewAuthenticator(tokens, authService, logger, secureCookies)

	catalogService := catalog.NewService(catalog.NewRepository(pool))

	inspector := asynq.NewInspector(cfg.Redis().AsynqOpt())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Authenticator:  authenticator,
		Metrics:        metrics,
		Tracing:        cfg.OTLPEndpoint != "",

		AuthHandler:           auth.NewHandler(logger, authService, tokens, pages, sessionManager, secureCookies),
		PublicHandler:         catalog.NewPublicHandler(catalogService, pages),
		CatalogHandler:        catalog.NewHandler(catalogService, pages, guard),
		EntitiesHandler:       entities.NewHandler(entityService, pages, guard),
		PermissionsHandler:    permissions.NewHandler(permissionService, entityService, pages, guard),
		RolesHandler:          roles.NewHandler(roleService, pages, guard),
		AdministratorsHandler: administrators.NewHandler(administratorService, roleService, pages, guard),
		JobHandler:            jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
