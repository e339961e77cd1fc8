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
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showroom-admin/backoffice/internal/admin"
	"github.com/showroom-admin/backoffice/internal/app"
	"github.com/showroom-admin/backoffice/internal/audit"
	"github.com/showroom-admin/backoffice/internal/auth"
	"github.com/showroom-admin/backoffice/internal/masterdata/branches"
	"github.com/showroom-admin/backoffice/internal/masterdata/cars"
	"github.com/showroom-admin/backoffice/internal/observability"
	"github.com/showroom-admin/backoffice/internal/platform/cache"
	"github.com/showroom-admin/backoffice/internal/platform/db"
	"github.com/showroom-admin/backoffice/internal/rbac"
	"github.com/showroom-admin/backoffice/internal/roles"
	"github.com/showroom-admin/backoffice/internal/sales/orders"
	"github.com/showroom-admin/backoffice/internal/shared"
	"github.com/showroom-admin/backoffice/internal/users"
	"github.com/showroom-admin/backoffice/internal/view"
	"github.com/showroom-admin/backoffice/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns, MaxConnLifetime: time.Hour})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "backoffice_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}
	forbidden := view.ErrorPage(templates, logger, http.StatusForbidden, "You do not have permission to view this page.")
	notFound := view.ErrorPage(templates, logger, http.StatusNotFound, "The page you are looking for does not exist.")

	authHandler := auth.NewHandler(logger, auth.NewService(auth.NewRepository(dbpool)), templates, sessionManager, csrfManager)

	rbacService := rbac.NewService(rbac.NewStore(dbpool), redisClient, cfg.PrincipalTTL)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger, Forbidden: forbidden}

	metrics := observability.NewMetrics()
	adminSite := admin.New(admin.Config{
		Logger:    logger,
		Templates: templates,
		CSRF:      csrfManager,
		RBAC:      rbacMiddleware,
		Audit:     shared.NewAuditLogger(dbpool),
		Metrics:   metrics,
		Forbidden: forbidden,
		NotFound:  notFound,
	})
	registerViews(adminSite, dbpool, rbacService, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		Admin:          adminSite,
		RBAC:           rbacMiddleware,
		JobHandler:     jobs.NewHandler(inspector, jobClient, logger),
		Metrics:        metrics,
		Forbidden:      forbidden,
		NotFound:       notFound,
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

// registerViews adds every entity view in menu order.
func registerViews(site *admin.Admin, pool *pgxpool.Pool, principals *rbac.Service, logger *slog.Logger) {
	roleResource := roles.NewResource(roles.NewService(roles.NewRepository(pool), principals, logger))
	userResource := users.NewResource(users.NewService(users.NewRepository(pool), principals, logger), roleResource.Options)
	branchResource := branches.NewResource(branches.NewService(branches.NewRepository(pool)))
	carResource := cars.NewResource(cars.NewService(cars.NewRepository(pool)), branchResource.Options)

	orderService := orders.NewService(orders.NewRepository(pool))
	refs := orders.Refs{
		Users:    userResource.Options,
		Cars:     carResource.Options,
		Branches: branchResource.Options,
	}

	site.AddView(roleResource.View())
	site.AddView(userResource.View())
	site.AddView(branchResource.View())
	site.AddView(carResource.View())
	for _, kind := range []orders.Kind{orders.KindOrder, orders.KindSeva, orders.KindM88, orders.KindQualified} {
		site.AddView(orders.NewResource(orderService, kind, refs).View())
	}
	site.AddView(audit.NewResource(audit.NewService(audit.NewRepository(pool))).View())
}
