package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jamshid-zayniyev/warehouse-admin/config"
	"github.com/jamshid-zayniyev/warehouse-admin/controllers"
	"github.com/jamshid-zayniyev/warehouse-admin/middleware"
	"github.com/jamshid-zayniyev/warehouse-admin/models"
	"github.com/jamshid-zayniyev/warehouse-admin/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds the wired services of one process
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Backend services.BackendClient
	Store   *services.RequestStore
	Reports *services.ReportService
	DB      *gorm.DB
	Redis   *redis.Client
}

// Options are the collaborators Assemble wires together. Nil fields fall back:
// no DB disables the journal, no Cache uses an in-process cache, no Storage
// disables report export.
type Options struct {
	Backend services.BackendClient
	DB      *gorm.DB
	Redis   *redis.Client
	Cache   services.DetailCache
	Storage services.S3Interface
}

// New connects the configured infrastructure and assembles the app
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := config.ConnectDatabase(cfg.DatabaseURL); err != nil {
		return nil, err
	}

	opts := Options{
		Backend: services.NewHTTPBackendClient(cfg),
		DB:      config.GetDB(),
		Redis:   config.NewRedisClient(cfg),
	}

	if opts.Redis != nil {
		opts.Cache = services.NewRedisDetailCache(opts.Redis, cfg.DetailCacheTTL, logger)
	}

	if cfg.ReportUploadEnabled() {
		storage, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts.Storage = storage
	}

	return Assemble(cfg, logger, opts)
}

// Assemble builds the app from explicit collaborators
func Assemble(cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("a backend client is required")
	}

	var journal services.ActionJournal = services.NoopActionJournal{}
	if opts.DB != nil {
		if err := opts.DB.AutoMigrate(&models.ActionLog{}); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("database migration completed successfully")
		journal = services.NewGormActionJournal(opts.DB, logger)
	}

	cache := opts.Cache
	if cache == nil {
		cache = services.NewMemoryDetailCache(cfg.DetailCacheTTL)
	}

	enricher := services.NewEnricher(opts.Backend, cache, cfg.EnrichConcurrency, logger)
	store := services.NewRequestStore(opts.Backend, enricher, journal, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Backend: opts.Backend,
		Store:   store,
		Reports: services.NewReportService(store, opts.Storage, logger),
		DB:      opts.DB,
		Redis:   opts.Redis,
	}, nil
}

// Router builds the HTTP router
func (a *App) Router() (*gin.Engine, error) {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(a.Logger),
		cors.New(a.corsConfig()),
	)

	v1 := router.Group("/api/v1")

	health := controllers.NewHealthController(a.DB, a.Redis)
	v1.GET("/health", health.Check)
	v1.GET("/health/dependencies", health.Dependencies)

	protected := v1.Group("")
	protected.Use(middleware.RequireBearer())
	if a.Config.Auth0Domain != "" {
		validate, err := middleware.EnsureValidToken(a.Config, a.Logger)
		if err != nil {
			return nil, err
		}
		protected.Use(validate)
		if a.Config.AdminScope != "" {
			protected.Use(middleware.RequireScope(a.Config.AdminScope))
		}
	}

	controllers.NewSupplierRequestController(a.Store, a.Reports, a.Logger).RegisterRoutes(protected)
	controllers.NewProxyController(a.Backend, controllers.CatalogRoutes, a.Logger).RegisterRoutes(protected)

	return router, nil
}

func (a *App) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins := make([]string, 0, len(a.Config.CORSOrigins))
	for _, o := range a.Config.CORSOrigins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// NewScheduler returns the daily report scheduler, or nil when no schedule is configured
func (a *App) NewScheduler() *services.ReportScheduler {
	if a.Config.ReportCron == "" || !a.Reports.StorageEnabled() {
		return nil
	}
	return services.NewReportScheduler(a.Reports, a.Config.BackendServiceToken, a.Logger)
}

// Close releases database and Redis connections
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Logger.Warn("failed to close database", zap.Error(err))
			}
		}
	}
}
