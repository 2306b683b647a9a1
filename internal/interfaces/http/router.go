// Package http wires the gin engine: repositories, platform client,
// usecases, handlers, and middleware.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	connUsecases "github.com/meridian-ads/meridian/internal/application/connection/usecases"
	creativeApp "github.com/meridian-ads/meridian/internal/application/creative"
	creativeUsecases "github.com/meridian-ads/meridian/internal/application/creative/usecases"
	syncUsecases "github.com/meridian-ads/meridian/internal/application/sync/usecases"
	"github.com/meridian-ads/meridian/internal/infrastructure/auth"
	"github.com/meridian-ads/meridian/internal/infrastructure/config"
	"github.com/meridian-ads/meridian/internal/infrastructure/mediacache"
	"github.com/meridian-ads/meridian/internal/infrastructure/metaapi"
	"github.com/meridian-ads/meridian/internal/infrastructure/ratelimit"
	"github.com/meridian-ads/meridian/internal/infrastructure/repository"
	"github.com/meridian-ads/meridian/internal/infrastructure/vault"
	"github.com/meridian-ads/meridian/internal/interfaces/http/handlers"
	"github.com/meridian-ads/meridian/internal/interfaces/http/middleware"
	shareddb "github.com/meridian-ads/meridian/internal/shared/db"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

// Router holds the configured engine and the usecases shared with other
// entrypoints (CLI, schedulers).
type Router struct {
	engine    *gin.Engine
	RunSyncUC *syncUsecases.RunSyncUseCase
}

// NewRouter builds the full dependency graph. redisClient may be nil; the
// platform budget then falls back to the noop limiter.
func NewRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) (*Router, error) {
	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger(log))
	engine.Use(middleware.CORS([]string{"*"}))

	connRepo := repository.NewConnectionRepository(db)
	acctRepo := repository.NewAdAccountRepository(db)
	jobRepo := repository.NewSyncJobRepository(db)
	wmRepo := repository.NewSyncWatermarkRepository(db)
	metricRepo := repository.NewMetricRepository(db)
	creativeRepo := repository.NewCreativeRepository(db)

	tokenVault, err := vault.New(&cfg.Vault, log)
	if err != nil {
		return nil, err
	}

	budget := ratelimit.NewNoopLimiter()
	if redisClient != nil {
		budget = ratelimit.NewRedisLimiter(redisClient)
	}

	client := metaapi.New(metaapi.Options{
		BaseURL:  cfg.Meta.GraphBaseURL,
		Version:  cfg.Meta.APIVersion,
		MaxPages: cfg.Meta.MaxPages,
		BatchCap: cfg.Meta.BatchSize,
		Timeout:  time.Duration(cfg.Meta.RequestTimeoutS) * time.Second,
		Policy: metaapi.RetryPolicy{
			MaxRetries: cfg.Meta.MaxRetries,
			Base:       time.Duration(cfg.Meta.RetryBaseMS) * time.Millisecond,
			Ceiling:    30 * time.Second,
		},
		Budget: budget,
		BudgetConfig: ratelimit.BudgetConfig{
			RequestsPerMinute: cfg.Meta.TenantPerMinute,
			RequestsPerHour:   cfg.Meta.TenantPerHour,
		},
		BreakerThreshold: uint32(cfg.Meta.BreakerThreshold),
		Logger:           log,
	})
	oauthClient := metaapi.NewOAuth(client, &cfg.Meta)

	mediaStore := mediacache.NewStore(&cfg.Media, log)

	resolver := creativeApp.NewResolver(
		client, creativeRepo, mediaStore,
		time.Duration(cfg.Meta.InterBatchMS)*time.Millisecond, log,
	).WithTenantScope(func(tenantID uint) creativeApp.CreativeAPI {
		return client.ForTenant(tenantID)
	})

	runSyncUC := syncUsecases.NewRunSyncUseCase(
		acctRepo, connRepo, jobRepo, wmRepo, metricRepo,
		client, tokenVault, resolver, cfg.Sync.BackfillDays, log,
	).WithTenantScope(func(tenantID uint) syncUsecases.InsightsFetcher {
		return client.ForTenant(tenantID)
	}).WithTransactor(shareddb.NewTransactionManager(db))

	syncHandler := handlers.NewSyncHandler(
		runSyncUC,
		syncUsecases.NewGetSyncJobUseCase(jobRepo),
		syncUsecases.NewGetWatermarkUseCase(acctRepo, wmRepo),
	)
	creativeHandler := handlers.NewCreativeHandler(
		creativeUsecases.NewResolveCreativeUseCase(acctRepo, connRepo, tokenVault, resolver, log),
		creativeUsecases.NewResolveCreativesBatchUseCase(acctRepo, connRepo, tokenVault, resolver, log),
		creativeUsecases.NewGetCreativeUseCase(acctRepo, creativeRepo),
	)
	connectionHandler := handlers.NewConnectionHandler(
		connUsecases.NewConnectAccountUseCase(connRepo, acctRepo, oauthClient, client, tokenVault, log),
		connUsecases.NewRefreshTokenUseCase(connRepo, oauthClient, tokenVault, log),
		connUsecases.NewRevokeConnectionUseCase(connRepo, log),
		connRepo,
	)
	accountHandler := handlers.NewAccountHandler(acctRepo)

	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiryHours)
	authMiddleware := middleware.NewAuthMiddleware(jwtService, log)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1")
	api.Use(authMiddleware.RequireAuth())
	{
		api.POST("/connections", connectionHandler.Connect)
		api.GET("/connections", connectionHandler.List)
		api.POST("/connections/:sid/refresh", connectionHandler.Refresh)
		api.DELETE("/connections/:sid", connectionHandler.Revoke)

		api.GET("/accounts", accountHandler.List)
		api.GET("/accounts/:accountSID", accountHandler.Get)

		api.POST("/sync/runs", syncHandler.RunSync)
		api.GET("/sync/jobs/:id", syncHandler.GetJob)
		api.GET("/sync/watermarks/:accountSID", syncHandler.GetWatermark)

		api.POST("/creatives/:accountSID/resolve", creativeHandler.Resolve)
		api.POST("/creatives/:accountSID/resolve-batch", creativeHandler.ResolveBatch)
		api.GET("/creatives/:accountSID/:adID", creativeHandler.Get)
	}

	return &Router{engine: engine, RunSyncUC: runSyncUC}, nil
}

// Engine exposes the configured gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
