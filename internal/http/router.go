package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/learnstack/learnhub/internal/cache"
	"github.com/learnstack/learnhub/internal/config"
	"github.com/learnstack/learnhub/internal/http/handlers"
	"github.com/learnstack/learnhub/internal/http/middlewares"
	"github.com/learnstack/learnhub/internal/identity"
	"github.com/learnstack/learnhub/internal/observability"
	"github.com/learnstack/learnhub/internal/redisclient"
	"github.com/learnstack/learnhub/internal/repo/postgres"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, rdb *redisclient.Client, prom *observability.Prom, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxRequestBodyBytes))
	r.Use(otelgin.Middleware("learnhub"))

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}

	// health + metrics

	pings := map[string]func() error{}

	if pool != nil {
		pings["postgres"] = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()
			return pool.Ping(ctx)
		}
	}

	if rdb != nil {
		pings["redis"] = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()
			return rdb.Ping(ctx)
		}
	}

	health := handlers.NewHealthHandler(pings)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// wire up repositories

	usersRepo := postgres.NewUsersRepo(pool, prom)
	modulesRepo := postgres.NewModulesRepo(pool, prom)
	pagesRepo := postgres.NewPagesRepo(pool, prom)
	progressRepo := postgres.NewProgressRepo(pool, prom)

	provider := identity.NewJWTProvider(cfg.JWTSecret, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)
	authMw := middlewares.NewAuthMiddleware(provider, usersRepo)

	listCache := cache.New(10 * time.Second)

	var dedup handlers.CompletionDedup
	if rdb != nil {
		dedup = redisclient.NewCompletionDedup(rdb)
	}

	usersHandler := handlers.NewUsersHandler(usersRepo)
	meHandler := handlers.NewMeHandler(usersRepo)
	modulesHandler := handlers.NewModulesHandler(modulesRepo, listCache)
	pagesHandler := handlers.NewPagesHandler(pagesRepo)
	progressHandler := handlers.NewProgressHandler(progressRepo, pagesRepo, dedup)

	limiter := middlewares.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	r.Use(limiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))

	// public content reads

	r.GET("/modules", modulesHandler.List)
	r.GET("/modules/:id", modulesHandler.Get)
	r.GET("/modules/:id/pages", pagesHandler.List)
	r.GET("/modules/:id/pages/:pageId", pagesHandler.Get)

	// any authenticated caller

	authed := r.Group("", authMw.RequireAuth())

	authed.GET("/me", meHandler.Get)
	authed.GET("/users", usersHandler.List)
	authed.GET("/users/:id", usersHandler.Get)
	authed.PATCH("/users/:id", usersHandler.Update) // self-or-admin enforced in the handler
	authed.POST("/modules/:id/pages/:pageId/complete", progressHandler.Complete)
	authed.GET("/modules/:id/progress", progressHandler.ListMine)

	// admin-only writes; role comes from the user store

	admin := r.Group("", authMw.RequireAuth(), authMw.RequireAdmin())

	admin.POST("/users", usersHandler.Create)
	admin.DELETE("/users/:id", usersHandler.Delete)

	admin.POST("/modules", modulesHandler.Create)
	admin.PUT("/modules/:id", modulesHandler.Update)
	admin.DELETE("/modules/:id", modulesHandler.Delete)

	admin.POST("/modules/:id/pages", pagesHandler.Create)
	admin.PUT("/modules/:id/pages/:pageId", pagesHandler.Update)
	admin.DELETE("/modules/:id/pages/:pageId", pagesHandler.Delete)
	admin.PATCH("/modules/:id/pages/reorder", pagesHandler.Reorder)

	return r
}
