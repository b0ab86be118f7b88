package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mbellini/userhub/internal/auth"
	"github.com/mbellini/userhub/internal/cache"
	"github.com/mbellini/userhub/internal/config"
	"github.com/mbellini/userhub/internal/http/handlers"
	"github.com/mbellini/userhub/internal/http/middlewares"
	"github.com/mbellini/userhub/internal/observability"
	"github.com/mbellini/userhub/internal/repo/postgres"
	"github.com/mbellini/userhub/internal/security"
	"github.com/mbellini/userhub/internal/service"
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// observability
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.RequireJSON())
	r.Use(prom.GinHandleMiddleware())
	r.Use(otelgin.Middleware("userhub"))

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	}

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// identity core wiring

	codec := security.NewCodec(cfg.Secret)
	tokens := auth.NewManager(cfg.Secret, time.Duration(cfg.TokenTTLDays)*24*time.Hour)

	var roster service.RosterCache
	if cfg.RedisAddr != "" {
		roster = cache.NewRedisRoster(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.RosterCacheTTL, prom)
	} else {
		roster = cache.NewRoster(cfg.RosterCacheTTL, prom)
	}

	usersRepo := postgres.NewUsersRepo(pool, prom)
	users := service.NewUsers(usersRepo, codec, tokens, roster)

	usersHandler := handlers.NewUsersHandler(users)
	authRequired := middlewares.NewAuthMiddleware(tokens).RequireAuth()

	r.POST("/users", usersHandler.Register)
	r.POST("/users/login", usersHandler.Login)
	r.GET("/users/user", authRequired, usersHandler.Me)
	r.PUT("/users/user", authRequired, usersHandler.Update)
	r.DELETE("/users/:email", usersHandler.Delete)
	r.GET("/users/roster", usersHandler.Roster)

	return r
}
