package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stylekart/server/internal/module/auth"
	"github.com/stylekart/server/internal/module/notification"
	"github.com/stylekart/server/internal/module/order"
	"github.com/stylekart/server/internal/module/payment"
	"github.com/stylekart/server/internal/shared/cache"
	"github.com/stylekart/server/internal/shared/config"
	"github.com/stylekart/server/internal/shared/database"
	"github.com/stylekart/server/internal/shared/events"
	"github.com/stylekart/server/internal/shared/metrics"
	"github.com/stylekart/server/internal/shared/middleware"
)

// App wires the application together and owns its lifecycle.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	redis  redis.UniversalClient
	server *http.Server
}

// New builds the application from configuration.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := db.AutoMigrate(&order.Order{}, &payment.GatewayEvent{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	m := metrics.New("stylekart")
	bus := events.NewBus(logger)

	// gateway + payment reconciliation
	gateway, err := payment.NewGateway(&cfg.Gateway, logger)
	if err != nil {
		return nil, fmt.Errorf("configuring gateway: %w", err)
	}

	orderRepo := order.NewRepository(db)
	eventRepo := payment.NewEventRepository(db)

	orderService := order.NewService(orderRepo, gateway, bus, m, logger)
	paymentService := payment.NewService(gateway, orderRepo, eventRepo, bus, m, logger)

	// notifications ride on the event bus; failures never propagate
	notifier, err := notification.NewNotifier(notification.NewSMTPSender(&cfg.SMTP), m, logger)
	if err != nil {
		return nil, fmt.Errorf("building notifier: %w", err)
	}
	bus.Register(notification.NewEventHandler(notifier, logger))

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, "stylekart", cfg.Auth.AccessTokenExpiry)
	rateLimiter := cache.NewRateLimiter(redisClient)

	router := buildRouter(cfg, logger, m, jwtManager, rateLimiter, orderService, paymentService, gateway)

	return &App{
		cfg:    cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
		server: &http.Server{
			Addr:         cfg.Server.Address,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}, nil
}

func buildRouter(
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
	jwtManager *auth.JWTManager,
	rateLimiter *cache.RateLimiter,
	orderService *order.Service,
	paymentService *payment.Service,
	gateway *payment.Gateway,
) *gin.Engine {
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.Metrics(m),
		middleware.CORS(nil),
		middleware.RateLimit(rateLimiter, 300, time.Minute, logger),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")

	// gateway-facing routes are unauthenticated; the reverse hash is the
	// authentication
	public := api.Group("")

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(jwtManager))

	requireAdmin := middleware.RequireAdmin()

	order.NewHandler(orderService, logger).RegisterRoutes(authed, requireAdmin)
	payment.NewHandler(paymentService, gateway, logger).RegisterRoutes(public, authed, requireAdmin)

	return router
}

// Run starts the HTTP server and blocks until it stops.
func (a *App) Run() error {
	a.logger.Info("server starting", zap.String("address", a.cfg.Server.Address))
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server and closes connections.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("server shutting down")

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Warn("closing redis", zap.Error(err))
	}
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("closing database", zap.Error(err))
	}
	return nil
}
