package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fiedly71/up-to-date-store-sub000/api"
	"github.com/Fiedly71/up-to-date-store-sub000/cache"
	"github.com/Fiedly71/up-to-date-store-sub000/catalog"
	"github.com/Fiedly71/up-to-date-store-sub000/config"
	"github.com/Fiedly71/up-to-date-store-sub000/flow"
	"github.com/Fiedly71/up-to-date-store-sub000/health"
	"github.com/Fiedly71/up-to-date-store-sub000/logger"
	"github.com/Fiedly71/up-to-date-store-sub000/metrics"
	"github.com/Fiedly71/up-to-date-store-sub000/payment"
	"github.com/Fiedly71/up-to-date-store-sub000/persistence"
	"github.com/Fiedly71/up-to-date-store-sub000/pricing"
	"github.com/Fiedly71/up-to-date-store-sub000/rbac"
	"github.com/Fiedly71/up-to-date-store-sub000/session"
	"github.com/Fiedly71/up-to-date-store-sub000/token"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Version is set at build time
var Version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	defer logger.Log.Sync()

	logger.Log.Info("Starting storefront",
		zap.String("version", Version),
		zap.Int("port", cfg.Port),
		zap.String("db_type", cfg.DBType),
	)

	repo, err := persistence.NewStorage(cfg.DBType, cfg.DSN, nil)
	if err != nil {
		logger.Log.Fatal("failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		logger.Log.Fatal("failed to load catalog", zap.Error(err))
	}

	signer, err := token.NewSigner([]byte(cfg.TokenSecret))
	if err != nil {
		logger.Log.Fatal("failed to initialize token signer", zap.Error(err))
	}

	checks := health.NewManager(Version, 5*time.Second)
	checks.Register(health.NewPingChecker("database", repo.Ping))

	var responses cache.Cache
	switch cfg.CacheBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		rc := cache.NewRedis(client, "")
		checks.Register(health.NewPingChecker("redis", rc.Ping))
		responses = rc
	default:
		responses = cache.NewMemory()
	}
	checks.Register(health.NewCacheChecker(responses))

	var strategy session.Strategy
	if cfg.SessionStrategy == "jwt" {
		strategy = session.NewJWTStrategy([]byte(cfg.SessionSecret), cfg.SessionTTL)
	} else {
		strategy = session.NewDatabaseStrategy(repo, cfg.SessionTTL)
	}
	sessions := session.NewManager(strategy)

	m := metrics.New()
	hasher := flow.NewBcryptHasher(12)
	conv := pricing.NewConverter(cfg.DisplayRate, cfg.DisplayCurrency)

	regManager := flow.NewRegistrationManager(repo, hasher)
	if cfg.AdminEmail != "" {
		if _, err := regManager.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Log.Fatal("failed to bootstrap administrator", zap.Error(err))
		}
		logger.Log.Info("administrator ready", zap.String("email", cfg.AdminEmail))
	}

	recovery := flow.NewRecoveryManager(repo, signer, hasher, cfg.BaseURL)
	recovery.SetLimiter(flow.NewLimiter(cfg.RecoveryRate))
	recovery.SetSessionRevoker(sessions)
	recovery.SetMetrics(m)

	invites := flow.NewInviteManager(repo, signer, hasher, cfg.BaseURL)
	invites.SetMetrics(m)

	profile := flow.NewProfileManager(repo, hasher)
	profile.SetSessionRevoker(sessions)

	orders := flow.NewOrderManager(repo, cat)
	orders.SetMetrics(m)

	h := api.NewHandler(api.Options{
		Accounts:     repo,
		Registration: regManager,
		Login:        flow.NewLoginManager(repo, hasher),
		Profile:      profile,
		Recovery:     recovery,
		Invites:      invites,
		Orders:       orders,
		Sessions:     sessions,
		Access:       rbac.NewMiddleware(rbac.BasicStrategy{}, sessions, repo),
		Catalog:      cat,
		Converter:    conv,
		WhatsApp:     payment.NewWhatsApp(cfg.WhatsAppNumber, conv),
		Cache:        responses,
		CacheTTL:     cfg.CacheTTL,
	})

	// Setup Echo
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Routes
	e.GET("/healthz", echo.WrapHandler(checks.LiveHandler()))
	e.GET("/ready", echo.WrapHandler(checks.ReadyHandler()))
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	h.RegisterRoutes(e.Group("/api/v1"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Log.Info("Server is starting", zap.Int("port", cfg.Port))
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("graceful shutdown failed", zap.Error(err))
	}
}
