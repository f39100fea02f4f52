package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	"audiosales/web-gateway/config"
	_ "audiosales/web-gateway/docs"
	"audiosales/web-gateway/handlers"
	"audiosales/web-gateway/internal/auth"
	"audiosales/web-gateway/internal/backend"
	"audiosales/web-gateway/internal/cache"
	"audiosales/web-gateway/internal/dashboard"
	"audiosales/web-gateway/internal/feedback"
	"audiosales/web-gateway/internal/metrics"
	"audiosales/web-gateway/internal/recording"
	"audiosales/web-gateway/internal/retry"
	"audiosales/web-gateway/internal/session"
	"audiosales/web-gateway/internal/storage"
	"audiosales/web-gateway/internal/worker"
	"audiosales/web-gateway/middleware"
	"audiosales/web-gateway/utils"
)

const shutdownTimeout = 20 * time.Second

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := config.InitLogger(cfg.Log)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Error("Refusing to start")
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Error("JWT secret is not configured; every request will be treated as logged out")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	api, err := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout,
		backend.WithFunctionKey(cfg.Backend.FunctionKey),
		backend.WithObserver(m),
	)
	if err != nil {
		return err
	}

	account := storage.Account{
		Name:      cfg.Storage.AccountName,
		Container: cfg.Storage.ContainerName,
		Endpoint:  cfg.Storage.Endpoint,
	}
	issuer, err := storage.NewIssuer(account, cfg.Storage.AccountKey, cfg.Storage.UploadSASTTL)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize upload URL issuer")
		return err
	}
	if !issuer.Configured() {
		logger.Error("Storage account key is not configured; upload URLs will be refused")
	}
	uploader := storage.NewUploader()

	store, closeStore, err := newCacheStore(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	layer := cache.NewLayer(store, cfg.Cache.TTL, logger, m)

	dispatcher := worker.NewDispatcher(cfg.Recording.UploadWorkers, cfg.Recording.UploadQueue, logger)
	dispatcher.Run()

	registry := recording.NewRegistry(recording.Options{
		LevelWindow:      cfg.Recording.LevelWindow,
		LevelPoll:        cfg.Recording.LevelPoll,
		SnapshotInterval: cfg.Recording.SnapshotInterval,
		RedirectDelay:    cfg.Recording.RedirectDelay,
		Retain:           cfg.Recording.Retain,
	}, recording.Deps{
		URLs:     issuer,
		Blobs:    uploader,
		Meetings: api,
		Jobs:     dispatcher,
		Observer: m,
		Active:   m.RecordingsActive,
		Logger:   logger,
	})

	tokens := session.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	rules := session.DefaultRules()
	authSvc := auth.NewService(api, tokens, rules,
		retry.Linear(cfg.Auth.RestoreAttempts, cfg.Auth.RestoreDelay), logger)

	h := handlers.NewApplicationHandler(logger, func(h *handlers.ApplicationHandler) {
		h.Auth = authSvc
		h.Meetings = api
		h.Feedback = feedback.NewService(api, layer, feedback.Audio{Account: account, Token: cfg.Storage.SASToken}, logger)
		h.Dashboard = dashboard.NewService(api, layer)
		h.Recordings = registry
		h.UploadURLs = issuer
		h.Blobs = uploader
		h.Cache = layer
		h.Metrics = m
		h.CookieSecure = cfg.Auth.CookieSecure
	})

	sess := middleware.SessionConfig{
		Guard:        session.NewGuard(rules, tokens),
		Restorer:     authSvc,
		CookieSecure: cfg.Auth.CookieSecure,
		Logger:       logger,
	}
	app := newApp(cfg, logger, m, h, sess)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Server.ListenAddr).Info("Starting web gateway")
		errCh <- app.Listen(cfg.Server.ListenAddr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("Server stopped")
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down web gateway...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	registry.Shutdown()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP shutdown incomplete")
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Upload queue not drained before shutdown")
	}
	logger.Info("Web gateway shut down gracefully.")
	return nil
}

func newCacheStore(ctx context.Context, cfg config.CacheConfig, logger *logrus.Logger) (cache.Store, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Info("Using in-memory cache")
		return cache.NewMemoryStore(), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := cache.NewRedisStore(client, "gateway:")
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	logger.WithField("addr", cfg.RedisAddr).Info("Using redis cache")
	return store, func() { _ = client.Close() }, nil
}

func newApp(cfg *config.Config, logger *logrus.Logger, m *metrics.Metrics, h *handlers.ApplicationHandler, sess middleware.SessionConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "web-gateway",
		BodyLimit: h.MaxAudioBytes + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			if code >= fiber.StatusInternalServerError {
				logger.WithError(err).WithField("request_id", middleware.RequestID(c)).Error("Unhandled error")
				return utils.RespondWithError(c, code, "Internal server error")
			}
			return utils.RespondWithError(c, code, err.Error())
		},
	})

	origins := strings.Join(cfg.Server.AllowedOrigins, ",")
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, X-Request-ID, " + handlers.AudioLevelHeader,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: origins != "" && !strings.Contains(origins, "*"),
	}))
	app.Use(middleware.RequestLogger(logger))
	app.Use(middleware.Metrics(m))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "Web gateway is healthy",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	h.RegisterAPIRoutes(app, sess)

	// Everything below is a page request.
	app.Use(middleware.PageGuard(sess))
	app.Static("/", cfg.Server.StaticDir)
	index := filepath.Join(cfg.Server.StaticDir, "index.html")
	app.Get("/*", func(c *fiber.Ctx) error {
		return c.SendFile(index)
	})
	return app
}
