package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/amirphl/Tsukuyomi/app/handlers"
	"github.com/amirphl/Tsukuyomi/app/middleware"
	"github.com/amirphl/Tsukuyomi/app/router"
	"github.com/amirphl/Tsukuyomi/app/services"
	businessflow "github.com/amirphl/Tsukuyomi/business_flow"
	"github.com/amirphl/Tsukuyomi/config"
	"github.com/amirphl/Tsukuyomi/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	logger    zerolog.Logger
	stopFuncs []func()
}

func initializeApplication(cfg *config.ProductionConfig, logger zerolog.Logger, accessLog io.Writer) (*Application, error) {
	app := &Application{config: cfg, logger: logger}

	db, err := initializeDatabase(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	app.stopFuncs = append(app.stopFuncs, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	redisClient, err := initializeCache(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	// Revocations and captcha challenges live in Redis when configured, otherwise in process
	var revocations services.RevocationStore
	var challenges services.ChallengeStore
	if redisClient != nil {
		revocations = services.NewRedisRevocationStore(redisClient, cfg.Cache.RedisPrefix+"revoked:")
		challenges = services.NewRedisChallengeStore(redisClient, cfg.Cache.RedisPrefix+"captcha:")
		app.stopFuncs = append(app.stopFuncs,
			startCacheHealthMonitor(context.Background(), redisClient, cfg.Cache.HealthCheckInterval, logger),
			func() { _ = redisClient.Close() },
		)
	} else {
		memory := services.NewMemoryStore(cfg.Cache.CleanupInterval)
		revocations, challenges = memory, memory
		app.stopFuncs = append(app.stopFuncs, memory.Close)
	}

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
		revocations,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	captchaService, err := initializeCaptcha(cfg.Captcha, challenges, logger)
	if err != nil {
		return nil, err
	}

	// Repositories
	regionRepo := repository.NewRegionRepository(db)
	userRepo := repository.NewUserRepository(db)
	tagRepo := repository.NewTagRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	eventRepo := repository.NewEventRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	tx := repository.NewTransactor(db)

	// Business flows
	regionFlow := businessflow.NewRegionFlow(regionRepo, tx)
	tagFlow := businessflow.NewTagFlow(tagRepo, auditRepo, tx, logger)
	calendarFlow := businessflow.NewCalendarFlow(calendarRepo, userRepo)
	notificationService := initializeNotificationService(cfg, logger)
	authFlow := businessflow.NewAuthFlow(userRepo, auditRepo, notificationService, tx, cfg.Auth, cfg.Security, logger)
	adminAuthFlow := businessflow.NewAdminAuthFlow(userRepo, auditRepo, notificationService, tokenService, captchaService, cfg.Auth, cfg.JWT.AccessTokenTTL, logger)
	adminResourceFlow := businessflow.NewAdminResourceFlow(tagRepo, regionRepo, calendarRepo, userRepo, eventRepo, locationRepo)

	h := router.Handlers{
		Region:        handlers.NewRegionHandler(regionFlow, logger),
		Session:       handlers.NewSessionHandler(authFlow, logger),
		Calendar:      handlers.NewCalendarHandler(calendarFlow, logger),
		AdminAuth:     handlers.NewAdminAuthHandler(adminAuthFlow, cfg.Security.TLSEnabled, logger),
		AdminResource: handlers.NewAdminResourceHandler(adminResourceFlow, tagFlow, authFlow, calendarFlow, logger),
		Auth:          middleware.NewAuthMiddleware(authFlow, adminAuthFlow, logger),
	}

	checks := map[string]router.HealthCheck{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	app.router = router.NewFiberRouter(cfg, h, checks, logger, accessLog)
	app.router.SetupRoutes()
	return app, nil
}

// run serves until ctx is cancelled, then shuts down within the configured timeout
func (a *Application) run(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.router.Start(address)
	}()

	select {
	case err := <-errCh:
		a.stop()
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	err := a.router.GetApp().ShutdownWithContext(shutdownCtx)
	a.stop()
	if err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	a.logger.Info().Msg("server stopped")
	return nil
}

func (a *Application) stop() {
	for i := len(a.stopFuncs) - 1; i >= 0; i-- {
		a.stopFuncs[i]()
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig, logger zerolog.Logger) (*gorm.DB, error) {
	slow := time.Duration(0)
	if cfg.SlowQueryLog {
		slow = cfg.SlowQueryTime
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         config.NewGormLogger(logger, slow),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Int("max_idle_conns", cfg.MaxIdleConns).
		Msg("database connection established")
	return db, nil
}

// initializeCache returns nil when Redis is not the configured provider
func initializeCache(cfg config.CacheConfig, logger zerolog.Logger) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Int("db", cfg.RedisDB).Msg("redis connection established")
	return rc, nil
}

// startCacheHealthMonitor periodically pings Redis. The returned function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration, logger zerolog.Logger) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(monitorCtx, 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					logger.Warn().Err(err).Msg("redis healthcheck failed")
				}
				c()
			}
		}
	}()
	return cancel
}

func initializeNotificationService(cfg *config.ProductionConfig, logger zerolog.Logger) services.NotificationService {
	var provider services.EmailProvider
	switch cfg.Email.Provider {
	case "smtp":
		provider = services.NewSMTPEmailProvider(
			cfg.Email.Host,
			cfg.Email.Port,
			cfg.Email.Username,
			cfg.Email.Password,
			cfg.Email.FromEmail,
			cfg.Email.FromName,
			cfg.Email.Timeout,
		)
	default:
		provider = services.NewMockEmailProvider(logger)
	}
	return services.NewNotificationService(provider)
}

// initializeCaptcha returns a nil service when the captcha is disabled
func initializeCaptcha(cfg config.CaptchaConfig, store services.ChallengeStore, logger zerolog.Logger) (services.CaptchaService, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var backgrounds []image.Image
	if cfg.BackgroundsDir != "" {
		imgs, err := services.LoadCaptchaBackgrounds(cfg.BackgroundsDir, cfg.ImageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to load captcha backgrounds: %w", err)
		}
		backgrounds = imgs
	}

	svc, err := services.NewCaptchaServiceRotate(store, cfg.TTL, cfg.Padding, cfg.ImageSize, backgrounds, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize captcha: %w", err)
	}
	return svc, nil
}
