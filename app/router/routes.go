// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"time"

	"github.com/amirphl/Tsukuyomi/app/dto"
	"github.com/amirphl/Tsukuyomi/app/handlers"
	"github.com/amirphl/Tsukuyomi/app/middleware"
	"github.com/amirphl/Tsukuyomi/config"
	"github.com/amirphl/Tsukuyomi/docs"
	"github.com/amirphl/Tsukuyomi/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cache"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Handlers groups everything the routes dispatch to
type Handlers struct {
	Region        handlers.RegionHandlerInterface
	Session       handlers.SessionHandlerInterface
	Calendar      handlers.CalendarHandlerInterface
	AdminAuth     handlers.AdminAuthHandlerInterface
	AdminResource handlers.AdminResourceHandlerInterface
	Auth          *middleware.AuthMiddleware
}

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app       *fiber.App
	cfg       *config.ProductionConfig
	h         Handlers
	checks    map[string]HealthCheck
	logger    zerolog.Logger
	accessLog io.Writer
}

// NewFiberRouter creates a new Fiber router. accessLog receives the HTTP access log lines.
func NewFiberRouter(cfg *config.ProductionConfig, h Handlers, checks map[string]HealthCheck, log zerolog.Logger, accessLog io.Writer) Router {
	r := &FiberRouter{
		cfg:       cfg,
		h:         h,
		checks:    checks,
		logger:    log.With().Str("component", "router").Logger(),
		accessLog: accessLog,
	}

	r.app = fiber.New(fiber.Config{
		AppName:      "Tsukuyomi API",
		ServerHeader: "Tsukuyomi",
		ErrorHandler: r.errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		TrustProxy:   len(cfg.Server.TrustedProxies) > 0,
		TrustProxyConfig: fiber.TrustProxyConfig{
			Proxies: cfg.Server.TrustedProxies,
		},
		ProxyHeader: cfg.Server.ProxyHeader,
	})

	docs.SwaggerInfo.Host = cfg.Deployment.APIDomain
	docs.SwaggerInfo.Version = cfg.Deployment.Version
	return r
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	r.setupMiddleware()

	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := r.app.Group("/api/v1")
	api.Get("/health", r.healthCheck)
	api.Get("/swagger.json", r.serveSwaggerJSON)

	api.Use(r.rateLimiter(r.cfg.Security.GlobalRateLimit, func(c fiber.Ctx) bool {
		return c.Path() == "/api/v1/health"
	}))

	// Session endpoints are public apart from sign out, with a stricter limit
	users := api.Group("/users", r.rateLimiter(r.cfg.Security.AuthRateLimit, nil))
	users.Post("/sign_in", r.h.Session.SignIn)
	users.Delete("/sign_out", r.h.Auth.TokenAuthenticate(), r.h.Session.SignOut)
	users.Post("/password", r.h.Session.RequestPasswordReset)
	users.Get("/password/edit", r.h.Session.EditPassword)
	users.Put("/password", r.h.Session.ResetPassword)
	users.Post("/confirmation", r.h.Session.SendConfirmation)
	users.Get("/confirmation", r.h.Session.Confirm)
	users.Get("/unlock", r.h.Session.Unlock)
	users.Get("/me/calendars", r.h.Auth.TokenAuthenticate(), r.h.Calendar.Mine)

	regions := api.Group("/regions", r.h.Auth.TokenAuthenticate())
	regions.Get("/", r.h.Region.Index)
	regions.Post("/", r.h.Region.Create)
	regions.Get("/:id", r.h.Region.Show)
	regions.Put("/:id", r.h.Region.Update)
	regions.Patch("/:id", r.h.Region.Update)
	regions.Delete("/:id", r.h.Region.Destroy)

	api.Get("/calendars", r.h.Auth.TokenAuthenticate(), r.h.Calendar.List)

	// Back office. Static paths first so they win over /:resource.
	loginLimit := r.rateLimiter(r.cfg.Security.AuthRateLimit, nil)
	r.app.Get("/admin/captcha", loginLimit, r.h.AdminAuth.InitCaptcha)
	r.app.Post("/admin/login", loginLimit, r.h.AdminAuth.Login)
	r.app.Post("/admin/refresh", loginLimit, r.h.AdminAuth.Refresh)

	admin := r.app.Group("/admin", r.h.Auth.AdminAuthenticate())
	admin.Post("/logout", r.h.AdminAuth.Logout)
	admin.Post("/tags", r.h.AdminResource.CreateTag)
	admin.Put("/tags/:id", r.h.AdminResource.UpdateTag)
	admin.Delete("/tags/:id", r.h.AdminResource.DeleteTag)
	admin.Post("/users/:id/unlock", r.h.AdminResource.UnlockUser)
	admin.Post("/calendars/:id/users/:user_id", r.h.AdminResource.AddCalendarMember)
	admin.Delete("/calendars/:id/users/:user_id", r.h.AdminResource.RemoveCalendarMember)
	admin.Get("/:resource/export", r.h.AdminResource.Export)
	admin.Get("/:resource", r.h.AdminResource.Index)

	r.app.Use(r.notFoundHandler)

	r.logger.Info().Msg("routes configured")
}

func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: generateRequestID,
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        r.cfg.Security.XContentTypeOptions,
		XFrameOptions:             r.cfg.Security.XFrameOptions,
		HSTSMaxAge:                r.cfg.Security.HSTSMaxAge,
		HSTSExcludeSubdomains:     !r.cfg.Security.HSTSIncludeSubDoms,
		HSTSPreloadEnabled:        r.cfg.Security.HSTSPreload,
		ContentSecurityPolicy:     r.cfg.Security.CSPPolicy,
		ReferrerPolicy:            r.cfg.Security.ReferrerPolicy,
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
		OriginAgentCluster:        "?1",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     r.cfg.Security.AllowedOrigins,
		AllowMethods:     r.cfg.Security.AllowedMethods,
		AllowHeaders:     append(r.cfg.Security.AllowedHeaders, "X-Request-ID"),
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed,
		}))
	}

	// The generated document only changes between releases
	r.app.Use(cache.New(cache.Config{
		Next: func(c fiber.Ctx) bool {
			return c.Method() != fiber.MethodGet || c.Path() != "/api/v1/swagger.json"
		},
		Expiration: r.swaggerCacheTTL(),
	}))

	if r.cfg.Logging.EnableAccessLog {
		r.app.Use(logger.New(logger.Config{
			Format:     r.cfg.Logging.AccessLogFormat,
			TimeFormat: time.RFC3339,
			TimeZone:   "UTC",
			Stream:     r.accessLog,
			Next: func(c fiber.Ctx) bool {
				return c.Path() == "/api/v1/health"
			},
		}))
	}

	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			r.logger.Error().
				Str("request_id", requestid.FromContext(c)).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Str("ip", c.IP()).
				Interface("panic", e).
				Msg("panic recovered")
		},
	}))
}

func (r *FiberRouter) swaggerCacheTTL() time.Duration {
	if r.cfg.Cache.DefaultTTL > 0 {
		return r.cfg.Cache.DefaultTTL
	}
	return 30 * time.Minute
}

func (r *FiberRouter) rateLimiter(limit int, next func(c fiber.Ctx) bool) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error:   dto.ErrorDetail{Code: "RATE_LIMIT_EXCEEDED"},
			})
		},
		Next: next,
	})
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	r.logger.Info().Str("address", address).Msg("starting server")
	if r.cfg.Security.TLSEnabled {
		return r.app.Listen(address, fiber.ListenConfig{
			CertFile:              r.cfg.Security.TLSCertFile,
			CertKeyFile:           r.cfg.Security.TLSKeyFile,
			DisableStartupMessage: true,
		})
	}
	return r.app.Listen(address, fiber.ListenConfig{DisableStartupMessage: true})
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	status, state := fiber.StatusOK, "ok"
	deps := fiber.Map{}
	for name, check := range r.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status, state = fiber.StatusServiceUnavailable, "degraded"
			continue
		}
		deps[name] = "ok"
	}

	return c.Status(status).JSON(dto.APIResponse{
		Success: status == fiber.StatusOK,
		Message: "Service health",
		Data: fiber.Map{
			"status":       state,
			"timestamp":    utils.UTCNow().Unix(),
			"version":      r.cfg.Deployment.Version,
			"commit":       r.cfg.Deployment.CommitHash,
			"build_time":   r.cfg.Deployment.BuildTime,
			"environment":  r.cfg.Deployment.Environment,
			"dependencies": deps,
		},
	})
}

func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load Swagger documentation",
			Error:   dto.ErrorDetail{Code: "SWAGGER_LOAD_ERROR"},
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendString(doc)
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

func (r *FiberRouter) errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	r.logger.Error().Err(err).
		Int("status", code).
		Str("request_id", requestid.FromContext(c)).
		Str("path", c.Path()).
		Msg("request failed")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
