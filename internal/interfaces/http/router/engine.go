package router

import (
	"fmt"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/auth"
	"github.com/erp/pos/internal/infrastructure/config"
	"github.com/erp/pos/internal/infrastructure/logger"
	"github.com/erp/pos/internal/interfaces/http/handler"
	"github.com/erp/pos/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineDeps carries everything NewEngine needs to assemble the HTTP stack
type EngineDeps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Meter       metric.Meter
	JWT         *auth.JWTService
	Idempotency shared.IdempotencyStore
	System      *handler.SystemHandler
	Handlers    Handlers

	// ImageDir is served under ImagePath when product images are kept on local disk
	ImageDir  string
	ImagePath string
}

// NewEngine builds the gin engine: the global middleware chain, the root
// health and documentation endpoints, and the versioned API with its own
// authentication chain.
func NewEngine(deps EngineDeps) (*gin.Engine, error) {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(deps.Meter, log))
	engine.Use(middleware.CORS(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	if cfg.HTTP.MaxBodyBytes > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodyBytes))
	}

	if deps.System != nil {
		engine.GET("/health", deps.System.Health)
		engine.GET("/ready", deps.System.Ready)
	}

	if deps.ImageDir != "" && deps.ImagePath != "" {
		engine.Static(deps.ImagePath, deps.ImageDir)
	}

	jwtConfig := middleware.DefaultJWTConfig(deps.JWT)
	jwtConfig.Required = cfg.JWT.Required
	jwtConfig.Logger = log

	// The docs route checks tokens itself, so it gets a copy without the
	// /swagger skip prefix.
	swaggerJWT := jwtConfig
	swaggerJWT.Required = true
	swaggerJWT.SkipPathPrefixes = nil
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, middleware.JWTAuthMiddlewareWithConfig(swaggerJWT)),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(middleware.Secure())
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	r.Use(middleware.TracingAttributeInjector())
	if cfg.Telemetry.ProfilingEnabled {
		r.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))
	}
	if cfg.HTTP.RateLimit > 0 {
		r.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow)))
	}

	idempotency := middleware.Idempotency(deps.Idempotency, cfg.Idempotency, log)
	for _, group := range POSRoutes(deps.Handlers, idempotency) {
		r.Register(group)
		log.Debug("Route group registered",
			zap.String("group", group.Name()),
			zap.String("prefix", group.Prefix()),
			zap.Int("routes", group.Len()))
	}
	r.Setup()

	log.Info("HTTP routes registered", zap.Int("routes", len(engine.Routes())))
	return engine, nil
}
