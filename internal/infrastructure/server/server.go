package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpHandlers "github.com/dayflow/core/internal/adapters/http"
	"github.com/dayflow/core/internal/adapters/repository"
	"github.com/dayflow/core/internal/adapters/transport"
	"github.com/dayflow/core/internal/application/services"
	"github.com/dayflow/core/internal/infrastructure/config"
	"github.com/dayflow/core/internal/infrastructure/database"
	"github.com/dayflow/core/internal/infrastructure/logger"
)

// Server represents the HTTP server
type Server struct {
	echo     *echo.Echo
	config   *config.Config
	logger   *logger.Logger
	db       *database.DB
	autoSync *services.AutoSync
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, db *database.DB, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	e.Validator = &CustomValidator{validator: validator.New()}

	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize repositories
	itemRepo := repository.NewItemRepository(db)
	moodRepo := repository.NewMoodRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Initialize the sync pipeline: transport -> snapshot codec -> engine
	// -> debounced auto-sync trigger. The trigger's Notify is injected
	// into every mutating service below.
	remoteTransport := transport.NewDriveTransport(cfg.Sync.FetchTimeout, appLogger)
	snapshotService := services.NewSnapshotService(itemRepo, moodRepo, settingsRepo, appLogger)
	syncService := services.NewSyncService(remoteTransport, snapshotService, settingsRepo, appLogger)
	autoSync := services.NewAutoSync(syncService, settingsRepo, cfg.Sync.Debounce, appLogger)

	// Initialize services
	itemService := services.NewItemService(itemRepo, settingsRepo, appLogger, autoSync.Notify)
	moodService := services.NewMoodService(moodRepo, settingsRepo, appLogger, autoSync.Notify)
	tagService := services.NewTagService(settingsRepo, appLogger, autoSync.Notify)
	settingsService := services.NewSettingsService(settingsRepo, syncService, appLogger)

	// Initialize handlers
	itemHandler := httpHandlers.NewItemHandler(itemService, appLogger)
	moodHandler := httpHandlers.NewMoodHandler(moodService, appLogger)
	tagHandler := httpHandlers.NewTagHandler(tagService, appLogger)
	syncHandler := httpHandlers.NewSyncHandler(syncService, snapshotService, settingsService, appLogger)

	server := &Server{
		echo:     e,
		config:   cfg,
		logger:   appLogger,
		db:       db,
		autoSync: autoSync,
	}

	server.setupMiddleware()
	server.setupRoutes(itemHandler, moodHandler, tagHandler, syncHandler)

	if cfg.Metrics.Enabled {
		server.setupMetrics(syncService)
	}

	// Reflect persisted sync settings into the engine's initial state.
	if err := syncService.RefreshEnabledState(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize sync state: %w", err)
	}

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(s.config.Security.RateLimitRequests), Burst: s.config.Security.RateLimitRequests, ExpiresIn: s.config.Security.RateLimitWindow},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
		},
	}))

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))

	s.echo.Use(middleware.RequestID())
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(itemHandler *httpHandlers.ItemHandler, moodHandler *httpHandlers.MoodHandler, tagHandler *httpHandlers.TagHandler, syncHandler *httpHandlers.SyncHandler) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Task routes
	taskGroup := v1.Group("/tasks")
	taskGroup.GET("", itemHandler.ListItems)
	taskGroup.POST("", itemHandler.CreateItem)
	taskGroup.GET("/:id", itemHandler.GetItem)
	taskGroup.PUT("/:id", itemHandler.UpdateItem)
	taskGroup.POST("/:id/toggle", itemHandler.ToggleItem)
	taskGroup.DELETE("/:id", itemHandler.DeleteItem)

	// Habit/mood routes
	habitGroup := v1.Group("/habits")
	habitGroup.GET("", moodHandler.ListEntries)
	habitGroup.PUT("", moodHandler.UpsertEntry)
	habitGroup.GET("/:date", moodHandler.GetEntry)
	habitGroup.DELETE("/:date", moodHandler.DeleteEntry)

	// Tag routes
	tagGroup := v1.Group("/tags")
	tagGroup.GET("", tagHandler.ListTags)
	tagGroup.POST("", tagHandler.AddTag)
	tagGroup.PUT("/:id", tagHandler.UpdateTag)
	tagGroup.DELETE("/:id", tagHandler.RemoveTag)

	// Sync and settings routes
	v1.POST("/sync", syncHandler.Sync)
	v1.GET("/sync/status", syncHandler.Status)
	v1.GET("/settings/sync", syncHandler.GetSyncSettings)
	v1.PUT("/settings/sync", syncHandler.UpdateSyncSettings)
	v1.GET("/settings/theme", syncHandler.GetTheme)
	v1.PUT("/settings/theme", syncHandler.SaveTheme)

	// Data export / restore
	v1.GET("/data/export", syncHandler.Export)
	v1.POST("/data/import", syncHandler.Import)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics(syncService *services.SyncService) {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	syncState := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "sync_in_progress",
			Help: "Whether a sync run is currently in flight",
		},
		func() float64 {
			state, _ := syncService.State()
			if state == "syncing" {
				return 1
			}
			return 0
		},
	)

	registry.MustRegister(requestsTotal, requestDuration, syncState)

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if err := s.db.HealthCheck(); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"stats":  s.db.GetConnectionInfo(),
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Info("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	s.autoSync.Stop()
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			msg = he.Message
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else if e, ok := err.(validator.ValidationErrors); ok {
			code = http.StatusBadRequest
			msg = map[string]string{"message": "validation failed", "details": e.Error()}
		} else {
			msg = map[string]string{"message": http.StatusText(code)}
		}

		if code == http.StatusInternalServerError {
			logger.Error("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Error("Error sending response", "error", err)
			}
		}
	}
}
