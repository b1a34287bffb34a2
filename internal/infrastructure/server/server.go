package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpHandlers "github.com/DevinWangGZ/DevTeamResourceManager/internal/adapters/http"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/adapters/repository"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/application/services"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/config"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/database"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/logger"
)

// Server represents the HTTP server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
	db     *database.DB
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

	// Repositories
	userRepo := repository.NewUserRepository(db.DB)
	seqRepo := repository.NewUserSequenceRepository(db.DB)
	projectRepo := repository.NewProjectRepository(db.DB)
	taskRepo := repository.NewTaskRepository(db.DB)
	scheduleRepo := repository.NewScheduleRepository(db.DB)
	holidayRepo := repository.NewHolidayRepository(db.DB)
	statRepo := repository.NewWorkloadStatisticRepository(db.DB)
	valueRepo := repository.NewOutputValueRepository(db.DB)
	messageRepo := repository.NewMessageRepository(db.DB)

	// Services
	calendar := services.NewWorkCalendar(holidayRepo)
	scheduleService := services.NewScheduleService(taskRepo, scheduleRepo, calendar, appLogger)
	workloadService := services.NewWorkloadService(statRepo, appLogger)
	messageService := services.NewMessageService(messageRepo, appLogger)
	outputValueService := services.NewOutputValueService(taskRepo, projectRepo, seqRepo, valueRepo, appLogger)
	authService := services.NewAuthService(userRepo, cfg.JWT, appLogger)
	userService := services.NewUserService(userRepo, seqRepo, appLogger)
	projectService := services.NewProjectService(projectRepo, taskRepo, outputValueService, appLogger)
	holidayService := services.NewHolidayService(holidayRepo, appLogger)
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, scheduleService, workloadService, messageService, appLogger)

	// Handlers
	authHandler := httpHandlers.NewAuthHandler(authService, appLogger)
	userHandler := httpHandlers.NewUserHandler(userService, appLogger)
	taskHandler := httpHandlers.NewTaskHandler(taskService, scheduleService, appLogger)
	projectHandler := httpHandlers.NewProjectHandler(projectService, appLogger)
	holidayHandler := httpHandlers.NewHolidayHandler(holidayService, appLogger)
	workloadHandler := httpHandlers.NewWorkloadHandler(workloadService, appLogger)
	messageHandler := httpHandlers.NewMessageHandler(messageService, appLogger)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
		db:     db,
	}

	server.setupMiddleware()
	server.setupRoutes(authHandler, userHandler, taskHandler, projectHandler, holidayHandler, workloadHandler, messageHandler, authService)

	if cfg.Metrics.Enabled {
		server.setupMetrics()
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
				"user_agent", values.UserAgent,
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
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
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
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(
	authHandler *httpHandlers.AuthHandler,
	userHandler *httpHandlers.UserHandler,
	taskHandler *httpHandlers.TaskHandler,
	projectHandler *httpHandlers.ProjectHandler,
	holidayHandler *httpHandlers.HolidayHandler,
	workloadHandler *httpHandlers.WorkloadHandler,
	messageHandler *httpHandlers.MessageHandler,
	authService *services.AuthService,
) {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	v1 := s.echo.Group("/api/v1")

	// Auth routes (public)
	authGroup := v1.Group("/auth")
	authGroup.POST("/login", authHandler.Login)

	// User routes (authenticated)
	userGroup := v1.Group("/users", s.authMiddleware(authService))
	userGroup.GET("/me", userHandler.GetCurrentUser)
	userGroup.PUT("/me", userHandler.UpdateCurrentUser)
	userGroup.GET("", userHandler.ListUsers)
	userGroup.POST("", userHandler.CreateUser, s.requireRole(entities.UserRoleSystemAdmin))
	userGroup.GET("/:id", userHandler.GetUser)
	userGroup.PUT("/:id", userHandler.UpdateUser)
	userGroup.DELETE("/:id", userHandler.DeleteUser, s.requireRole(entities.UserRoleSystemAdmin))
	userGroup.POST("/:id/roles", userHandler.GrantRole, s.requireRole(entities.UserRoleSystemAdmin))
	userGroup.DELETE("/:id/roles/:role", userHandler.RevokeRole, s.requireRole(entities.UserRoleSystemAdmin))
	userGroup.GET("/:id/sequences", userHandler.ListSequences)
	userGroup.POST("/:id/sequences", userHandler.CreateSequence, s.requireRole(entities.UserRoleProjectManager, entities.UserRoleSystemAdmin))
	userGroup.GET("/:id/schedules", taskHandler.GetUserSchedules)
	userGroup.GET("/:id/workload", workloadHandler.GetUserSummary)

	// Sequence routes (authenticated, management enforced in the service)
	seqGroup := v1.Group("/sequences", s.authMiddleware(authService))
	seqGroup.PUT("/:seqId", userHandler.UpdateSequence)
	seqGroup.DELETE("/:seqId", userHandler.DeleteSequence)

	// Project routes (authenticated)
	projectGroup := v1.Group("/projects", s.authMiddleware(authService))
	projectGroup.GET("", projectHandler.ListProjects)
	projectGroup.POST("", projectHandler.CreateProject, s.requireRole(entities.UserRoleProjectManager, entities.UserRoleSystemAdmin))
	projectGroup.GET("/:id", projectHandler.GetProject)
	projectGroup.PUT("/:id", projectHandler.UpdateProject)
	projectGroup.DELETE("/:id", projectHandler.DeleteProject)
	projectGroup.GET("/:id/tasks", projectHandler.GetProjectTasks)
	projectGroup.GET("/:id/output-value", projectHandler.GetOutputValue)
	projectGroup.POST("/:id/output-value/recalculate", projectHandler.RecalculateOutputValue)

	// Task routes (authenticated)
	taskGroup := v1.Group("/tasks", s.authMiddleware(authService))
	taskGroup.GET("", taskHandler.ListTasks)
	taskGroup.POST("", taskHandler.CreateTask)
	taskGroup.GET("/:id", taskHandler.GetTask)
	taskGroup.PUT("/:id", taskHandler.UpdateTask)
	taskGroup.DELETE("/:id", taskHandler.DeleteTask)
	taskGroup.POST("/:id/publish", taskHandler.PublishTask)
	taskGroup.POST("/:id/claim", taskHandler.ClaimTask)
	taskGroup.POST("/:id/assign", taskHandler.AssignTask, s.requireRole(entities.UserRoleProjectManager, entities.UserRoleSystemAdmin))
	taskGroup.POST("/:id/evaluate", taskHandler.EvaluateTask)
	taskGroup.POST("/:id/start", taskHandler.StartTask)
	taskGroup.POST("/:id/submit", taskHandler.SubmitTask)
	taskGroup.POST("/:id/confirm", taskHandler.ConfirmTask, s.requireRole(entities.UserRoleProjectManager, entities.UserRoleSystemAdmin))
	taskGroup.POST("/:id/pin", taskHandler.PinTask)
	taskGroup.GET("/:id/schedule", taskHandler.GetTaskSchedule)

	// Holiday routes (authenticated)
	holidayGroup := v1.Group("/holidays", s.authMiddleware(authService))
	holidayGroup.GET("", holidayHandler.ListHolidays)
	holidayGroup.POST("", holidayHandler.CreateHoliday, s.requireRole(entities.UserRoleProjectManager, entities.UserRoleSystemAdmin))
	holidayGroup.DELETE("/:id", holidayHandler.DeleteHoliday, s.requireRole(entities.UserRoleProjectManager, entities.UserRoleSystemAdmin))

	// Workload routes (authenticated)
	workloadGroup := v1.Group("/workload", s.authMiddleware(authService))
	workloadGroup.GET("", workloadHandler.ListStatistics, s.requireRole(entities.UserRoleProjectManager, entities.UserRoleDevelopmentLead, entities.UserRoleSystemAdmin))

	// Message routes (authenticated)
	messageGroup := v1.Group("/messages", s.authMiddleware(authService))
	messageGroup.GET("", messageHandler.ListMessages)
	messageGroup.GET("/unread-count", messageHandler.CountUnread)
	messageGroup.POST("/:id/read", messageHandler.MarkRead)
	messageGroup.POST("/read-all", messageHandler.MarkAllRead)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
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

	registry.MustRegister(requestsTotal, requestDuration)

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

// authMiddleware validates JWT tokens and stores the caller as an Actor.
func (s *Server) authMiddleware(authService *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := authService.ValidateToken(parts[1])
			if err != nil {
				s.logger.Warnw("Invalid token", "error", err, "ip", c.RealIP())
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token subject")
			}

			c.Set("actor", entities.Actor{ID: userID, Roles: claims.Roles})

			return next(c)
		}
	}
}

// requireRole middleware checks whether the caller holds any of the given
// roles.
func (s *Server) requireRole(roles ...entities.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := c.Get("actor").(entities.Actor)
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "Role information not found")
			}

			if actor.HasAnyRole(roles...) {
				return next(c)
			}

			required := make([]string, len(roles))
			for i, r := range roles {
				required[i] = string(r)
			}

			s.logger.LogSecurityEvent("insufficient_permissions",
				actor.ID.String(),
				c.RealIP(),
				map[string]interface{}{
					"required_roles": required,
					"endpoint":       c.Request().URL.Path,
				})

			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
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
			"stats":  s.db.PoolStats(),
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

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.db.Ping(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
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
		} else if ve, ok := err.(validator.ValidationErrors); ok {
			code = http.StatusBadRequest
			msg = map[string]string{"message": "validation failed", "details": ve.Error()}
		} else {
			msg = map[string]string{"message": http.StatusText(code)}
		}

		if code == http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
