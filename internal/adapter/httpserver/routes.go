package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const uploadLimit = "10M"

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	if s.httpMetrics != nil {
		s.echo.Use(s.httpMetrics)
	}
	s.echo.Use(ErrorHandlingMiddleware())
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            63072000, // 2 years; only sent over HTTPS
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	s.registerHealthRoutes()
	if s.metricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}
	s.registerAPIRoutes()
}

func (s *Server) registerAPIRoutes() {
	api := s.echo.Group("/api", apiLimit.middleware())
	expensive := expensiveLimit.middleware()

	api.GET("/schedule", s.handleGetSchedule)
	api.PUT("/schedule", s.handleReplaceSchedule)
	api.POST("/schedule/intervals", s.handleAddInterval)
	api.DELETE("/schedule/intervals/:id", s.handleRemoveInterval)
	api.POST("/schedule/import", s.handleImportSchedule, expensive, middleware.BodyLimit(uploadLimit))

	api.GET("/slots", s.handleListSlots)
	api.POST("/slots/:id/suggestions", s.handleSuggest, expensive)

	api.GET("/profile", s.handleGetProfile)
	api.PUT("/profile", s.handleUpdateProfile)

	api.GET("/session", s.handleGetSession)
	api.POST("/session/start", s.handleStartSession)
	api.POST("/session/pause", s.handlePauseSession)
	api.POST("/session/resume", s.handleResumeSession)
	api.POST("/session/end", s.handleEndSession)

	api.POST("/watch/start", s.handleStartWatch)
	api.POST("/watch/finish", s.handleFinishWatch)

	api.GET("/analytics", s.handleAnalytics)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}
