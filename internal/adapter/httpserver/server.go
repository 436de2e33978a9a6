package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Type-PrAsH/SchedWise/internal/app"
	"github.com/Type-PrAsH/SchedWise/internal/domain"
	"github.com/Type-PrAsH/SchedWise/internal/ledger"
	"github.com/Type-PrAsH/SchedWise/internal/platform/config"
)

type appService interface {
	Schedule() app.ScheduleView
	Slots(day *domain.Weekday) []domain.FreeSlot
	ReplaceSchedule(ctx context.Context, intervals []domain.BusyInterval) app.ScheduleView
	AddInterval(ctx context.Context, day *domain.Weekday, from, to int) app.ScheduleView
	RemoveInterval(ctx context.Context, id uuid.UUID) (app.ScheduleView, error)
	ImportSchedule(ctx context.Context, document []byte) app.ImportResult
	Suggest(ctx context.Context, slotID uuid.UUID) (app.SuggestionResult, error)
	Profile() domain.Profile
	UpdateProfile(ctx context.Context, p domain.Profile) domain.Profile
	Session() app.SessionView
	StartSession(ctx context.Context, task domain.FocusTask) (domain.FocusSession, error)
	PauseSession(ctx context.Context) (app.SessionView, bool)
	ResumeSession(ctx context.Context) (app.SessionView, bool)
	EndSession(ctx context.Context, confirmComplete bool) (domain.FocusSession, error)
	StartWatch(ctx context.Context, title, skill string) (domain.PassiveWatch, error)
	FinishWatch(ctx context.Context) (domain.CompletedSessionRecord, error)
	Analytics() ledger.Summary
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app            appService
	metricsHandler http.Handler
	httpMetrics    echo.MiddlewareFunc
	healthChecks   []HealthCheck
	startTime      time.Time
}

// NewServer wires the routes. httpMetrics and metricsHandler may be nil.
func NewServer(cfg *config.Config, app appService, httpMetrics echo.MiddlewareFunc, metricsHandler http.Handler, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		app:            app,
		metricsHandler: metricsHandler,
		httpMetrics:    httpMetrics,
		healthChecks:   healthChecks,
		startTime:      time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP exposes the router to tests and embedding servers.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
