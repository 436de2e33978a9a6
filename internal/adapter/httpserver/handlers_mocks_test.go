package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Type-PrAsH/SchedWise/internal/app"
	"github.com/Type-PrAsH/SchedWise/internal/domain"
	"github.com/Type-PrAsH/SchedWise/internal/ledger"
	"github.com/Type-PrAsH/SchedWise/internal/platform/config"
)

// --- Mock implementations ---

type mockAppService struct {
	scheduleFn        func() app.ScheduleView
	slotsFn           func(day *domain.Weekday) []domain.FreeSlot
	replaceScheduleFn func(ctx context.Context, intervals []domain.BusyInterval) app.ScheduleView
	addIntervalFn     func(ctx context.Context, day *domain.Weekday, from, to int) app.ScheduleView
	removeIntervalFn  func(ctx context.Context, id uuid.UUID) (app.ScheduleView, error)
	importScheduleFn  func(ctx context.Context, document []byte) app.ImportResult
	suggestFn         func(ctx context.Context, slotID uuid.UUID) (app.SuggestionResult, error)
	profileFn         func() domain.Profile
	updateProfileFn   func(ctx context.Context, p domain.Profile) domain.Profile
	sessionFn         func() app.SessionView
	startSessionFn    func(ctx context.Context, task domain.FocusTask) (domain.FocusSession, error)
	pauseSessionFn    func(ctx context.Context) (app.SessionView, bool)
	resumeSessionFn   func(ctx context.Context) (app.SessionView, bool)
	endSessionFn      func(ctx context.Context, confirmComplete bool) (domain.FocusSession, error)
	startWatchFn      func(ctx context.Context, title, skill string) (domain.PassiveWatch, error)
	finishWatchFn     func(ctx context.Context) (domain.CompletedSessionRecord, error)
	analyticsFn       func() ledger.Summary
}

func (m *mockAppService) Schedule() app.ScheduleView {
	if m.scheduleFn != nil {
		return m.scheduleFn()
	}
	return app.ScheduleView{Window: domain.DefaultDayWindow}
}

func (m *mockAppService) Slots(day *domain.Weekday) []domain.FreeSlot {
	if m.slotsFn != nil {
		return m.slotsFn(day)
	}
	return []domain.FreeSlot{}
}

func (m *mockAppService) ReplaceSchedule(ctx context.Context, intervals []domain.BusyInterval) app.ScheduleView {
	if m.replaceScheduleFn != nil {
		return m.replaceScheduleFn(ctx, intervals)
	}
	return app.ScheduleView{Busy: intervals}
}

func (m *mockAppService) AddInterval(ctx context.Context, day *domain.Weekday, from, to int) app.ScheduleView {
	if m.addIntervalFn != nil {
		return m.addIntervalFn(ctx, day, from, to)
	}
	return app.ScheduleView{}
}

func (m *mockAppService) RemoveInterval(ctx context.Context, id uuid.UUID) (app.ScheduleView, error) {
	if m.removeIntervalFn != nil {
		return m.removeIntervalFn(ctx, id)
	}
	return app.ScheduleView{}, domain.ErrIntervalNotFound
}

func (m *mockAppService) ImportSchedule(ctx context.Context, document []byte) app.ImportResult {
	if m.importScheduleFn != nil {
		return m.importScheduleFn(ctx, document)
	}
	return app.ImportResult{}
}

func (m *mockAppService) Suggest(ctx context.Context, slotID uuid.UUID) (app.SuggestionResult, error) {
	if m.suggestFn != nil {
		return m.suggestFn(ctx, slotID)
	}
	return app.SuggestionResult{}, domain.ErrSlotNotFound
}

func (m *mockAppService) Profile() domain.Profile {
	if m.profileFn != nil {
		return m.profileFn()
	}
	return domain.Profile{}
}

func (m *mockAppService) UpdateProfile(ctx context.Context, p domain.Profile) domain.Profile {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, p)
	}
	return p
}

func (m *mockAppService) Session() app.SessionView {
	if m.sessionFn != nil {
		return m.sessionFn()
	}
	return app.SessionView{}
}

func (m *mockAppService) StartSession(ctx context.Context, task domain.FocusTask) (domain.FocusSession, error) {
	if m.startSessionFn != nil {
		return m.startSessionFn(ctx, task)
	}
	return domain.FocusSession{ID: uuid.New(), Task: task, State: domain.StateRunning, StartedAt: time.Now()}, nil
}

func (m *mockAppService) PauseSession(ctx context.Context) (app.SessionView, bool) {
	if m.pauseSessionFn != nil {
		return m.pauseSessionFn(ctx)
	}
	return app.SessionView{}, false
}

func (m *mockAppService) ResumeSession(ctx context.Context) (app.SessionView, bool) {
	if m.resumeSessionFn != nil {
		return m.resumeSessionFn(ctx)
	}
	return app.SessionView{}, false
}

func (m *mockAppService) EndSession(ctx context.Context, confirmComplete bool) (domain.FocusSession, error) {
	if m.endSessionFn != nil {
		return m.endSessionFn(ctx, confirmComplete)
	}
	return domain.FocusSession{}, domain.ErrNoActiveSession
}

func (m *mockAppService) StartWatch(ctx context.Context, title, skill string) (domain.PassiveWatch, error) {
	if m.startWatchFn != nil {
		return m.startWatchFn(ctx, title, skill)
	}
	return domain.PassiveWatch{ID: uuid.New(), Title: title, SkillName: skill}, nil
}

func (m *mockAppService) FinishWatch(ctx context.Context) (domain.CompletedSessionRecord, error) {
	if m.finishWatchFn != nil {
		return m.finishWatchFn(ctx)
	}
	return domain.CompletedSessionRecord{}, domain.ErrNoActiveSession
}

func (m *mockAppService) Analytics() ledger.Summary {
	if m.analyticsFn != nil {
		return m.analyticsFn()
	}
	return ledger.Summary{MVPSkill: "No data yet"}
}

// --- Test helpers ---

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	srv := &Server{
		echo:      echo.New(),
		config:    &config.Config{Port: "0"},
		app:       app,
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withMetricsHandler(h http.Handler) func(*Server) {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// do sends a request through the full middleware stack.
func do(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}
