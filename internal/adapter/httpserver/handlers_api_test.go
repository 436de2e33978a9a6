package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Type-PrAsH/SchedWise/internal/app"
	"github.com/Type-PrAsH/SchedWise/internal/domain"
	"github.com/Type-PrAsH/SchedWise/internal/ledger"
	"github.com/Type-PrAsH/SchedWise/internal/platform/correlation"
	apperrors "github.com/Type-PrAsH/SchedWise/internal/platform/errors"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestReplaceSchedule(t *testing.T) {
	var got []domain.BusyInterval
	srv := newTestServer(t, &mockAppService{
		replaceScheduleFn: func(_ context.Context, intervals []domain.BusyInterval) app.ScheduleView {
			got = intervals
			return app.ScheduleView{Busy: intervals}
		},
	})

	rec := do(srv, http.MethodPut, "/api/schedule",
		`{"intervals":[{"day":"Monday","from":"09:00","to":"10:30"},{"day":"2","from":"13:00","to":"14:00"},{"day":"Funday","from":"08:00","to":"09:00"}]}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, got, 3)
	assert.Equal(t, domain.Monday, got[0].Day)
	assert.Equal(t, 540, got[0].From)
	assert.Equal(t, 630, got[0].To)
	assert.Equal(t, domain.Wednesday, got[1].Day)
	assert.False(t, got[2].Day.Valid(), "unknown day names are left for the normalizer to drop")
	assert.NotEqual(t, uuid.Nil, got[0].ID)
}

func TestReplaceSchedule_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing day", `{"intervals":[{"from":"09:00","to":"10:00"}]}`, "day is required"},
		{"bad clock", `{"intervals":[{"day":"Mon","from":"9am","to":"10:00"}]}`, "from"},
		{"not json", `{"intervals":`, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &mockAppService{
				replaceScheduleFn: func(context.Context, []domain.BusyInterval) app.ScheduleView {
					t.Fatal("service must not be called")
					return app.ScheduleView{}
				},
			})

			rec := do(srv, http.MethodPut, "/api/schedule", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeError(t, rec).Error, tt.want)
		})
	}
}

func TestAddInterval_DefaultDay(t *testing.T) {
	var gotDay *domain.Weekday
	var gotFrom, gotTo int
	srv := newTestServer(t, &mockAppService{
		addIntervalFn: func(_ context.Context, day *domain.Weekday, from, to int) app.ScheduleView {
			gotDay, gotFrom, gotTo = day, from, to
			return app.ScheduleView{}
		},
	})

	rec := do(srv, http.MethodPost, "/api/schedule/intervals", `{"from":"06:00","to":"07:15"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, gotDay)
	assert.Equal(t, 360, gotFrom)
	assert.Equal(t, 435, gotTo)
}

func TestRemoveInterval(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := do(srv, http.MethodDelete, "/api/schedule/intervals/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(srv, http.MethodDelete, "/api/schedule/intervals/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.TypeNotFound, decodeError(t, rec).Type)
}

func TestImportSchedule_Multipart(t *testing.T) {
	var got []byte
	srv := newTestServer(t, &mockAppService{
		importScheduleFn: func(_ context.Context, document []byte) app.ImportResult {
			got = document
			return app.ImportResult{Imported: 4}
		},
	})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "timetable.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/schedule/import", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "%PDF-1.4 fake", string(got))
	assert.Contains(t, rec.Body.String(), `"imported":4`)
}

func TestImportSchedule_RawBody(t *testing.T) {
	var got []byte
	srv := newTestServer(t, &mockAppService{
		importScheduleFn: func(_ context.Context, document []byte) app.ImportResult {
			got = document
			return app.ImportResult{Status: "No classes found in the timetable"}
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/schedule/import", bytes.NewReader([]byte("%PDF raw")))
	req.Header.Set(echo.HeaderContentType, "application/pdf")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF raw", string(got))

	rec = do(srv, http.MethodPost, "/api/schedule/import", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty document", decodeError(t, rec).Error)
}

func TestListSlots(t *testing.T) {
	var gotDay *domain.Weekday
	srv := newTestServer(t, &mockAppService{
		slotsFn: func(day *domain.Weekday) []domain.FreeSlot {
			gotDay = day
			return []domain.FreeSlot{{ID: uuid.New(), Day: domain.Friday, From: 360, To: 480, DurationMinutes: 120}}
		},
	})

	rec := do(srv, http.MethodGet, "/api/slots?day=4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotDay)
	assert.Equal(t, domain.Friday, *gotDay)
	assert.Contains(t, rec.Body.String(), `"duration_minutes":120`)

	rec = do(srv, http.MethodGet, "/api/slots?day=fri", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Friday, *gotDay)

	rec = do(srv, http.MethodGet, "/api/slots", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, gotDay)

	rec = do(srv, http.MethodGet, "/api/slots?day=9", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggest(t *testing.T) {
	slotID := uuid.New()
	srv := newTestServer(t, &mockAppService{
		suggestFn: func(_ context.Context, id uuid.UUID) (app.SuggestionResult, error) {
			if id != slotID {
				return app.SuggestionResult{}, domain.ErrSlotNotFound
			}
			return app.SuggestionResult{Tasks: []domain.FocusTask{{Title: "Flashcards", SkillName: "Spanish", Recommended: true}}}, nil
		},
	})

	rec := do(srv, http.MethodPost, "/api/slots/"+slotID.String()+"/suggestions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Flashcards"`)

	rec = do(srv, http.MethodPost, "/api/slots/"+uuid.NewString()+"/suggestions", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSuggest_StaleIsConflict(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		suggestFn: func(context.Context, uuid.UUID) (app.SuggestionResult, error) {
			return app.SuggestionResult{}, domain.ErrStaleRequest
		},
	})

	rec := do(srv, http.MethodPost, "/api/slots/"+uuid.NewString()+"/suggestions", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStartSession(t *testing.T) {
	var got domain.FocusTask
	srv := newTestServer(t, &mockAppService{
		startSessionFn: func(_ context.Context, task domain.FocusTask) (domain.FocusSession, error) {
			got = task
			return domain.FocusSession{ID: uuid.New(), Task: task, State: domain.StateRunning, RemainingMinutes: task.PlannedDurationMinutes}, nil
		},
	})

	rec := do(srv, http.MethodPost, "/api/session/start", `{"title":"Integrals","skill":"Math","duration":25,"type":"practice"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Integrals", got.Title)
	assert.Equal(t, "Math", got.SkillName)
	assert.Equal(t, 25, got.PlannedDurationMinutes)
	assert.Equal(t, domain.TaskKindPractice, got.Kind)
}

func TestStartSession_AlreadyActive(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		startSessionFn: func(context.Context, domain.FocusTask) (domain.FocusSession, error) {
			return domain.FocusSession{}, domain.ErrSessionAlreadyActive
		},
	})

	rec := do(srv, http.MethodPost, "/api/session/start", `{"title":"Again","skill":"Math","duration":10}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.TypeConflict, decodeError(t, rec).Type)
}

func TestPauseResume_ReportApplied(t *testing.T) {
	session := &domain.FocusSession{ID: uuid.New(), State: domain.StatePaused}
	srv := newTestServer(t, &mockAppService{
		pauseSessionFn: func(context.Context) (app.SessionView, bool) {
			return app.SessionView{Session: session}, true
		},
	})

	rec := do(srv, http.MethodPost, "/api/session/pause", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Applied bool                 `json:"applied"`
		Session *domain.FocusSession `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Applied)
	require.NotNil(t, resp.Session)
	assert.Equal(t, session.ID, resp.Session.ID)

	rec = do(srv, http.MethodPost, "/api/session/resume", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"applied":false`)
}

func TestEndSession(t *testing.T) {
	var confirmed bool
	srv := newTestServer(t, &mockAppService{
		endSessionFn: func(_ context.Context, confirmComplete bool) (domain.FocusSession, error) {
			confirmed = confirmComplete
			return domain.FocusSession{State: domain.StateCompleted, AccruedMinutes: 25}, nil
		},
	})

	rec := do(srv, http.MethodPost, "/api/session/end", `{"complete":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, confirmed)

	srv = newTestServer(t, &mockAppService{})
	rec = do(srv, http.MethodPost, "/api/session/end", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWatch(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		finishWatchFn: func(context.Context) (domain.CompletedSessionRecord, error) {
			return domain.CompletedSessionRecord{SkillName: "Guitar", DurationMinutes: 12, SessionType: domain.SessionTypePassive}, nil
		},
	})

	rec := do(srv, http.MethodPost, "/api/watch/start", `{"title":"Chord lesson","skill":"Guitar"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(srv, http.MethodPost, "/api/watch/start", `{"title":"Nothing"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(srv, http.MethodPost, "/api/watch/finish", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"session_type":"passive"`)
}

func TestProfile(t *testing.T) {
	var got domain.Profile
	srv := newTestServer(t, &mockAppService{
		updateProfileFn: func(_ context.Context, p domain.Profile) domain.Profile {
			got = p
			return p
		},
	})

	rec := do(srv, http.MethodPut, "/api/profile",
		`{"name":"Ada","skills":[{"name":"Math","category":"STEM","priority":"High"}],"completed_onboarding":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ada", got.Name)
	require.Len(t, got.Skills, 1)
	assert.Equal(t, domain.PriorityHigh, got.Skills[0].Priority)
	assert.True(t, got.CompletedOnboarding)
}

func TestAnalytics(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		analyticsFn: func() ledger.Summary {
			return ledger.Summary{TotalMinutes: 90, Streak: 3, MVPSkill: "Math", Score: 71}
		},
	})

	rec := do(srv, http.MethodGet, "/api/analytics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_minutes":90`)
	assert.Contains(t, rec.Body.String(), `"mvp_skill":"Math"`)
}

func TestResponsesCarryCorrelationID(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set(correlation.Header, "trace-123")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "trace-123", rec.Header().Get(correlation.Header))
}
