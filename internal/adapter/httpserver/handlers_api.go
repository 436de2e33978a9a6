package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Type-PrAsH/SchedWise/internal/app"
	"github.com/Type-PrAsH/SchedWise/internal/domain"
	apperrors "github.com/Type-PrAsH/SchedWise/internal/platform/errors"
)

type endSessionRequest struct {
	Complete bool `json:"complete"`
}

type startWatchRequest struct {
	Title string `json:"title"`
	Skill string `json:"skill"`
}

// toggleResponse reports whether a pause or resume changed anything.
type toggleResponse struct {
	Applied bool `json:"applied"`
	app.SessionView
}

func (s *Server) handleGetProfile(c echo.Context) error {
	return writeJSON(c, http.StatusOK, s.app.Profile())
}

func (s *Server) handleUpdateProfile(c echo.Context) error {
	var p domain.Profile
	if err := bindJSON(c, &p); err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, s.app.UpdateProfile(c.Request().Context(), p))
}

func (s *Server) handleGetSession(c echo.Context) error {
	return writeJSON(c, http.StatusOK, s.app.Session())
}

func (s *Server) handleStartSession(c echo.Context) error {
	var task domain.FocusTask
	if err := bindJSON(c, &task); err != nil {
		return err
	}

	session, err := s.app.StartSession(c.Request().Context(), task)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusCreated, session)
}

func (s *Server) handlePauseSession(c echo.Context) error {
	view, applied := s.app.PauseSession(c.Request().Context())
	return writeJSON(c, http.StatusOK, toggleResponse{Applied: applied, SessionView: view})
}

func (s *Server) handleResumeSession(c echo.Context) error {
	view, applied := s.app.ResumeSession(c.Request().Context())
	return writeJSON(c, http.StatusOK, toggleResponse{Applied: applied, SessionView: view})
}

func (s *Server) handleEndSession(c echo.Context) error {
	var req endSessionRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	ended, err := s.app.EndSession(c.Request().Context(), req.Complete)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, ended)
}

func (s *Server) handleStartWatch(c echo.Context) error {
	var req startWatchRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Skill) == "" {
		return apperrors.ValidationError("skill is required")
	}

	watch, err := s.app.StartWatch(c.Request().Context(), req.Title, req.Skill)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusCreated, watch)
}

func (s *Server) handleFinishWatch(c echo.Context) error {
	rec, err := s.app.FinishWatch(c.Request().Context())
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, rec)
}

func (s *Server) handleAnalytics(c echo.Context) error {
	return writeJSON(c, http.StatusOK, s.app.Analytics())
}

// bindJSON decodes the request body. An empty body leaves v untouched.
func bindJSON(c echo.Context, v any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		return apperrors.ValidationError("invalid request body").WithContext("path", c.Path())
	}
	return nil
}

func writeJSON(c echo.Context, status int, v any) error {
	if err := c.JSON(status, v); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
