package httpserver

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
	apperrors "github.com/Type-PrAsH/SchedWise/internal/platform/errors"
)

// unknownDay makes the normalizer drop an interval with a warning instead of
// failing the whole request.
const unknownDay domain.Weekday = -1

type intervalRequest struct {
	Day  *string `json:"day,omitempty"`
	From string  `json:"from"`
	To   string  `json:"to"`
}

type replaceScheduleRequest struct {
	Intervals []intervalRequest `json:"intervals"`
}

func (s *Server) handleGetSchedule(c echo.Context) error {
	return writeJSON(c, http.StatusOK, s.app.Schedule())
}

func (s *Server) handleReplaceSchedule(c echo.Context) error {
	var req replaceScheduleRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	intervals := make([]domain.BusyInterval, 0, len(req.Intervals))
	for i, in := range req.Intervals {
		if in.Day == nil {
			return apperrors.ValidationError("day is required").WithContext("index", i)
		}
		from, to, err := parseRange(in.From, in.To)
		if err != nil {
			return apperrors.ValidationError(err.Error()).WithContext("index", i)
		}
		intervals = append(intervals, domain.BusyInterval{ID: uuid.New(), Day: lenientDay(*in.Day), From: from, To: to})
	}

	return writeJSON(c, http.StatusOK, s.app.ReplaceSchedule(c.Request().Context(), intervals))
}

func (s *Server) handleAddInterval(c echo.Context) error {
	var req intervalRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		return apperrors.ValidationError(err.Error())
	}

	var day *domain.Weekday
	if req.Day != nil {
		d := lenientDay(*req.Day)
		day = &d
	}
	return writeJSON(c, http.StatusCreated, s.app.AddInterval(c.Request().Context(), day, from, to))
}

func (s *Server) handleRemoveInterval(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid interval id").WithContext("id", c.Param("id"))
	}

	view, err := s.app.RemoveInterval(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, view)
}

// handleImportSchedule accepts a multipart "file" field or a raw PDF body.
func (s *Server) handleImportSchedule(c echo.Context) error {
	document, err := readUpload(c)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, s.app.ImportSchedule(c.Request().Context(), document))
}

func (s *Server) handleListSlots(c echo.Context) error {
	var day *domain.Weekday
	if raw := c.QueryParam("day"); raw != "" {
		d, ok := parseDay(raw)
		if !ok {
			return apperrors.ValidationError("invalid day").WithContext("day", raw)
		}
		day = &d
	}
	return writeJSON(c, http.StatusOK, map[string]any{"slots": s.app.Slots(day)})
}

func (s *Server) handleSuggest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid slot id").WithContext("id", c.Param("id"))
	}

	res, err := s.app.Suggest(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, res)
}

func readUpload(c echo.Context) ([]byte, error) {
	body := c.Request().Body
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, apperrors.ValidationError("unreadable upload")
		}
		defer f.Close()
		body = f
	}

	document, err := io.ReadAll(body)
	if err != nil {
		return nil, apperrors.ValidationError("unreadable upload")
	}
	if len(document) == 0 {
		return nil, apperrors.ValidationError("empty document")
	}
	return document, nil
}

// parseDay accepts a day name, a three-letter abbreviation or the index 0-6
// with Monday as 0.
func parseDay(raw string) (domain.Weekday, bool) {
	if d, ok := domain.ParseWeekday(raw); ok {
		return d, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || !domain.Weekday(n).Valid() {
		return 0, false
	}
	return domain.Weekday(n), true
}

func lenientDay(raw string) domain.Weekday {
	if d, ok := parseDay(raw); ok {
		return d
	}
	return unknownDay
}

func parseRange(from, to string) (int, int, error) {
	f, err := domain.ParseClock(from)
	if err != nil {
		return 0, 0, fmt.Errorf("from: %w", err)
	}
	t, err := domain.ParseClock(to)
	if err != nil {
		return 0, 0, fmt.Errorf("to: %w", err)
	}
	return f, t, nil
}
