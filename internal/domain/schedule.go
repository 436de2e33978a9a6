package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinutesPerDay bounds every minute-of-day value.
const MinutesPerDay = 24 * 60

// Weekday is the canonical day index of the schedule: 0 = Monday .. 6 = Sunday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

func (d Weekday) String() string {
	if !d.Valid() {
		return "Weekday(" + strconv.Itoa(int(d)) + ")"
	}
	name := weekdayNames[d]
	return strings.ToUpper(name[:1]) + name[1:]
}

// ParseWeekday accepts full English day names and three-letter abbreviations, case-insensitive.
func ParseWeekday(s string) (Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 {
		return 0, false
	}
	for i, name := range weekdayNames {
		if s == name || s == name[:3] {
			return Weekday(i), true
		}
	}
	return 0, false
}

// WeekdayOf maps a time.Time onto the Monday-based index.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// ParseClock converts "HH:MM" into minutes since midnight. "24:00" is accepted as end of day.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || len(m) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || hours*60+minutes > MinutesPerDay {
		return 0, fmt.Errorf("clock value %q out of range", s)
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// DayWindow bounds the part of the day in which free time is computed.
type DayWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// DefaultDayWindow is 06:00-22:00.
var DefaultDayWindow = DayWindow{Start: 6 * 60, End: 22 * 60}

func (w DayWindow) Valid() bool {
	return w.Start >= 0 && w.End <= MinutesPerDay && w.Start < w.End
}

// BusyInterval is a time range already committed elsewhere. From < To.
type BusyInterval struct {
	ID   uuid.UUID `json:"id"`
	Day  Weekday   `json:"day"`
	From int       `json:"from"`
	To   int       `json:"to"`
}

func (b BusyInterval) String() string {
	return fmt.Sprintf("%s %s-%s", b.Day, FormatClock(b.From), FormatClock(b.To))
}

// FreeSlot is a maximal uncommitted range within the day window.
type FreeSlot struct {
	ID              uuid.UUID `json:"id"`
	Day             Weekday   `json:"day"`
	From            int       `json:"from"`
	To              int       `json:"to"`
	DurationMinutes int       `json:"duration_minutes"`
}

func (f FreeSlot) String() string {
	return fmt.Sprintf("%s %s-%s (%dm)", f.Day, FormatClock(f.From), FormatClock(f.To), f.DurationMinutes)
}
