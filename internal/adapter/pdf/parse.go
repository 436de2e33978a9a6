package pdf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
)

// MinTextLength is the shortest document text worth parsing.
const MinTextLength = 200

const warnTooShort = "PDF text too short"

var (
	dayPattern = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tue|wed|thu|fri|sat|sun)\b`)
	// 9:00-10:30, 09.00 – 10.30, 9:00 to 10:30
	rangePattern = regexp.MustCompile(`(?i)\b(\d{1,2})[:.](\d{2})\s*(?:-|–|—|to)\s*(\d{1,2})[:.](\d{2})\b`)
)

// ParseTimetable finds time ranges line by line. A range belongs to the day
// named on its line or, failing that, the last day named above it. Ranges
// before any day name are dropped with a warning.
func ParseTimetable(text string) ([]domain.BusyInterval, []string) {
	if len(strings.TrimSpace(text)) < MinTextLength {
		return nil, []string{warnTooShort}
	}

	var (
		intervals []domain.BusyInterval
		warnings  []string
		day       domain.Weekday
		haveDay   bool
	)
	for n, line := range strings.Split(text, "\n") {
		if m := dayPattern.FindStringSubmatch(line); m != nil {
			if d, ok := domain.ParseWeekday(m[1]); ok {
				day, haveDay = d, true
			}
		}

		for _, m := range rangePattern.FindAllStringSubmatch(line, -1) {
			from, errFrom := domain.ParseClock(m[1] + ":" + m[2])
			to, errTo := domain.ParseClock(m[3] + ":" + m[4])
			if errFrom != nil || errTo != nil {
				warnings = append(warnings, fmt.Sprintf("line %d: unreadable time range %q", n+1, m[0]))
				continue
			}
			if !haveDay {
				warnings = append(warnings, fmt.Sprintf("line %d: no day for %q", n+1, m[0]))
				continue
			}
			intervals = append(intervals, domain.BusyInterval{ID: uuid.New(), Day: day, From: from, To: to})
		}
	}
	return intervals, warnings
}
