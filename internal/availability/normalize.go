package availability

import (
	"fmt"
	"slices"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
	"github.com/google/uuid"
)

// slotNamespace seeds deterministic slot IDs so a slot keeps its ID across recomputes.
var slotNamespace = uuid.MustParse("5f1d3c8e-7b0a-4f55-9a57-3a8e2c6d1b40")

// Result is the output of one normalization pass.
type Result struct {
	Busy     []domain.BusyInterval
	Slots    []domain.FreeSlot
	Warnings []string
}

// Normalize validates busy intervals and computes the free slots of every day
// that has at least one valid interval. Invalid intervals are dropped with a
// warning; the rest of the batch is still processed.
func Normalize(intervals []domain.BusyInterval, window domain.DayWindow) Result {
	var res Result
	byDay := make(map[domain.Weekday][]domain.BusyInterval)

	for _, iv := range intervals {
		if msg, ok := validate(iv); !ok {
			res.Warnings = append(res.Warnings, msg)
			continue
		}
		if iv.ID == uuid.Nil {
			iv.ID = uuid.New()
		}
		byDay[iv.Day] = append(byDay[iv.Day], iv)
	}

	for day := domain.Monday; day <= domain.Sunday; day++ {
		busy, ok := byDay[day]
		if !ok {
			continue
		}
		sorted, slots := sweep(day, busy, window)
		res.Busy = append(res.Busy, sorted...)
		res.Slots = append(res.Slots, slots...)
	}
	return res
}

func validate(iv domain.BusyInterval) (string, bool) {
	switch {
	case !iv.Day.Valid():
		return fmt.Sprintf("dropped interval %s-%s: unknown day %d", domain.FormatClock(iv.From), domain.FormatClock(iv.To), int(iv.Day)), false
	case iv.From < 0 || iv.To > domain.MinutesPerDay:
		return fmt.Sprintf("dropped interval on %s: %d-%d is outside the day", iv.Day, iv.From, iv.To), false
	case iv.From >= iv.To:
		return fmt.Sprintf("dropped interval %s: start is not before end", iv), false
	}
	return "", true
}

// sweep walks the intervals in start order with a cursor. Overlapping and
// adjacent intervals merge implicitly because the cursor only moves forward.
func sweep(day domain.Weekday, busy []domain.BusyInterval, window domain.DayWindow) ([]domain.BusyInterval, []domain.FreeSlot) {
	sorted := slices.Clone(busy)
	slices.SortStableFunc(sorted, func(a, b domain.BusyInterval) int {
		return a.From - b.From
	})

	var slots []domain.FreeSlot
	cursor := window.Start
	for _, iv := range sorted {
		if cursor >= window.End {
			break
		}
		if iv.From > cursor {
			slots = append(slots, newSlot(day, cursor, min(iv.From, window.End)))
		}
		cursor = max(cursor, iv.To)
	}
	if cursor < window.End {
		slots = append(slots, newSlot(day, cursor, window.End))
	}
	return sorted, slots
}

func newSlot(day domain.Weekday, from, to int) domain.FreeSlot {
	key := fmt.Sprintf("%d:%d:%d", day, from, to)
	return domain.FreeSlot{
		ID:              uuid.NewSHA1(slotNamespace, []byte(key)),
		Day:             day,
		From:            from,
		To:              to,
		DurationMinutes: to - from,
	}
}
