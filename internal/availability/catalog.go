package availability

import (
	"github.com/Type-PrAsH/SchedWise/internal/domain"
	"github.com/google/uuid"
)

// Catalog holds the ordered free slots of each scheduled day. It is rebuilt
// from scratch whenever the busy intervals change and is never edited in place.
type Catalog struct {
	window domain.DayWindow
	byDay  map[domain.Weekday][]domain.FreeSlot
	byID   map[uuid.UUID]domain.FreeSlot
}

// NewCatalog normalizes the intervals and indexes the resulting slots.
func NewCatalog(intervals []domain.BusyInterval, window domain.DayWindow) (*Catalog, Result) {
	res := Normalize(intervals, window)
	c := &Catalog{
		window: window,
		byDay:  make(map[domain.Weekday][]domain.FreeSlot),
		byID:   make(map[uuid.UUID]domain.FreeSlot, len(res.Slots)),
	}
	for _, slot := range res.Slots {
		c.byDay[slot.Day] = append(c.byDay[slot.Day], slot)
		c.byID[slot.ID] = slot
	}
	return c, res
}

func (c *Catalog) Window() domain.DayWindow { return c.window }

// Day returns the slots of one day in start order. A day that has no busy
// intervals at all is not part of the catalog and yields nil.
func (c *Catalog) Day(day domain.Weekday) []domain.FreeSlot {
	slots := c.byDay[day]
	out := make([]domain.FreeSlot, len(slots))
	copy(out, slots)
	return out
}

// All returns every slot ordered by day, then start.
func (c *Catalog) All() []domain.FreeSlot {
	out := make([]domain.FreeSlot, 0, len(c.byID))
	for day := domain.Monday; day <= domain.Sunday; day++ {
		out = append(out, c.byDay[day]...)
	}
	return out
}

func (c *Catalog) Find(id uuid.UUID) (domain.FreeSlot, bool) {
	slot, ok := c.byID[id]
	return slot, ok
}

func (c *Catalog) Len() int { return len(c.byID) }
