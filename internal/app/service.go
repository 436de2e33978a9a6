package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Type-PrAsH/SchedWise/internal/availability"
	"github.com/Type-PrAsH/SchedWise/internal/domain"
	"github.com/Type-PrAsH/SchedWise/internal/focus"
	"github.com/Type-PrAsH/SchedWise/internal/ledger"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

const (
	defaultSuggestionTimeout  = 20 * time.Second
	defaultSuggestionCacheTTL = 6 * time.Hour
	persistTimeout            = 5 * time.Second
)

// Config holds the service's tunables. Zero values fall back to defaults.
type Config struct {
	Window             domain.DayWindow
	Location           *time.Location
	DefaultDay         *domain.Weekday
	GoalMinutes        int
	TickInterval       time.Duration
	SuggestionTimeout  time.Duration
	SuggestionCacheTTL time.Duration
}

// Dependencies are the outside collaborators. Snapshots, Ledger and
// Suggester are required; the rest may be nil.
type Dependencies struct {
	Snapshots domain.SnapshotStore
	Ledger    domain.LedgerStore
	Suggester domain.SuggestionProvider
	Extractor domain.ExtractionProvider
	Cache     domain.SuggestionCache
	Deduper   domain.TickDeduper
	Metrics   Recorder
}

// Service is the single owner of the user's state. Every mutation runs under
// mu, persists the ledger first and the snapshot second, and logs rather than
// returns persistence failures: in-memory state stays authoritative.
type Service struct {
	cfg   Config
	deps  Dependencies
	clock clockwork.Clock

	mu      sync.Mutex
	state   State
	machine *focus.Machine
	ledger  *ledger.Ledger
	pending []domain.MinuteAccrual
	ticker  *MinuteTicker

	suggestMu     sync.Mutex
	suggestGen    uint64
	suggestCancel context.CancelFunc
	suggestGroup  singleflight.Group

	flightMu sync.Mutex
	flights  map[string]*flight
}

func NewService(cfg Config, deps Dependencies, clock clockwork.Clock) *Service {
	if !cfg.Window.Valid() {
		cfg.Window = domain.DefaultDayWindow
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.GoalMinutes <= 0 {
		cfg.GoalMinutes = ledger.DefaultGoalMinutes
	}
	if cfg.SuggestionTimeout <= 0 {
		cfg.SuggestionTimeout = defaultSuggestionTimeout
	}
	if cfg.SuggestionCacheTTL <= 0 {
		cfg.SuggestionCacheTTL = defaultSuggestionCacheTTL
	}
	if deps.Metrics == nil {
		deps.Metrics = NopRecorder{}
	}

	s := &Service{
		cfg:     cfg,
		deps:    deps,
		clock:   clock,
		machine: focus.NewMachine(clock, cfg.Location),
		ledger:  ledger.New(nil),
	}
	s.state.Catalog, _ = availability.NewCatalog(nil, cfg.Window)
	s.ticker = NewMinuteTicker(clock, cfg.TickInterval, s.Tick)
	return s
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.cfg.Location)
}

// defaultDay is the day single-entry paths use when the caller names none.
func (s *Service) defaultDay() domain.Weekday {
	if s.cfg.DefaultDay != nil {
		return *s.cfg.DefaultDay
	}
	return domain.WeekdayOf(s.now())
}

// Shutdown stops the ticker, cancels any in-flight suggestion request and
// makes a last attempt to persist unwritten minutes and the session.
func (s *Service) Shutdown(ctx context.Context) {
	s.ticker.Stop()
	s.ticker.Wait()

	s.suggestMu.Lock()
	if s.suggestCancel != nil {
		s.suggestCancel()
	}
	s.suggestMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushPending(ctx)
	s.persist(ctx, "shutdown", s.sessionPatch())
	slog.InfoContext(ctx, "Service stopped", "pending_minutes", len(s.pending))
}

// persist merges patch into the stored snapshot. Failures are logged only.
func (s *Service) persist(ctx context.Context, op string, patch domain.SnapshotPatch) {
	if patch.Empty() {
		return
	}
	patch.At = s.clock.Now()

	ctx, cancel := storeContext(ctx)
	defer cancel()
	if err := s.deps.Snapshots.SaveSnapshot(ctx, patch); err != nil {
		s.deps.Metrics.PersistFailure("snapshot")
		slog.WarnContext(ctx, "Snapshot save failed, keeping in-memory state", "op", op, "error", err)
	}
}

// storeContext detaches a write from the caller's cancellation so a client
// hanging up mid-request does not abort persistence.
func storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

// sessionPatch captures the current session and watch, clearing whichever is idle.
func (s *Service) sessionPatch() domain.SnapshotPatch {
	var p domain.SnapshotPatch
	if session := s.machine.Session(); session != nil {
		p.ActiveSession = session
	} else {
		p.ClearActiveSession = true
	}
	if watch := s.machine.Watch(); watch != nil {
		p.ActiveWatch = watch
	} else {
		p.ClearActiveWatch = true
	}
	return p
}
