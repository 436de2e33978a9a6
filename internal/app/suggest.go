package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
	"github.com/google/uuid"
)

const (
	maxSuggestions    = 3
	statusUnavailable = "Suggestions are unavailable right now. Pick a task of your own or try again."
	statusNoneFound   = "No suggestions for this slot. Pick a task of your own."
)

// Suggest asks the provider for tasks that fit a free slot. A newer call
// supersedes this one: its context is cancelled and it returns
// domain.ErrStaleRequest instead of a result. Provider failures are not
// errors; they yield an empty list and a status message.
func (s *Service) Suggest(ctx context.Context, slotID uuid.UUID) (SuggestionResult, error) {
	s.mu.Lock()
	slot, ok := s.state.Catalog.Find(slotID)
	skills := s.state.skillsByPriority()
	s.mu.Unlock()
	if !ok {
		return SuggestionResult{}, fmt.Errorf("%w: %s", domain.ErrSlotNotFound, slotID)
	}

	// Join before superseding so an identical newer request keeps the
	// shared provider call alive.
	key := suggestionKey(slot, skills)
	fl := s.joinFlight(ctx, key)
	defer s.leaveFlight(key, fl)

	reqCtx, gen := s.beginSuggest(ctx)
	defer s.endSuggest(gen)
	tasks, err := s.fetchSuggestions(reqCtx, fl, key, slot, skills)

	if !s.currentSuggest(gen) {
		s.deps.Metrics.SuggestionOutcome("stale")
		slog.DebugContext(ctx, "Dropped stale suggestion result", "slot_id", slotID.String())
		return SuggestionResult{}, domain.ErrStaleRequest
	}
	if err != nil {
		s.deps.Metrics.SuggestionOutcome("failed")
		slog.WarnContext(ctx, "Suggestion provider failed", "slot_id", slotID.String(), "error", err)
		return SuggestionResult{Slot: slot, Tasks: []domain.FocusTask{}, Status: statusUnavailable}, nil
	}

	tasks = normalizeSuggestions(tasks, slot)
	if len(tasks) == 0 {
		s.deps.Metrics.SuggestionOutcome("empty")
		return SuggestionResult{Slot: slot, Tasks: tasks, Status: statusNoneFound}, nil
	}
	s.deps.Metrics.SuggestionOutcome("ok")
	return SuggestionResult{Slot: slot, Tasks: tasks}, nil
}

// beginSuggest cancels the previous request and hands out a new generation.
func (s *Service) beginSuggest(ctx context.Context) (context.Context, uint64) {
	s.suggestMu.Lock()
	defer s.suggestMu.Unlock()

	if s.suggestCancel != nil {
		s.suggestCancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.suggestCancel = cancel
	s.suggestGen++
	return reqCtx, s.suggestGen
}

// endSuggest releases the request context unless a newer request already did.
func (s *Service) endSuggest(gen uint64) {
	s.suggestMu.Lock()
	defer s.suggestMu.Unlock()
	if gen == s.suggestGen && s.suggestCancel != nil {
		s.suggestCancel()
		s.suggestCancel = nil
	}
}

func (s *Service) currentSuggest(gen uint64) bool {
	s.suggestMu.Lock()
	defer s.suggestMu.Unlock()
	return gen == s.suggestGen
}

// flight is one shared provider call and the requests waiting on it. Its
// context outlives any single waiter and is cancelled when the last one
// leaves.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (s *Service) joinFlight(ctx context.Context, key string) *flight {
	s.flightMu.Lock()
	defer s.flightMu.Unlock()

	if s.flights == nil {
		s.flights = make(map[string]*flight)
	}
	fl, ok := s.flights[key]
	if !ok {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SuggestionTimeout)
		fl = &flight{ctx: callCtx, cancel: cancel}
		s.flights[key] = fl
	}
	fl.waiters++
	return fl
}

// leaveFlight cancels the provider call once nobody waits for it. The key is
// forgotten too, so a later request starts a fresh call instead of joining
// the cancelled one.
func (s *Service) leaveFlight(key string, fl *flight) {
	s.flightMu.Lock()
	defer s.flightMu.Unlock()

	fl.waiters--
	if fl.waiters > 0 {
		return
	}
	fl.cancel()
	if s.flights[key] == fl {
		delete(s.flights, key)
		s.suggestGroup.Forget(key)
	}
}

// fetchSuggestions consults the cache, then the provider. Identical
// concurrent requests share one provider call running on the flight's
// context; each caller still returns as soon as its own context is done.
func (s *Service) fetchSuggestions(ctx context.Context, fl *flight, key string, slot domain.FreeSlot, skills []domain.Skill) ([]domain.FocusTask, error) {
	if s.deps.Cache != nil {
		if tasks, ok := s.deps.Cache.Get(ctx, key); ok {
			s.deps.Metrics.SuggestionOutcome("cache_hit")
			return tasks, nil
		}
	}

	ch := s.suggestGroup.DoChan(key, func() (any, error) {
		tasks, err := s.deps.Suggester.GetSuggestions(fl.ctx, slot, skills)
		if err != nil {
			return nil, err
		}
		if s.deps.Cache != nil && len(tasks) > 0 {
			s.deps.Cache.Set(fl.ctx, key, tasks, s.cfg.SuggestionCacheTTL)
		}
		return tasks, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		tasks, _ := res.Val.([]domain.FocusTask)
		return tasks, nil
	}
}

func suggestionKey(slot domain.FreeSlot, skills []domain.Skill) string {
	var b strings.Builder
	b.WriteString(slot.ID.String())
	for _, skill := range skills {
		b.WriteByte('|')
		b.WriteString(skill.Name)
		b.WriteByte(':')
		b.WriteString(string(skill.Priority))
	}
	return b.String()
}

// normalizeSuggestions trims the list to three usable tasks that fit the slot
// and marks exactly one of them as recommended.
func normalizeSuggestions(tasks []domain.FocusTask, slot domain.FreeSlot) []domain.FocusTask {
	out := make([]domain.FocusTask, 0, maxSuggestions)
	recommended := -1
	for _, t := range tasks {
		if len(out) == maxSuggestions {
			break
		}
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			continue
		}
		if t.PlannedDurationMinutes <= 0 || t.PlannedDurationMinutes > slot.DurationMinutes {
			t.PlannedDurationMinutes = slot.DurationMinutes
		}
		if t.Kind == "" {
			t.Kind = domain.KindForDuration(slot.DurationMinutes)
		} else {
			t.Kind = domain.ParseTaskKind(string(t.Kind))
		}
		if t.Recommended && recommended < 0 {
			recommended = len(out)
		}
		t.Recommended = false
		out = append(out, t)
	}
	if len(out) > 0 {
		out[max(recommended, 0)].Recommended = true
	}
	return out
}
