package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
	"github.com/google/uuid"
)

func (s *Service) Schedule() ScheduleView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.view()
}

// Slots returns the free slots of one day, or of every day when day is nil.
func (s *Service) Slots(day *domain.Weekday) []domain.FreeSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if day == nil {
		return s.state.Catalog.All()
	}
	return s.state.Catalog.Day(*day)
}

// ReplaceSchedule swaps in a new set of busy intervals. Invalid intervals are
// dropped and reported in the view's warnings.
func (s *Service) ReplaceSchedule(ctx context.Context, intervals []domain.BusyInterval) ScheduleView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSchedule(ctx, "schedule_replace", intervals)
	return s.state.view()
}

// AddInterval adds one busy interval. A nil day means the default day.
func (s *Service) AddInterval(ctx context.Context, day *domain.Weekday, from, to int) ScheduleView {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.defaultDay()
	if day != nil {
		d = *day
	}
	intervals := append(slices.Clone(s.state.Schedule), domain.BusyInterval{ID: uuid.New(), Day: d, From: from, To: to})
	s.setSchedule(ctx, "interval_add", intervals)
	return s.state.view()
}

func (s *Service) RemoveInterval(ctx context.Context, id uuid.UUID) (ScheduleView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.state.Schedule, func(b domain.BusyInterval) bool { return b.ID == id })
	if idx < 0 {
		return ScheduleView{}, fmt.Errorf("%w: %s", domain.ErrIntervalNotFound, id)
	}
	s.setSchedule(ctx, "interval_remove", slices.Delete(slices.Clone(s.state.Schedule), idx, idx+1))
	return s.state.view(), nil
}

// ImportSchedule replaces the schedule with the intervals extracted from a
// timetable document. An extraction failure leaves the schedule untouched and
// is reported in Status.
func (s *Service) ImportSchedule(ctx context.Context, document []byte) ImportResult {
	if s.deps.Extractor == nil {
		return ImportResult{Schedule: s.Schedule(), Status: "Timetable import is not configured"}
	}

	intervals, warnings, err := s.deps.Extractor.Extract(ctx, document)
	if err != nil {
		slog.WarnContext(ctx, "Timetable extraction failed", "error", err)
		return ImportResult{Schedule: s.Schedule(), Status: "Could not read the timetable: " + err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := ImportResult{Imported: len(intervals)}
	if len(intervals) == 0 {
		res.Schedule = s.state.view()
		res.Schedule.Warnings = append(res.Schedule.Warnings, warnings...)
		res.Status = "No classes found in the timetable"
		return res
	}

	s.setSchedule(ctx, "schedule_import", intervals)
	s.state.Warnings = append(warnings, s.state.Warnings...)
	res.Schedule = s.state.view()
	res.Imported = len(s.state.Schedule)
	return res
}

// setSchedule recomputes the catalog and persists both lists. Must be called with mu held.
func (s *Service) setSchedule(ctx context.Context, op string, intervals []domain.BusyInterval) {
	warnings := s.state.setSchedule(intervals, s.cfg.Window)
	if len(warnings) > 0 {
		s.deps.Metrics.NormalizerWarnings(len(warnings))
		slog.InfoContext(ctx, "Dropped invalid busy intervals", "count", len(warnings), "warnings", strings.Join(warnings, "; "))
	}
	slog.DebugContext(ctx, "Schedule recomputed", "busy", len(s.state.Schedule), "slots", s.state.Catalog.Len())

	busy := slices.Clone(s.state.Schedule)
	slots := s.state.Catalog.All()
	s.persist(ctx, op, domain.SnapshotPatch{Schedule: &busy, FreeSlots: &slots})
}

func (s *Service) Profile() domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.state.Profile
	p.Skills = slices.Clone(p.Skills)
	p.SelectedCategories = slices.Clone(p.SelectedCategories)
	return p
}

// UpdateProfile replaces the profile. Skills without a name are dropped and
// unknown priorities become Medium.
func (s *Service) UpdateProfile(ctx context.Context, p domain.Profile) domain.Profile {
	skills := make([]domain.Skill, 0, len(p.Skills))
	for _, skill := range p.Skills {
		skill.Name = strings.TrimSpace(skill.Name)
		if skill.Name == "" {
			continue
		}
		skill.Priority = domain.ParsePriority(string(skill.Priority))
		skills = append(skills, skill)
	}
	p.Skills = skills
	p.Name = strings.TrimSpace(p.Name)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Profile = p
	s.persist(ctx, "profile", domain.SnapshotPatch{Profile: &p})
	return p
}
