// Package heuristic suggests focus tasks from fixed templates. It is used
// when no language model is configured and needs no network.
package heuristic

import (
	"context"
	"fmt"
	"slices"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
)

const suggestionCount = 3

const generalSkill = "General"

type template struct {
	title       string
	description string
}

var templates = map[domain.TaskKind][]template{
	domain.TaskKindLight: {
		{"%s flashcards", "Run through a short deck and flag anything you hesitate on."},
		{"Quick %s review", "Skim your latest notes and write down one open question."},
		{"Read up on %s", "One article or chapter section, no highlighting marathon."},
	},
	domain.TaskKindPractice: {
		{"%s problem set", "Solve a handful of exercises without peeking at solutions."},
		{"Active recall: %s", "Close the book and reconstruct the last topic from memory."},
		{"%s drills", "Repeat the trickiest technique until it stops being tricky."},
	},
	domain.TaskKindDeep: {
		{"Deep dive into %s", "Pick one concept and work it out from first principles."},
		{"%s project block", "Move a real project forward by one visible step."},
		{"Write about %s", "Explain a topic in your own words as if teaching it."},
	},
}

// Provider implements domain.SuggestionProvider.
type Provider struct{}

var _ domain.SuggestionProvider = Provider{}

func New() Provider { return Provider{} }

// GetSuggestions returns three tasks sized to the slot. Skills are taken in
// priority order and repeat when there are fewer than three; the first task
// is the recommended one.
func (Provider) GetSuggestions(ctx context.Context, slot domain.FreeSlot, skills []domain.Skill) ([]domain.FocusTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ordered := slices.Clone(skills)
	slices.SortStableFunc(ordered, func(a, b domain.Skill) int {
		return b.Priority.Rank() - a.Priority.Rank()
	})
	names := make([]string, 0, len(ordered))
	for _, s := range ordered {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	if len(names) == 0 {
		names = []string{generalSkill}
	}

	kind := domain.KindForDuration(slot.DurationMinutes)
	tmpls := templates[kind]
	duration := plannedDuration(kind, slot.DurationMinutes)

	tasks := make([]domain.FocusTask, 0, suggestionCount)
	for i := range suggestionCount {
		skill := names[i%len(names)]
		tmpl := tmpls[i%len(tmpls)]
		tasks = append(tasks, domain.FocusTask{
			Title:                  fmt.Sprintf(tmpl.title, skill),
			Description:            tmpl.description,
			SkillName:              skill,
			PlannedDurationMinutes: duration,
			Kind:                   kind,
			Recommended:            i == 0,
		})
	}
	return tasks, nil
}

// plannedDuration leaves a little slack in longer slots.
func plannedDuration(kind domain.TaskKind, slotMinutes int) int {
	switch kind {
	case domain.TaskKindDeep:
		return max(slotMinutes-10, 1)
	case domain.TaskKindPractice:
		return max(slotMinutes-5, 1)
	default:
		return max(slotMinutes, 1)
	}
}
