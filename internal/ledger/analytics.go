package ledger

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
)

const (
	// DefaultGoalMinutes is the per-skill target behind SkillProgress.
	DefaultGoalMinutes = 300

	// NoMVP is reported when the trailing week holds no minutes.
	NoMVP = "No data yet"

	mvpWindowDays         = 7
	consistencyWindowDays = 14
)

// Summary is the analytics read model. Every field is recomputed from the
// records on each call.
type Summary struct {
	TotalMinutes int                    `json:"total_minutes"`
	TodayMinutes int                    `json:"today_minutes"`
	Streak       int                    `json:"streak"`
	MVPSkill     string                 `json:"mvp_skill"`
	Score        int                    `json:"score"`
	Skills       []domain.SkillProgress `json:"skills"`
}

// Summarize computes the full read model. today must already be in the
// user's local time zone; skills lists the profile skills to report progress for.
func Summarize(records []domain.CompletedSessionRecord, today time.Time, skills []string, goalMinutes int) Summary {
	s := Summary{
		TotalMinutes: TotalMinutes(records),
		TodayMinutes: DailyMinutes(records, dateOf(today)),
		Streak:       Streak(records, today),
		MVPSkill:     MVPSkill(records, today),
		Score:        Score(records, today),
		Skills:       make([]domain.SkillProgress, 0, len(skills)),
	}
	for _, name := range skills {
		s.Skills = append(s.Skills, SkillProgress(records, name, goalMinutes))
	}
	return s
}

func TotalMinutes(records []domain.CompletedSessionRecord) int {
	total := 0
	for _, r := range records {
		total += r.DurationMinutes
	}
	return total
}

// DailyMinutes sums the records of one local calendar date (YYYY-MM-DD).
func DailyMinutes(records []domain.CompletedSessionRecord, date string) int {
	total := 0
	for _, r := range records {
		if r.LocalDate == date {
			total += r.DurationMinutes
		}
	}
	return total
}

// Streak counts consecutive active days ending today. When today has no
// minutes yet the count starts from yesterday instead.
func Streak(records []domain.CompletedSessionRecord, today time.Time) int {
	daily := byDate(records)
	day := today
	if daily[dateOf(day)] < 1 {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for daily[dateOf(day)] >= 1 {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// MVPSkill is the skill with the most minutes over the trailing week,
// today included. Ties go to the skill seen first in record order.
func MVPSkill(records []domain.CompletedSessionRecord, today time.Time) string {
	window := trailingDates(today, mvpWindowDays)

	var order []string
	totals := make(map[string]int)
	for _, r := range records {
		if _, ok := window[r.LocalDate]; !ok || r.DurationMinutes <= 0 {
			continue
		}
		if _, seen := totals[r.SkillName]; !seen {
			order = append(order, r.SkillName)
		}
		totals[r.SkillName] += r.DurationMinutes
	}

	best, bestMinutes := NoMVP, 0
	for _, skill := range order {
		if totals[skill] > bestMinutes {
			best, bestMinutes = skill, totals[skill]
		}
	}
	return best
}

// Score is a 0-100 rating: up to 40 points for active days in the last 14,
// up to 30 for average session length (capped at an hour) and up to 30 for
// total hours (capped at 100). A focus session split at midnight into two
// records still counts as one session.
func Score(records []domain.CompletedSessionRecord, today time.Time) int {
	if len(records) == 0 {
		return 0
	}
	window := trailingDates(today, consistencyWindowDays)
	daily := byDate(records)
	active := 0
	for date := range window {
		if daily[date] >= 1 {
			active++
		}
	}

	total := TotalMinutes(records)
	avg := float64(total) / float64(countSessions(records))

	consistency := float64(active) / consistencyWindowDays * 40
	intensity := math.Min(avg, 60) / 60 * 30
	volume := math.Min(float64(total)/60, 100) / 100 * 30
	return int(math.Round(consistency + intensity + volume))
}

// SkillProgress reports accumulated minutes against the goal, capped at 100%.
func SkillProgress(records []domain.CompletedSessionRecord, skill string, goalMinutes int) domain.SkillProgress {
	if goalMinutes <= 0 {
		goalMinutes = DefaultGoalMinutes
	}
	minutes := 0
	for _, r := range records {
		if r.SkillName == skill {
			minutes += r.DurationMinutes
		}
	}
	percent := min(100, int(math.Round(100*float64(minutes)/float64(goalMinutes))))
	return domain.SkillProgress{Skill: skill, Minutes: minutes, Percent: percent}
}

func countSessions(records []domain.CompletedSessionRecord) int {
	seen := make(map[uuid.UUID]struct{}, len(records))
	unkeyed := 0
	for _, r := range records {
		if r.SessionID == uuid.Nil {
			unkeyed++
			continue
		}
		seen[r.SessionID] = struct{}{}
	}
	return len(seen) + unkeyed
}

func byDate(records []domain.CompletedSessionRecord) map[string]int {
	daily := make(map[string]int)
	for _, r := range records {
		daily[r.LocalDate] += r.DurationMinutes
	}
	return daily
}

func trailingDates(today time.Time, days int) map[string]struct{} {
	out := make(map[string]struct{}, days)
	for i := range days {
		out[dateOf(today.AddDate(0, 0, -i))] = struct{}{}
	}
	return out
}

func dateOf(t time.Time) string { return t.Format(time.DateOnly) }
