package ledger

import (
	"testing"
	"time"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var today = time.Date(2024, 5, 15, 18, 0, 0, 0, time.UTC)

func rec(skill string, minutes, daysAgo int) domain.CompletedSessionRecord {
	at := today.AddDate(0, 0, -daysAgo)
	return domain.CompletedSessionRecord{
		ID:              uuid.New(),
		SessionID:       uuid.New(),
		SkillName:       skill,
		DurationMinutes: minutes,
		Timestamp:       at,
		LocalDate:       at.Format(time.DateOnly),
		SessionType:     domain.SessionTypeFocus,
	}
}

func TestSkillProgress(t *testing.T) {
	records := []domain.CompletedSessionRecord{rec("Math", 40, 0), rec("Math", 20, 1), rec("Art", 15, 0)}

	got := SkillProgress(records, "Math", 300)
	assert.Equal(t, domain.SkillProgress{Skill: "Math", Minutes: 60, Percent: 20}, got)
}

func TestSkillProgress_CapsAtHundred(t *testing.T) {
	records := []domain.CompletedSessionRecord{rec("Math", 400, 0)}
	assert.Equal(t, 100, SkillProgress(records, "Math", 300).Percent)
	assert.Equal(t, 0, SkillProgress(records, "Chess", 300).Percent)
	assert.Equal(t, 100, SkillProgress(records, "Math", 0).Percent, "zero goal falls back to default")
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name    string
		records []domain.CompletedSessionRecord
		want    int
	}{
		{"empty", nil, 0},
		{"today only", []domain.CompletedSessionRecord{rec("Math", 5, 0)}, 1},
		{"gap today rolls back a day", []domain.CompletedSessionRecord{rec("Math", 5, 1), rec("Math", 5, 2)}, 2},
		{"today and yesterday", []domain.CompletedSessionRecord{rec("Math", 5, 0), rec("Math", 5, 1)}, 2},
		{"stops at first empty day", []domain.CompletedSessionRecord{rec("Math", 5, 0), rec("Math", 5, 1), rec("Math", 5, 3)}, 2},
		{"two day gap is zero", []domain.CompletedSessionRecord{rec("Math", 5, 2)}, 0},
		{"zero minute day does not count", []domain.CompletedSessionRecord{rec("Math", 0, 0), rec("Math", 5, 1)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Streak(tt.records, today))
		})
	}
}

func TestMVPSkill(t *testing.T) {
	tests := []struct {
		name    string
		records []domain.CompletedSessionRecord
		want    string
	}{
		{"empty", nil, NoMVP},
		{"outside window", []domain.CompletedSessionRecord{rec("Math", 50, 7)}, NoMVP},
		{"max minutes wins", []domain.CompletedSessionRecord{rec("Math", 20, 0), rec("Art", 30, 1), rec("Math", 5, 6)}, "Art"},
		{"tie goes to first seen", []domain.CompletedSessionRecord{rec("Art", 30, 2), rec("Math", 30, 1)}, "Art"},
		{"old minutes ignored", []domain.CompletedSessionRecord{rec("Math", 500, 8), rec("Art", 1, 0)}, "Art"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MVPSkill(tt.records, today))
		})
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0, Score(nil, today))

	// 7 of 14 days active -> 20, average 60 -> 30, 420 minutes = 7h -> 2.1
	var records []domain.CompletedSessionRecord
	for i := range 7 {
		records = append(records, rec("Math", 60, i*2))
	}
	assert.Equal(t, 52, Score(records, today))

	// Every day for two weeks, two hours a day, 100h+ total caps everything.
	records = nil
	for i := range 60 {
		records = append(records, rec("Math", 120, i))
	}
	assert.Equal(t, 100, Score(records, today))
}

func TestScore_MidnightSplitCountsAsOneSession(t *testing.T) {
	evening := rec("Math", 30, 1)
	morning := rec("Math", 30, 0)
	morning.SessionID = evening.SessionID

	// 2 of 14 days -> 5.71, one 60 minute session -> 30, 1h -> 0.3
	assert.Equal(t, 36, Score([]domain.CompletedSessionRecord{evening, morning}, today))
}

func TestDailyAndTotalMinutes(t *testing.T) {
	records := []domain.CompletedSessionRecord{rec("Math", 40, 0), rec("Art", 10, 0), rec("Math", 20, 1)}

	assert.Equal(t, 70, TotalMinutes(records))
	assert.Equal(t, 50, DailyMinutes(records, today.Format(time.DateOnly)))
	assert.Equal(t, 0, DailyMinutes(records, "1999-01-01"))
}

func TestSummarize(t *testing.T) {
	records := []domain.CompletedSessionRecord{rec("Math", 40, 0), rec("Math", 20, 1)}
	s := Summarize(records, today, []string{"Math", "Art"}, 300)

	assert.Equal(t, 60, s.TotalMinutes)
	assert.Equal(t, 40, s.TodayMinutes)
	assert.Equal(t, 2, s.Streak)
	assert.Equal(t, "Math", s.MVPSkill)
	assert.Equal(t, []domain.SkillProgress{
		{Skill: "Math", Minutes: 60, Percent: 20},
		{Skill: "Art", Minutes: 0, Percent: 0},
	}, s.Skills)
}
