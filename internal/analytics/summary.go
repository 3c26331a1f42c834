package analytics

import (
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
)

// Summarize computes every metric for a habit at once
func Summarize(h models.Habit, today time.Time) models.HabitSummary {
	s := models.HabitSummary{
		HabitID:          h.ID,
		Name:             h.Name,
		CurrentStreak:    Streak(h.Completions, today),
		LongestStreak:    LongestStreak(h.Completions),
		CompletionRate:   CompletionRate(h.Completions, today, constants.DefaultRateWindowDays),
		WeeklyProgress:   WeeklyProgress(h.Completions, today, EffectiveWeeklyGoal(h)),
		TotalCompletions: TotalCompletions(h.Completions),
		CompletedToday:   CompletedOn(h.Completions, today),
	}
	s.StreakGoalMet = h.StreakGoal > 0 && s.CurrentStreak >= h.StreakGoal
	s.WeeklyGoalMet = s.WeeklyProgress >= 100
	return s
}

// EffectiveWeeklyGoal is the habit's weekly goal, or every day of the week when unset
func EffectiveWeeklyGoal(h models.Habit) int {
	if h.WeeklyGoal > 0 {
		return h.WeeklyGoal
	}
	return constants.DefaultWeeklyGoal
}
