package achievements

import (
	"time"

	"github.com/julianstephens/habitlit/internal/analytics"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
)

// Input is the aggregate state a recompute pass measures
type Input struct {
	Habits     []models.Habit
	Today      time.Time
	Challenges int
}

// Definition describes one achievement. Measure returns its current
// progress; nil falls back to the category's standard measure.
type Definition struct {
	ID          string
	Title       string
	Description string
	Icon        string
	Category    models.AchievementCategory
	Target      int
	Measure     func(Input) int
}

func (d Definition) progress(in Input) int {
	if d.Measure != nil {
		return d.Measure(in)
	}
	switch d.Category {
	case models.CategoryStreak:
		return MaxStreak(in)
	case models.CategoryCompletion:
		return TotalCompletions(in)
	case models.CategoryChallenge:
		return in.Challenges
	}
	return 0
}

func (d Definition) seed() models.Achievement {
	return models.Achievement{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Icon:        d.Icon,
		Category:    d.Category,
		Target:      d.Target,
	}
}

// MaxStreak is the best current streak over every habit
func MaxStreak(in Input) int {
	best := 0
	for _, h := range in.Habits {
		if s := analytics.Streak(h.Completions, in.Today); s > best {
			best = s
		}
	}
	return best
}

// TotalCompletions sums counted days over every habit
func TotalCompletions(in Input) int {
	total := 0
	for _, h := range in.Habits {
		total += analytics.TotalCompletions(h.Completions)
	}
	return total
}

// BestMonthlyRate is the highest 30-day completion rate among active habits
func BestMonthlyRate(in Input) int {
	best := 0
	for _, h := range in.Habits {
		if h.Archived {
			continue
		}
		if r := analytics.CompletionRate(h.Completions, in.Today, constants.DefaultRateWindowDays); r > best {
			best = r
		}
	}
	return best
}

// HabitsOnStreak counts active habits whose current streak is at least days
func HabitsOnStreak(days int) func(Input) int {
	return func(in Input) int {
		n := 0
		for _, h := range in.Habits {
			if !h.Archived && analytics.Streak(h.Completions, in.Today) >= days {
				n++
			}
		}
		return n
	}
}

// Defaults is the built-in catalog. New entries go at the end so existing
// installs pick them up on the next Load.
func Defaults() []Definition {
	return []Definition{
		{ID: "first-step", Title: "First Step", Description: "Complete a habit for the first time", Icon: "footprints", Category: models.CategoryCompletion, Target: 1},
		{ID: "getting-started", Title: "Getting Started", Description: "Log 10 completions", Icon: "sprout", Category: models.CategoryCompletion, Target: 10},
		{ID: "half-century", Title: "Half Century", Description: "Log 50 completions", Icon: "medal", Category: models.CategoryCompletion, Target: 50},
		{ID: "centurion", Title: "Centurion", Description: "Log 100 completions", Icon: "trophy", Category: models.CategoryCompletion, Target: 100},
		{ID: "three-day-streak", Title: "On a Roll", Description: "Reach a 3-day streak", Icon: "flame", Category: models.CategoryStreak, Target: 3},
		{ID: "week-warrior", Title: "Week Warrior", Description: "Reach a 7-day streak", Icon: "calendar-check", Category: models.CategoryStreak, Target: 7},
		{ID: "fortnight-focus", Title: "Fortnight Focus", Description: "Reach a 14-day streak", Icon: "target", Category: models.CategoryStreak, Target: 14},
		{ID: "monthly-master", Title: "Monthly Master", Description: "Reach a 30-day streak", Icon: "crown", Category: models.CategoryStreak, Target: 30},
		{ID: "consistency-king", Title: "Consistency King", Description: "Keep any habit at 80% over 30 days", Icon: "gauge", Category: models.CategoryConsistency, Target: 80, Measure: BestMonthlyRate},
		{ID: "all-rounder", Title: "All-Rounder", Description: "Hold a 7-day streak on 3 habits at once", Icon: "layers", Category: models.CategoryConsistency, Target: 3, Measure: HabitsOnStreak(7)},
		{ID: "challenger", Title: "Challenger", Description: "Finish a challenge", Icon: "swords", Category: models.CategoryChallenge, Target: 1},
		{ID: "challenge-champion", Title: "Challenge Champion", Description: "Finish 5 challenges", Icon: "award", Category: models.CategoryChallenge, Target: 5},
	}
}
