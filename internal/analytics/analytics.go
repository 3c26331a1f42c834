// Package analytics derives streak and completion metrics from a habit's
// completion ledger. Every function is pure; "today" is always passed in.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

// Streak counts consecutive completed days ending today or yesterday.
//
// The scan walks back from today for at most StreakLookbackDays days. It only
// stops on a missed day after today, so an unfinished today neither breaks an
// existing streak ending yesterday nor adds to it.
func Streak(ledger models.Ledger, today time.Time) int {
	streak := 0
	for i := 0; i < constants.StreakLookbackDays; i++ {
		day := utils.FormatDate(utils.AddDays(today, -i))
		if ledger.Counted(day) {
			streak++
		} else if i > 0 {
			break
		}
	}
	return streak
}

// LongestStreak returns the longest run of consecutive completed days anywhere in the ledger.
func LongestStreak(ledger models.Ledger) int {
	days := ledger.CountedDays()
	if len(days) == 0 {
		return 0
	}
	// ISO dates sort chronologically
	sort.Strings(days)

	longest, current := 0, 1
	for i := 1; i < len(days); i++ {
		gap, err := utils.DaysBetween(days[i-1], days[i])
		if err == nil && gap == 1 {
			current++
			continue
		}
		longest = max(longest, current)
		current = 1
	}
	return max(longest, current)
}

// CompletionRate is the rounded percentage of the last windowDays days
// (today inclusive) that count as completed. windowDays below 1 is treated as 1.
func CompletionRate(ledger models.Ledger, today time.Time, windowDays int) int {
	windowDays = max(windowDays, 1)
	completed := countRange(ledger, utils.AddDays(today, -(windowDays-1)), windowDays)
	return percent(completed, windowDays)
}

// WeekStart returns the Sunday that starts the week containing today
func WeekStart(today time.Time) time.Time {
	return utils.AddDays(today, -int(today.Weekday()))
}

// WeeklyProgress is the rounded percentage of weeklyGoal reached in the
// Sunday-to-Saturday week containing today. It can exceed 100.
// A weeklyGoal below 1 is clamped to 1.
func WeeklyProgress(ledger models.Ledger, today time.Time, weeklyGoal int) int {
	weeklyGoal = max(weeklyGoal, constants.MinWeeklyGoal)
	completed := WeeklyCompletions(ledger, today)
	return percent(completed, weeklyGoal)
}

// WeeklyCompletions counts completed days in the week containing today
func WeeklyCompletions(ledger models.Ledger, today time.Time) int {
	return countRange(ledger, WeekStart(today), constants.DaysPerWeek)
}

// TotalCompletions counts every day in the ledger that counts as completed
func TotalCompletions(ledger models.Ledger) int {
	total := 0
	for _, e := range ledger {
		if e.IsCounted() {
			total++
		}
	}
	return total
}

// CompletedOn reports whether the ledger counts the calendar day of t as completed
func CompletedOn(ledger models.Ledger, t time.Time) bool {
	return ledger.Counted(utils.FormatDate(t))
}

func countRange(ledger models.Ledger, start time.Time, days int) int {
	count := 0
	for i := 0; i < days; i++ {
		if ledger.Counted(utils.FormatDate(utils.AddDays(start, i))) {
			count++
		}
	}
	return count
}

// percent rounds half away from zero, which matches half-up for the
// non-negative values used here.
func percent(n, d int) int {
	return int(math.Round(100 * float64(n) / float64(d)))
}
