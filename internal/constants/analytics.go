package constants

const (
	// StreakLookbackDays caps how far back a current streak is scanned
	StreakLookbackDays = 365
	// DefaultRateWindowDays is the default completion-rate window
	DefaultRateWindowDays = 30
	DaysPerWeek           = 7

	// Goal bounds for habits
	MinStreakGoal = 1
	MaxStreakGoal = 365
	MinWeeklyGoal = 1
	MaxWeeklyGoal = 7

	DefaultStreakGoal = 7
	DefaultWeeklyGoal = 7
)
