package constants

const (
	// XPPerLevel is the XP width of every level
	XPPerLevel = 100
	// AchievementXP is granted once per newly unlocked achievement
	AchievementXP = 50
)

func init() {
	// Runtime validation: level math divides by XPPerLevel
	if XPPerLevel <= 0 {
		panic("XPPerLevel must be positive")
	}
}
