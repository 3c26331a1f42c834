package models

import "time"

type AchievementCategory string

const (
	CategoryStreak      AchievementCategory = "streak"
	CategoryCompletion  AchievementCategory = "completion"
	CategoryConsistency AchievementCategory = "consistency"
	CategoryChallenge   AchievementCategory = "challenge"
)

// Achievement is a named progress target that unlocks once.
// UnlockedAt == nil means locked.
type Achievement struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	Category    AchievementCategory `json:"category"`
	Progress    int                 `json:"progress"`
	Target      int                 `json:"target"`
	UnlockedAt  *time.Time          `json:"unlockedAt,omitempty"`
}

func (a Achievement) Unlocked() bool {
	return a.UnlockedAt != nil
}

// Progression is the derived XP/level view
type Progression struct {
	XP            int `json:"xp"`
	Level         int `json:"level"`
	XPToNextLevel int `json:"xpToNextLevel"`
	ProgressPct   int `json:"progressPct"`
}
