// Package progression derives levels from accumulated XP.
package progression

import (
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
)

// Level is floor(xp/100)+1. Negative XP is treated as zero.
func Level(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/constants.XPPerLevel + 1
}

// XPToNextLevel is the XP still needed to reach the next level
func XPToNextLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return Level(xp)*constants.XPPerLevel - xp
}

// State bundles level math for display
func State(xp int) models.Progression {
	if xp < 0 {
		xp = 0
	}
	return models.Progression{
		XP:            xp,
		Level:         Level(xp),
		XPToNextLevel: XPToNextLevel(xp),
		ProgressPct:   (xp % constants.XPPerLevel) * 100 / constants.XPPerLevel,
	}
}
