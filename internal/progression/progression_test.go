package progression

import "testing"

func TestLevel(t *testing.T) {
	tests := []struct {
		xp, level, toNext int
	}{
		{0, 1, 100},
		{50, 1, 50},
		{99, 1, 1},
		{100, 2, 100},
		{150, 2, 50},
		{1000, 11, 100},
		{-20, 1, 100},
	}

	for _, tt := range tests {
		if got := Level(tt.xp); got != tt.level {
			t.Errorf("Level(%d) = %d, want %d", tt.xp, got, tt.level)
		}
		if got := XPToNextLevel(tt.xp); got != tt.toNext {
			t.Errorf("XPToNextLevel(%d) = %d, want %d", tt.xp, got, tt.toNext)
		}
	}
}

func TestState(t *testing.T) {
	s := State(250)
	if s.XP != 250 || s.Level != 3 || s.XPToNextLevel != 50 || s.ProgressPct != 50 {
		t.Errorf("State(250) = %+v", s)
	}
}

func TestXPToNextLevelAlwaysPositive(t *testing.T) {
	for xp := 0; xp < 1000; xp++ {
		n := XPToNextLevel(xp)
		if n < 1 || n > 100 {
			t.Fatalf("XPToNextLevel(%d) = %d, want 1..100", xp, n)
		}
		if Level(xp+n) != Level(xp)+1 {
			t.Fatalf("adding %d XP to %d does not reach the next level", n, xp)
		}
	}
}
