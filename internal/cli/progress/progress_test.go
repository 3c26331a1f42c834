package progress

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/config"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/storage"
)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.App.Timezone = "UTC"

	var out bytes.Buffer
	ctx := cli.NewContext(cfg, filepath.Join(t.TempDir(), "config.toml"), storage.NewMemoryStore())
	ctx.Out = &out
	ctx.Clock = func() time.Time { return time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC) }
	if err := ctx.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { ctx.Close() })
	return ctx, &out
}

func TestAchievementsCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	h := ctx.Habits.AddHabit(models.HabitDraft{Name: "Read", Icon: "book", Color: "#22c55e", StreakGoal: 7})
	if _, err := ctx.Habits.ToggleHabitCompletion(h.ID, "2024-05-10", nil); err != nil {
		t.Fatal(err)
	}
	total := len(ctx.Engine.Achievements())

	out.Reset()
	if err := (&AchievementsCmd{}).Run(ctx); err != nil {
		t.Fatalf("achievements: %v", err)
	}
	if !strings.Contains(out.String(), "First Step") || !strings.Contains(out.String(), "Centurion") {
		t.Errorf("output = %q", out.String())
	}
	if want := "1 of "; !strings.Contains(out.String(), want) {
		t.Errorf("summary missing from %q", out.String())
	}

	out.Reset()
	if err := (&AchievementsCmd{Unlocked: true}).Run(ctx); err != nil {
		t.Fatalf("achievements --unlocked: %v", err)
	}
	if strings.Contains(out.String(), "Centurion") {
		t.Error("--unlocked listed a locked achievement")
	}

	out.Reset()
	if err := (&AchievementsCmd{Locked: true}).Run(ctx); err != nil {
		t.Fatalf("achievements --locked: %v", err)
	}
	if strings.Contains(out.String(), "First Step") {
		t.Error("--locked listed an unlocked achievement")
	}
	if total != 12 {
		t.Errorf("catalog size = %d, want 12", total)
	}
}

func TestLevelCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	h := ctx.Habits.AddHabit(models.HabitDraft{Name: "Read", Icon: "book", Color: "#22c55e", StreakGoal: 7})
	if _, err := ctx.Habits.ToggleHabitCompletion(h.ID, "2024-05-10", nil); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := (&LevelCmd{}).Run(ctx); err != nil {
		t.Fatalf("level: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "Level 1") || !strings.Contains(s, "50 XP") || !strings.Contains(s, "50 XP to level 2") {
		t.Errorf("output = %q", s)
	}
}
