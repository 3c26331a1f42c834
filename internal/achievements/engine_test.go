package achievements

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/habits"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/storage"
)

var today = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	provider *storage.MemoryStore
	writer   *storage.Writer
	store    *habits.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	p := storage.NewMemoryStore()
	w := storage.NewWriter(p)
	t.Cleanup(func() { w.Close() })

	n := 0
	s := habits.New(p, w,
		habits.WithClock(func() time.Time { return today }),
		habits.WithLocation(time.UTC),
		habits.WithIDGenerator(func() string { n++; return fmt.Sprintf("h%d", n) }),
	)
	return fixture{provider: p, writer: w, store: s}
}

func (f fixture) engine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return today })}, opts...)
	e := New(f.provider, f.writer, f.store, opts...)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return e
}

// completeDays toggles the n days ending at today
func (f fixture) completeDays(id string, n int) {
	for i := 0; i < n; i++ {
		f.store.ToggleHabitCompletion(id, today.AddDate(0, 0, -i).Format(constants.DateFormat), nil)
	}
}

func find(list []models.Achievement, id string) (models.Achievement, bool) {
	for _, a := range list {
		if a.ID == id {
			return a, true
		}
	}
	return models.Achievement{}, false
}

func TestLoadSeedsDefaults(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)

	all := e.Achievements()
	if len(all) != 12 {
		t.Fatalf("got %d achievements, want 12", len(all))
	}
	if len(e.Unlocked()) != 0 || len(e.Locked()) != 12 {
		t.Error("fresh achievements should all be locked")
	}
	for _, a := range all {
		if a.Progress != 0 || a.UnlockedAt != nil {
			t.Errorf("%s not seeded clean: %+v", a.ID, a)
		}
	}
	if e.XP() != 0 || e.Progress().Level != 1 {
		t.Errorf("xp=%d level=%d", e.XP(), e.Progress().Level)
	}
}

func TestStreakUnlockGrantsXP(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	h := f.store.AddHabit(models.HabitDraft{Name: "Read", StreakGoal: 7})
	f.completeDays(h.ID, 7)

	xpBefore := e.XP()
	unlocked := e.CheckAchievements()

	week, _ := find(e.Achievements(), "week-warrior")
	if week.UnlockedAt == nil || week.Progress != 7 {
		t.Fatalf("week-warrior = %+v", week)
	}
	// 7 completions also unlock first-step and three-day-streak
	want := map[string]bool{"first-step": true, "three-day-streak": true, "week-warrior": true}
	if len(unlocked) != len(want) {
		t.Fatalf("unlocked %d, want %d: %+v", len(unlocked), len(want), unlocked)
	}
	for _, a := range unlocked {
		if !want[a.ID] {
			t.Errorf("unexpected unlock %s", a.ID)
		}
	}
	if got := e.XP() - xpBefore; got != 50*len(want) {
		t.Errorf("xp gained = %d, want %d", got, 50*len(want))
	}

	// A second pass unlocks nothing new
	if again := e.CheckAchievements(); len(again) != 0 {
		t.Errorf("re-check unlocked %v", again)
	}
}

func TestSingleAchievementUnlockIsWorthFifty(t *testing.T) {
	f := newFixture(t)
	defs := []Definition{{ID: "streak-7", Title: "Seven", Category: models.CategoryStreak, Target: 7}}
	e := f.engine(t, WithDefinitions(defs))
	h := f.store.AddHabit(models.HabitDraft{Name: "Read"})
	f.completeDays(h.ID, 6)

	if len(e.CheckAchievements()) != 0 || e.XP() != 0 {
		t.Fatal("6-day streak should not unlock a 7-day target")
	}
	f.store.ToggleHabitCompletion(h.ID, today.AddDate(0, 0, -6).Format(constants.DateFormat), nil)
	if got := f.store.Streak(h.ID); got != 7 {
		t.Fatalf("setup: streak = %d", got)
	}

	unlocked := e.CheckAchievements()
	if len(unlocked) != 1 || unlocked[0].ID != "streak-7" || unlocked[0].UnlockedAt == nil {
		t.Fatalf("unlocked = %+v", unlocked)
	}
	if e.XP() != 50 {
		t.Errorf("xp = %d, want 50", e.XP())
	}
}

func TestUnlockIsMonotonic(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	h := f.store.AddHabit(models.HabitDraft{Name: "Read"})
	f.completeDays(h.ID, 3)
	e.CheckAchievements()

	first, _ := find(e.Unlocked(), "three-day-streak")
	if first.UnlockedAt == nil {
		t.Fatal("three-day-streak should be unlocked")
	}
	xp := e.XP()

	f.store.DeleteHabit(h.ID)
	e.CheckAchievements()

	after, ok := find(e.Unlocked(), "three-day-streak")
	if !ok || !after.UnlockedAt.Equal(*first.UnlockedAt) {
		t.Error("unlock was cleared after progress dropped")
	}
	if after.Progress != 0 {
		t.Errorf("progress should track current state, got %d", after.Progress)
	}
	if e.XP() != xp {
		t.Errorf("xp changed from %d to %d", xp, e.XP())
	}
}

func TestConsistencyAndChallengeMeasures(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t, WithChallengeCounter(FixedChallenges(5)))

	for _, name := range []string{"A", "B", "C"} {
		h := f.store.AddHabit(models.HabitDraft{Name: name})
		f.completeDays(h.ID, 24) // 80% of 30
	}
	e.CheckAchievements()

	for _, id := range []string{"consistency-king", "all-rounder", "challenger", "challenge-champion"} {
		a, _ := find(e.Achievements(), id)
		if !a.Unlocked() {
			t.Errorf("%s should be unlocked: %+v", id, a)
		}
	}
	king, _ := find(e.Achievements(), "consistency-king")
	if king.Progress != 80 {
		t.Errorf("consistency-king progress = %d, want 80", king.Progress)
	}
	total, _ := find(e.Achievements(), "half-century")
	if total.Progress != 72 || !total.Unlocked() {
		t.Errorf("half-century = %+v", total)
	}
}

func TestArchivedHabitsSkipConsistency(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	h := f.store.AddHabit(models.HabitDraft{Name: "A"})
	f.completeDays(h.ID, 30)
	f.store.ArchiveHabit(h.ID)
	e.CheckAchievements()

	king, _ := find(e.Achievements(), "consistency-king")
	if king.Progress != 0 {
		t.Errorf("archived habit counted for consistency: %d", king.Progress)
	}
	streak, _ := find(e.Achievements(), "monthly-master")
	if streak.Progress != 30 {
		t.Errorf("streak category should include archived habits, got %d", streak.Progress)
	}
}

func TestPersistsAchievementsAndXPTogether(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.engine(t)
	h := f.store.AddHabit(models.HabitDraft{Name: "Read"})
	f.completeDays(h.ID, 1)
	e.CheckAchievements()

	if err := f.writer.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	xp, err := f.provider.Get(ctx, constants.KeyXP)
	if err != nil || xp != "50" {
		t.Fatalf("stored xp = %q, %v", xp, err)
	}
	raw, _ := f.provider.Get(ctx, constants.KeyAchievements)
	var stored []models.Achievement
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatal(err)
	}
	if a, _ := find(stored, "first-step"); !a.Unlocked() {
		t.Error("stored first-step is not unlocked")
	}

	reloaded := f.engine(t)
	if reloaded.XP() != 50 || len(reloaded.Unlocked()) != 1 {
		t.Errorf("reloaded xp=%d unlocked=%d", reloaded.XP(), len(reloaded.Unlocked()))
	}
}

func TestLoadAppendsNewDefinitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	old := []models.Achievement{{ID: "first-step", Category: models.CategoryCompletion, Target: 1, Progress: 3, UnlockedAt: &today}}
	raw, _ := json.Marshal(old)
	f.provider.Set(ctx, constants.KeyAchievements, string(raw))
	f.provider.Set(ctx, constants.KeyXP, "50")

	e := f.engine(t)
	all := e.Achievements()
	if len(all) != 12 {
		t.Fatalf("got %d achievements, want 12", len(all))
	}
	if all[0].ID != "first-step" || all[0].Progress != 3 || all[0].UnlockedAt == nil {
		t.Errorf("existing progress lost: %+v", all[0])
	}
	if e.XP() != 50 {
		t.Errorf("xp = %d", e.XP())
	}
}

func TestLoadCorruptXP(t *testing.T) {
	f := newFixture(t)
	f.provider.Set(context.Background(), constants.KeyXP, "lots")
	e := New(f.provider, f.writer, f.store)
	if err := e.Load(context.Background()); err == nil {
		t.Error("expected error for corrupt xp")
	}
}

type countingSource struct {
	*habits.Store
	reads int
}

func (c *countingSource) Habits() []models.Habit {
	c.reads++
	return c.Store.Habits()
}

func TestBindSkipsEditsThatKeepCompletions(t *testing.T) {
	f := newFixture(t)
	src := &countingSource{Store: f.store}
	e := New(f.provider, f.writer, src, WithClock(func() time.Time { return today }))
	if err := e.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	h := f.store.AddHabit(models.HabitDraft{Name: "Read"})
	unbind := e.Bind(f.store)
	defer unbind()
	base := src.reads

	name := "Read daily"
	f.store.UpdateHabit(h.ID, models.HabitPatch{Name: &name})
	f.store.ArchiveHabit(h.ID)
	f.store.RestoreHabit(h.ID)
	if src.reads != base {
		t.Errorf("recomputed %d times on edits that keep completions", src.reads-base)
	}

	f.store.ToggleHabitCompletion(h.ID, "2024-01-10", nil)
	if src.reads != base+1 {
		t.Errorf("toggle triggered %d recomputes, want 1", src.reads-base)
	}
	if a, _ := find(e.Unlocked(), "first-step"); !a.Unlocked() {
		t.Error("bound engine did not unlock first-step")
	}
}

func TestUnlockHook(t *testing.T) {
	f := newFixture(t)
	var ids []string
	e := f.engine(t, WithUnlockHook(func(a models.Achievement) { ids = append(ids, a.ID) }))
	h := f.store.AddHabit(models.HabitDraft{Name: "Read"})
	f.completeDays(h.ID, 1)
	e.CheckAchievements()
	if len(ids) != 1 || ids[0] != "first-step" {
		t.Errorf("hook saw %v", ids)
	}
}

// racingSource lets a toggle commit after the snapshot is taken but before
// the check pass finishes.
type racingSource struct {
	*habits.Store
	during func()
}

func (r *racingSource) Habits() []models.Habit {
	snapshot := r.Store.Habits()
	if fn := r.during; fn != nil {
		r.during = nil
		fn()
	}
	return snapshot
}

func TestToggleDuringCheckIsNotLost(t *testing.T) {
	f := newFixture(t)
	src := &racingSource{Store: f.store}
	e := New(f.provider, f.writer, src, WithClock(func() time.Time { return today }))
	if err := e.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	h := f.store.AddHabit(models.HabitDraft{Name: "Read"})

	// Registered before Bind, so it runs ahead of the engine and holds the
	// toggle's notification until the pass returns.
	committed := make(chan struct{})
	release := make(chan struct{})
	unsubscribe := f.store.Subscribe(func(c habits.Change) {
		if c.Kind == habits.ChangeToggled {
			close(committed)
			<-release
		}
	})
	defer unsubscribe()
	unbind := e.Bind(f.store)
	defer unbind()

	done := make(chan struct{})
	src.during = func() {
		go func() {
			defer close(done)
			f.store.ToggleHabitCompletion(h.ID, "2024-01-10", nil)
		}()
		<-committed
	}

	e.CheckAchievements()
	close(release)
	<-done

	a, _ := find(e.Achievements(), "first-step")
	if !a.Unlocked() || a.Progress != 1 {
		t.Errorf("first-step progress=%d unlocked=%v after a toggle during a check", a.Progress, a.Unlocked())
	}
	if e.XP() != constants.AchievementXP {
		t.Errorf("xp = %d, want %d", e.XP(), constants.AchievementXP)
	}
}

func TestOlderPassDoesNotOverwriteNewer(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	h := f.store.AddHabit(models.HabitDraft{Name: "Read"})
	f.completeDays(h.ID, 1)
	e.CheckAchievements()

	e.mu.Lock()
	e.lastVersion = f.store.CompletionVersion() + 5
	e.mu.Unlock()
	if got := e.CheckAchievements(); got != nil {
		t.Errorf("stale pass unlocked %v", got)
	}
	e.mu.Lock()
	last := e.lastVersion
	e.mu.Unlock()
	if last != f.store.CompletionVersion()+5 {
		t.Errorf("lastVersion moved backwards to %d", last)
	}
}
