package validation

import (
	"strings"
	"testing"

	"github.com/julianstephens/habitlit/internal/models"
)

func habit(id, name string, days ...string) models.Habit {
	l := models.Ledger{}
	for _, d := range days {
		l[d] = models.SimpleEntry()
	}
	return models.Habit{ID: id, Name: name, StreakGoal: 7, Color: "#22c55e", Completions: l}
}

func types(result ValidationResult) map[ConflictType]int {
	out := map[ConflictType]int{}
	for _, c := range result.Conflicts {
		out[c.Type]++
	}
	return out
}

func TestValidateHabitsClean(t *testing.T) {
	v := New()
	result := v.ValidateHabits([]models.Habit{
		habit("a", "Read", "2024-01-01", "2024-01-02"),
		habit("b", "Run"),
	})
	if result.HasConflicts() {
		t.Errorf("expected no conflicts, got:\n%s", result.FormatReport())
	}
	if result.FormatReport() != "No conflicts detected." {
		t.Errorf("unexpected report: %q", result.FormatReport())
	}
}

func TestValidateHabitsConflicts(t *testing.T) {
	tests := []struct {
		name     string
		habits   []models.Habit
		want     ConflictType
		blocking bool
	}{
		{
			name:     "missing id",
			habits:   []models.Habit{habit("", "Read")},
			want:     ConflictMissingHabitID,
			blocking: true,
		},
		{
			name:     "duplicate id",
			habits:   []models.Habit{habit("a", "Read"), habit("a", "Run")},
			want:     ConflictDuplicateHabitID,
			blocking: true,
		},
		{
			name:     "invalid date key",
			habits:   []models.Habit{habit("a", "Read", "2024-13-01")},
			want:     ConflictInvalidDateKey,
			blocking: true,
		},
		{
			name:   "duplicate name ignores case",
			habits: []models.Habit{habit("a", "Read"), habit("b", "read")},
			want:   ConflictDuplicateHabitName,
		},
		{
			name: "streak goal out of range",
			habits: func() []models.Habit {
				h := habit("a", "Read")
				h.StreakGoal = 400
				return []models.Habit{h}
			}(),
			want: ConflictStreakGoalRange,
		},
		{
			name: "weekly goal out of range",
			habits: func() []models.Habit {
				h := habit("a", "Read")
				h.WeeklyGoal = 8
				return []models.Habit{h}
			}(),
			want: ConflictWeeklyGoalRange,
		},
		{
			name: "invalid target day",
			habits: func() []models.Habit {
				h := habit("a", "Read")
				h.TargetDays = []string{"mon", "funday"}
				return []models.Habit{h}
			}(),
			want: ConflictInvalidTargetDay,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New().ValidateHabits(tt.habits)
			if types(result)[tt.want] != 1 {
				t.Fatalf("expected one %s conflict, got:\n%s", tt.want, result.FormatReport())
			}
			if got := len(result.Blocking()) > 0; got != tt.blocking {
				t.Errorf("blocking = %v, want %v", got, tt.blocking)
			}
		})
	}
}

func TestArchivedHabitsMayShareNames(t *testing.T) {
	archived := habit("b", "Read")
	archived.Archived = true
	result := New().ValidateHabits([]models.Habit{habit("a", "Read"), archived})
	if types(result)[ConflictDuplicateHabitName] != 0 {
		t.Errorf("archived habit should not clash:\n%s", result.FormatReport())
	}
}

func TestUnsetWeeklyGoalIsValid(t *testing.T) {
	h := habit("a", "Read")
	h.WeeklyGoal = 0
	if result := New().ValidateHabits([]models.Habit{h}); result.HasConflicts() {
		t.Errorf("zero weekly goal should be accepted:\n%s", result.FormatReport())
	}
}

func TestValidateDraft(t *testing.T) {
	v := New()

	ok := models.HabitDraft{Name: "Meditate", StreakGoal: 30, WeeklyGoal: 5, TargetDays: []string{"mon", "fri"}, Color: "#abc"}
	if result := v.ValidateDraft(ok); result.HasConflicts() {
		t.Errorf("unexpected conflicts:\n%s", result.FormatReport())
	}

	bad := models.HabitDraft{Name: " ", StreakGoal: 0, Color: "green"}
	got := types(v.ValidateDraft(bad))
	for _, want := range []ConflictType{ConflictMissingName, ConflictStreakGoalRange, ConflictInvalidColor} {
		if got[want] != 1 {
			t.Errorf("expected %s conflict, got %v", want, got)
		}
	}
}

func TestValidatePatch(t *testing.T) {
	v := New()
	empty := ""
	goal := 0
	result := v.ValidatePatch(models.HabitPatch{Name: &empty, WeeklyGoal: &goal})
	got := types(result)
	if got[ConflictMissingName] != 1 || got[ConflictWeeklyGoalRange] != 1 {
		t.Errorf("unexpected conflicts: %v", got)
	}
	if !strings.Contains(result.FormatReport(), "Weekly goal 0") {
		t.Errorf("report missing weekly goal detail:\n%s", result.FormatReport())
	}

	if result := v.ValidatePatch(models.HabitPatch{}); result.HasConflicts() {
		t.Errorf("empty patch should be valid:\n%s", result.FormatReport())
	}
}

func TestCompletionDetail(t *testing.T) {
	d, err := CompletionDetail("", " ", "")
	if err != nil || d != nil {
		t.Errorf("empty input = %+v, %v; want nil, nil", d, err)
	}

	d, err = CompletionDetail(" ran 5k ", "Great", "LOW")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Completed || d.Note != "ran 5k" || d.Mood != models.MoodGreat || d.Energy != models.EnergyLow {
		t.Errorf("detail = %+v", d)
	}

	if _, err := CompletionDetail("", "ecstatic", ""); err == nil {
		t.Error("expected error for unknown mood")
	}
	if _, err := CompletionDetail("", "", "turbo"); err == nil {
		t.Error("expected error for unknown energy")
	}
}
