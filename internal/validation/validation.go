package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictMissingHabitID     ConflictType = "missing_habit_id"
	ConflictDuplicateHabitID   ConflictType = "duplicate_habit_id"
	ConflictInvalidDateKey     ConflictType = "invalid_date_key"
	ConflictMissingName        ConflictType = "missing_name"
	ConflictDuplicateHabitName ConflictType = "duplicate_habit_name"
	ConflictStreakGoalRange    ConflictType = "streak_goal_out_of_range"
	ConflictWeeklyGoalRange    ConflictType = "weekly_goal_out_of_range"
	ConflictInvalidTargetDay   ConflictType = "invalid_target_day"
	ConflictInvalidColor       ConflictType = "invalid_color"
)

// blocking conflicts make a collection unusable. The rest are warnings.
var blocking = map[ConflictType]bool{
	ConflictMissingHabitID:   true,
	ConflictDuplicateHabitID: true,
	ConflictInvalidDateKey:   true,
}

// Conflict represents a detected problem in a habit or collection
type Conflict struct {
	Type        ConflictType
	Description string
	Items       []string // Habit names involved
	HabitIDs    []string
}

// Blocking reports whether the conflict prevents loading the collection
func (c Conflict) Blocking() bool {
	return blocking[c.Type]
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// Blocking returns only the conflicts that prevent loading
func (vr *ValidationResult) Blocking() []Conflict {
	var out []Conflict
	for _, c := range vr.Conflicts {
		if c.Blocking() {
			out = append(out, c)
		}
	}
	return out
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, c := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", c.Description)
	}
	return b.String()
}

// Validator checks habits and drafts
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidateHabits checks a whole collection, e.g. one about to be imported
func (v *Validator) ValidateHabits(habits []models.Habit) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	ids := make(map[string]int)
	names := make(map[string][]string)
	for i, h := range habits {
		label := h.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}

		if strings.TrimSpace(h.ID) == "" {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictMissingHabitID,
				Description: fmt.Sprintf("Habit %s has no id", label),
				Items:       []string{label},
			})
		} else {
			ids[h.ID]++
		}

		if !h.Archived && h.Name != "" {
			key := strings.ToLower(h.Name)
			names[key] = append(names[key], h.ID)
		}

		for _, day := range sortedKeys(h.Completions) {
			if !utils.ValidateDate(day) {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictInvalidDateKey,
					Description: fmt.Sprintf("Habit %s has invalid completion date %q", label, day),
					Items:       []string{label},
					HabitIDs:    []string{h.ID},
				})
			}
		}

		result.Conflicts = append(result.Conflicts, v.checkAttributes(label, h.ID, attrsOf(h))...)
	}

	for _, id := range sortedCounts(ids) {
		if ids[id] > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateHabitID,
				Description: fmt.Sprintf("Duplicate habit id %q (%d habits)", id, ids[id]),
				HabitIDs:    []string{id},
			})
		}
	}

	for _, name := range sortedNames(names) {
		if len(names[name]) > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateHabitName,
				Description: fmt.Sprintf("Duplicate active habit name: %q (IDs: %v)", name, names[name]),
				Items:       []string{name},
				HabitIDs:    names[name],
			})
		}
	}

	return result
}

// ValidateDraft checks user input for a new habit
func (v *Validator) ValidateDraft(d models.HabitDraft) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}
	if strings.TrimSpace(d.Name) == "" {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictMissingName,
			Description: "Habit name is required",
		})
	}
	a := attrs{streakGoal: &d.StreakGoal, targetDays: d.TargetDays, color: d.Color}
	if d.WeeklyGoal != 0 {
		a.weeklyGoal = &d.WeeklyGoal
	}
	result.Conflicts = append(result.Conflicts, v.checkAttributes(d.Name, "", a)...)
	return result
}

// ValidatePatch checks the fields a patch would set
func (v *Validator) ValidatePatch(p models.HabitPatch) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictMissingName,
			Description: "Habit name cannot be empty",
		})
	}
	a := attrs{streakGoal: p.StreakGoal, weeklyGoal: p.WeeklyGoal}
	if p.TargetDays != nil {
		a.targetDays = *p.TargetDays
	}
	if p.Color != nil {
		a.color = *p.Color
	}
	result.Conflicts = append(result.Conflicts, v.checkAttributes("", "", a)...)
	return result
}

// attrs holds the checked fields; nil goals are skipped
type attrs struct {
	streakGoal *int
	weeklyGoal *int
	targetDays []string
	color      string
}

func attrsOf(h models.Habit) attrs {
	a := attrs{streakGoal: &h.StreakGoal, targetDays: h.TargetDays, color: h.Color}
	// Zero means the weekly goal was never set
	if h.WeeklyGoal != 0 {
		a.weeklyGoal = &h.WeeklyGoal
	}
	return a
}

func (v *Validator) checkAttributes(label, id string, a attrs) []Conflict {
	var out []Conflict
	conflict := func(t ConflictType, format string, args ...interface{}) {
		c := Conflict{Type: t, Description: fmt.Sprintf(format, args...)}
		if label != "" {
			c.Items = []string{label}
		}
		if id != "" {
			c.HabitIDs = []string{id}
		}
		out = append(out, c)
	}

	if g := a.streakGoal; g != nil && (*g < constants.MinStreakGoal || *g > constants.MaxStreakGoal) {
		conflict(ConflictStreakGoalRange, "Streak goal %d for %q must be between %d and %d",
			*g, label, constants.MinStreakGoal, constants.MaxStreakGoal)
	}
	if g := a.weeklyGoal; g != nil && (*g < constants.MinWeeklyGoal || *g > constants.MaxWeeklyGoal) {
		conflict(ConflictWeeklyGoalRange, "Weekly goal %d for %q must be between %d and %d",
			*g, label, constants.MinWeeklyGoal, constants.MaxWeeklyGoal)
	}
	for _, day := range a.targetDays {
		if _, err := utils.ParseWeekday(day); err != nil {
			conflict(ConflictInvalidTargetDay, "Habit %q has invalid target day %q", label, day)
		}
	}
	if a.color != "" && !isHexColor(a.color) {
		conflict(ConflictInvalidColor, "Habit %q has invalid color %q (want #rgb or #rrggbb)", label, a.color)
	}
	return out
}

func isHexColor(s string) bool {
	if !strings.HasPrefix(s, "#") || (len(s) != 4 && len(s) != 7) {
		return false
	}
	for _, r := range s[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

func sortedKeys(l models.Ledger) []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedCounts(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedNames(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
