package habits

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitlit/internal/analytics"
	"github.com/julianstephens/habitlit/internal/models"
)

// Habits returns a copy of the whole collection in order
func (s *Store) Habits() []models.Habit {
	return s.filter(func(models.Habit) bool { return true })
}

func (s *Store) ActiveHabits() []models.Habit {
	return s.filter(func(h models.Habit) bool { return !h.Archived })
}

func (s *Store) ArchivedHabits() []models.Habit {
	return s.filter(func(h models.Habit) bool { return h.Archived })
}

func (s *Store) filter(keep func(models.Habit) bool) []models.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Habit, 0, len(s.habits))
	for _, h := range s.habits {
		if keep(h) {
			out = append(out, h.Clone())
		}
	}
	return out
}

// Habit returns a copy of the habit with id
func (s *Store) Habit(id string) (models.Habit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.habits[i].Clone(), true
	}
	return models.Habit{}, false
}

// HabitByName matches case-insensitively, preferring active habits
func (s *Store) HabitByName(name string) (models.Habit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var archived *models.Habit
	for i := range s.habits {
		h := &s.habits[i]
		if !strings.EqualFold(h.Name, name) {
			continue
		}
		if !h.Archived {
			return h.Clone(), true
		}
		if archived == nil {
			archived = h
		}
	}
	if archived != nil {
		return archived.Clone(), true
	}
	return models.Habit{}, false
}

// Resolve finds a habit by id, then by name. Used to address habits from
// the CLI.
func (s *Store) Resolve(ref string) (models.Habit, error) {
	if h, ok := s.Habit(ref); ok {
		return h, nil
	}
	if h, ok := s.HabitByName(ref); ok {
		return h, nil
	}
	return models.Habit{}, fmt.Errorf("habit %q: %w", ref, ErrNotFound)
}

// Streak returns the current streak of habit id, or 0 if unknown
func (s *Store) Streak(id string) int {
	return s.metric(id, func(h *models.Habit) int {
		return analytics.Streak(h.Completions, s.Today())
	})
}

func (s *Store) LongestStreak(id string) int {
	return s.metric(id, func(h *models.Habit) int {
		return analytics.LongestStreak(h.Completions)
	})
}

// CompletionRate over the last windowDays days, today included
func (s *Store) CompletionRate(id string, windowDays int) int {
	return s.metric(id, func(h *models.Habit) int {
		return analytics.CompletionRate(h.Completions, s.Today(), windowDays)
	})
}

// WeeklyProgress against the habit's own weekly goal
func (s *Store) WeeklyProgress(id string) int {
	return s.metric(id, func(h *models.Habit) int {
		return analytics.WeeklyProgress(h.Completions, s.Today(), analytics.EffectiveWeeklyGoal(*h))
	})
}

func (s *Store) TotalCompletions(id string) int {
	return s.metric(id, func(h *models.Habit) int {
		return analytics.TotalCompletions(h.Completions)
	})
}

func (s *Store) metric(id string, fn func(*models.Habit) int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return 0
	}
	return fn(&s.habits[i])
}

// Summary computes every metric of habit id at once
func (s *Store) Summary(id string) (models.HabitSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.HabitSummary{}, false
	}
	return analytics.Summarize(s.habits[i], s.Today()), true
}

// Summaries returns a summary per habit in collection order
func (s *Store) Summaries(includeArchived bool) []models.HabitSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	today := s.Today()
	out := make([]models.HabitSummary, 0, len(s.habits))
	for _, h := range s.habits {
		if h.Archived && !includeArchived {
			continue
		}
		out = append(out, analytics.Summarize(h, today))
	}
	return out
}
