package models

import (
	"encoding/json"
	"time"
)

// Habit represents a recurring practice to track
type Habit struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	Icon              string          `json:"icon"`
	Color             string          `json:"color"` // hex, e.g. "#22c55e"
	Category          string          `json:"category,omitempty"`
	StreakGoal        int             `json:"streakGoal"`           // target consecutive days, 1-365
	WeeklyGoal        int             `json:"weeklyGoal,omitempty"` // target completions per week, 1-7
	TargetDays        []string        `json:"targetDays,omitempty"` // weekday labels, e.g. "mon"
	Reminders         json.RawMessage `json:"reminders,omitempty"`
	IsMicroHabit      bool            `json:"isMicroHabit,omitempty"`
	EstimatedDuration int             `json:"estimatedDuration,omitempty"` // minutes
	CreatedAt         time.Time       `json:"createdAt"`
	Archived          bool            `json:"archived"`
	Completions       Ledger          `json:"completions"`
}

// Clone returns a deep copy so callers cannot mutate store-owned state
func (h Habit) Clone() Habit {
	out := h
	out.Completions = h.Completions.Clone()
	if h.TargetDays != nil {
		out.TargetDays = append([]string(nil), h.TargetDays...)
	}
	if h.Reminders != nil {
		out.Reminders = append(json.RawMessage(nil), h.Reminders...)
	}
	return out
}

// HabitDraft holds the caller-supplied attributes of a new habit
type HabitDraft struct {
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	Icon              string          `json:"icon"`
	Color             string          `json:"color"`
	Category          string          `json:"category,omitempty"`
	StreakGoal        int             `json:"streakGoal"`
	WeeklyGoal        int             `json:"weeklyGoal,omitempty"`
	TargetDays        []string        `json:"targetDays,omitempty"`
	Reminders         json.RawMessage `json:"reminders,omitempty"`
	IsMicroHabit      bool            `json:"isMicroHabit,omitempty"`
	EstimatedDuration int             `json:"estimatedDuration,omitempty"`
}

// HabitPatch is a partial update. Nil fields are left untouched.
type HabitPatch struct {
	Name              *string         `json:"name,omitempty"`
	Description       *string         `json:"description,omitempty"`
	Icon              *string         `json:"icon,omitempty"`
	Color             *string         `json:"color,omitempty"`
	Category          *string         `json:"category,omitempty"`
	StreakGoal        *int            `json:"streakGoal,omitempty"`
	WeeklyGoal        *int            `json:"weeklyGoal,omitempty"`
	TargetDays        *[]string       `json:"targetDays,omitempty"`
	Reminders         json.RawMessage `json:"reminders,omitempty"`
	IsMicroHabit      *bool           `json:"isMicroHabit,omitempty"`
	EstimatedDuration *int            `json:"estimatedDuration,omitempty"`
}

// Apply merges the patch into h
func (p HabitPatch) Apply(h *Habit) {
	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.Description != nil {
		h.Description = *p.Description
	}
	if p.Icon != nil {
		h.Icon = *p.Icon
	}
	if p.Color != nil {
		h.Color = *p.Color
	}
	if p.Category != nil {
		h.Category = *p.Category
	}
	if p.StreakGoal != nil {
		h.StreakGoal = *p.StreakGoal
	}
	if p.WeeklyGoal != nil {
		h.WeeklyGoal = *p.WeeklyGoal
	}
	if p.TargetDays != nil {
		h.TargetDays = append([]string(nil), (*p.TargetDays)...)
	}
	if p.Reminders != nil {
		h.Reminders = append(json.RawMessage(nil), p.Reminders...)
	}
	if p.IsMicroHabit != nil {
		h.IsMicroHabit = *p.IsMicroHabit
	}
	if p.EstimatedDuration != nil {
		h.EstimatedDuration = *p.EstimatedDuration
	}
}

// HabitSummary bundles the derived metrics of a single habit
type HabitSummary struct {
	HabitID          string `json:"habitId"`
	Name             string `json:"name"`
	CurrentStreak    int    `json:"currentStreak"`
	LongestStreak    int    `json:"longestStreak"`
	CompletionRate   int    `json:"completionRate"`
	WeeklyProgress   int    `json:"weeklyProgress"`
	TotalCompletions int    `json:"totalCompletions"`
	CompletedToday   bool   `json:"completedToday"`
	StreakGoalMet    bool   `json:"streakGoalMet"`
	WeeklyGoalMet    bool   `json:"weeklyGoalMet"`
}
