package habits

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
	"github.com/julianstephens/habitlit/internal/validation"
)

type HabitCmd struct {
	Add     HabitAddCmd     `cmd:"" help:"Add a new habit."`
	List    HabitListCmd    `cmd:"" help:"List habits with their streaks."`
	Edit    HabitEditCmd    `cmd:"" help:"Edit an existing habit."`
	Toggle  HabitToggleCmd  `cmd:"" help:"Mark or unmark a habit for a day."`
	Archive HabitArchiveCmd `cmd:"" help:"Archive a habit."`
	Restore HabitRestoreCmd `cmd:"" help:"Restore an archived habit."`
	Delete  HabitDeleteCmd  `cmd:"" help:"Delete a habit and its history."`
	Stats   HabitStatsCmd   `cmd:"" help:"Show metrics for a habit."`
	Log     HabitLogCmd     `cmd:"" help:"Show habit log (ASCII history)."`
}

type HabitAddCmd struct {
	Name        string `arg:"" help:"Habit name."`
	Description string `help:"Short description."`
	Icon        string `help:"Icon name." default:"check"`
	Color       string `help:"Hex color." default:"#22c55e"`
	Category    string `help:"Category label."`
	StreakGoal  int    `help:"Target streak in days (1-365)." default:"7"`
	WeeklyGoal  int    `help:"Target completions per week (1-7)."`
	Days        string `help:"Target weekdays, e.g. mon,wed,fri."`
	Micro       bool   `help:"Mark as a micro habit."`
	Duration    int    `help:"Estimated duration in minutes."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	if err := ctx.Open(context.Background()); err != nil {
		return err
	}

	if _, ok := ctx.Habits.HabitByName(c.Name); ok {
		return fmt.Errorf("%w: habit with name %q already exists", apperrors.ErrValidation, c.Name)
	}

	days, err := utils.ParseWeekdays(c.Days)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	draft := models.HabitDraft{
		Name:              strings.TrimSpace(c.Name),
		Description:       c.Description,
		Icon:              c.Icon,
		Color:             c.Color,
		Category:          c.Category,
		StreakGoal:        c.StreakGoal,
		WeeklyGoal:        c.WeeklyGoal,
		TargetDays:        days,
		IsMicroHabit:      c.Micro,
		EstimatedDuration: c.Duration,
	}
	if err := checkResult(validation.New().ValidateDraft(draft)); err != nil {
		return err
	}

	h := ctx.Habits.AddHabit(draft)
	fmt.Fprintf(ctx.Out, "%s Added habit: %s (%s)\n", cli.Swatch(h.Color), h.Name, cli.MutedStyle.Render(h.ID))
	return nil
}

type HabitListCmd struct {
	Archived bool `help:"Show archived habits only."`
	All      bool `help:"Show active and archived habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	if err := ctx.Open(context.Background()); err != nil {
		return err
	}

	var list []models.Habit
	switch {
	case c.All:
		list = ctx.Habits.Habits()
	case c.Archived:
		list = ctx.Habits.ArchivedHabits()
	default:
		list = ctx.Habits.ActiveHabits()
	}

	if len(list) == 0 {
		fmt.Fprintln(ctx.Out, "No habits found.")
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, h := range list {
		s, _ := ctx.Habits.Summary(h.ID)
		today := " "
		if s.CompletedToday {
			today = "x"
		}
		name := cli.Swatch(h.Color) + " " + h.Name
		if h.Archived {
			name += " " + cli.MutedStyle.Render("(archived)")
		}
		rows = append(rows, []string{
			"[" + today + "]",
			name,
			fmt.Sprintf("%d/%d", s.CurrentStreak, h.StreakGoal),
			fmt.Sprintf("%d", s.LongestStreak),
			fmt.Sprintf("%d%%", s.CompletionRate),
			fmt.Sprintf("%d%%", s.WeeklyProgress),
			fmt.Sprintf("%d", s.TotalCompletions),
		})
	}
	fmt.Fprintln(ctx.Out, cli.Table(
		[]string{"Today", "Habit", "Streak", "Best", "30d", "Week", "Total"},
		rows,
	))
	return nil
}

type HabitEditCmd struct {
	Habit       string  `arg:"" help:"Habit name or id."`
	Name        *string `help:"New name."`
	Description *string `help:"New description."`
	Icon        *string `help:"New icon."`
	Color       *string `help:"New hex color."`
	Category    *string `help:"New category."`
	StreakGoal  *int    `help:"New streak goal (1-365)."`
	WeeklyGoal  *int    `help:"New weekly goal (1-7)."`
	Days        *string `help:"New target weekdays, e.g. mon,wed,fri. Empty clears them."`
	Micro       *bool   `help:"Set or clear the micro habit flag."`
	Duration    *int    `help:"New estimated duration in minutes."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	if err := ctx.Open(context.Background()); err != nil {
		return err
	}

	h, err := ctx.Habits.Resolve(c.Habit)
	if err != nil {
		return err
	}

	patch := models.HabitPatch{
		Name:              c.Name,
		Description:       c.Description,
		Icon:              c.Icon,
		Color:             c.Color,
		Category:          c.Category,
		StreakGoal:        c.StreakGoal,
		WeeklyGoal:        c.WeeklyGoal,
		IsMicroHabit:      c.Micro,
		EstimatedDuration: c.Duration,
	}
	if c.Days != nil {
		days, err := utils.ParseWeekdays(*c.Days)
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		patch.TargetDays = &days
	}
	if c.Name != nil {
		if other, ok := ctx.Habits.HabitByName(*c.Name); ok && other.ID != h.ID {
			return fmt.Errorf("%w: habit with name %q already exists", apperrors.ErrValidation, *c.Name)
		}
	}
	if err := checkResult(validation.New().ValidatePatch(patch)); err != nil {
		return err
	}

	ctx.Habits.UpdateHabit(h.ID, patch)
	updated, _ := ctx.Habits.Habit(h.ID)
	fmt.Fprintf(ctx.Out, "Updated habit: %s\n", updated.Name)
	return nil
}

type HabitToggleCmd struct {
	Habit  string `arg:"" help:"Habit name or id."`
	Date   string `help:"Day to toggle (YYYY-MM-DD). Defaults to today."`
	Note   string `help:"Attach a note to the completion."`
	Mood   string `help:"Mood: great, good, okay, bad, terrible."`
	Energy string `help:"Energy: high, medium, low."`
}

func (c *HabitToggleCmd) Run(ctx *cli.Context) error {
	if err := ctx.Open(context.Background()); err != nil {
		return err
	}

	h, err := ctx.Habits.Resolve(c.Habit)
	if err != nil {
		return err
	}

	day := c.Date
	if day == "" {
		day = utils.FormatDate(ctx.Habits.Today())
	}
	extra, err := validation.CompletionDetail(c.Note, c.Mood, c.Energy)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	completed, err := ctx.Habits.ToggleHabitCompletion(h.ID, day, extra)
	if err != nil {
		return err
	}

	if completed {
		s, _ := ctx.Habits.Summary(h.ID)
		fmt.Fprintf(ctx.Out, "%s %s done for %s (streak: %d)\n", cli.SuccessStyle.Render("✓"), h.Name, day, s.CurrentStreak)
	} else {
		fmt.Fprintf(ctx.Out, "%s %s unmarked for %s\n", cli.MutedStyle.Render("○"), h.Name, day)
	}
	return nil
}

type HabitArchiveCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitArchiveCmd) Run(ctx *cli.Context) error {
	if err := ctx.Open(context.Background()); err != nil {
		return err
	}
	h, err := ctx.Habits.Resolve(c.Habit)
	if err != nil {
		return err
	}
	ctx.Habits.ArchiveHabit(h.ID)
	fmt.Fprintf(ctx.Out, "Archived habit: %s\n", h.Name)
	return nil
}

type HabitRestoreCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitRestoreCmd) Run(ctx *cli.Context) error {
	if err := ctx.Open(context.Background()); err != nil {
		return err
	}
	h, err := ctx.Habits.Resolve(c.Habit)
	if err != nil {
		return err
	}
	if !h.Archived {
		fmt.Fprintf(ctx.Out, "Habit %s is not archived.\n", h.Name)
		return nil
	}
	ctx.Habits.RestoreHabit(h.ID)
	fmt.Fprintf(ctx.Out, "Restored habit: %s\n", h.Name)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.Open(context.Background()); err != nil {
		return err
	}
	h, err := ctx.Habits.Resolve(c.Habit)
	if err != nil {
		return err
	}

	ok, err := ctx.Confirm(
		fmt.Sprintf("Delete habit %q?", h.Name),
		fmt.Sprintf("This removes %d completion(s) permanently.", len(h.Completions)),
	)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(ctx.Out, "Cancelled.")
		return nil
	}

	ctx.Habits.DeleteHabit(h.ID)
	fmt.Fprintf(ctx.Out, "Deleted habit: %s\n", h.Name)
	return nil
}

type HabitStatsCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitStatsCmd) Run(ctx *cli.Context) error {
	if err := ctx.Open(context.Background()); err != nil {
		return err
	}
	h, err := ctx.Habits.Resolve(c.Habit)
	if err != nil {
		return err
	}
	s, _ := ctx.Habits.Summary(h.ID)

	fmt.Fprintf(ctx.Out, "%s %s\n", cli.Swatch(h.Color), cli.TitleStyle.Render(h.Name))
	if h.Description != "" {
		fmt.Fprintln(ctx.Out, cli.MutedStyle.Render(h.Description))
	}
	fmt.Fprintln(ctx.Out)
	fmt.Fprintf(ctx.Out, "Current streak:  %d day(s) %s\n", s.CurrentStreak, goalMark(s.StreakGoalMet, h.StreakGoal))
	fmt.Fprintf(ctx.Out, "Longest streak:  %d day(s)\n", s.LongestStreak)
	fmt.Fprintf(ctx.Out, "Total:           %d completion(s)\n", s.TotalCompletions)
	fmt.Fprintf(ctx.Out, "Last %d days:    %s\n", constants.DefaultRateWindowDays, cli.ProgressBar(s.CompletionRate, 20))
	fmt.Fprintf(ctx.Out, "This week:       %s\n", cli.ProgressBar(s.WeeklyProgress, 20))
	return nil
}

func goalMark(met bool, goal int) string {
	if met {
		return cli.SuccessStyle.Render(fmt.Sprintf("(goal %d reached)", goal))
	}
	return cli.MutedStyle.Render(fmt.Sprintf("(goal %d)", goal))
}

type HabitLogCmd struct {
	Days  int    `help:"Number of days to show." default:"14"`
	Habit string `help:"Show log for specific habit only."`
}

func (c *HabitLogCmd) Run(ctx *cli.Context) error {
	if err := ctx.Open(context.Background()); err != nil {
		return err
	}
	if c.Days < 1 {
		return fmt.Errorf("%w: --days must be at least 1", apperrors.ErrValidation)
	}

	var selected []models.Habit
	if c.Habit != "" {
		h, err := ctx.Habits.Resolve(c.Habit)
		if err != nil {
			return err
		}
		selected = []models.Habit{h}
	} else {
		selected = ctx.Habits.ActiveHabits()
	}
	if len(selected) == 0 {
		fmt.Fprintln(ctx.Out, "No habits found.")
		return nil
	}

	end := ctx.Habits.Today()
	start := utils.AddDays(end, -(c.Days - 1))

	fmt.Fprintf(ctx.Out, "Habit log (last %d days):\n\n", c.Days)

	const nameWidth = 20
	fmt.Fprint(ctx.Out, strings.Repeat(" ", nameWidth))
	for i := 0; i < c.Days; i++ {
		fmt.Fprintf(ctx.Out, " %5s", utils.AddDays(start, i).Format("01/02"))
	}
	fmt.Fprintln(ctx.Out)
	fmt.Fprintln(ctx.Out, strings.Repeat("-", nameWidth+6*c.Days))

	for _, h := range selected {
		fmt.Fprint(ctx.Out, padName(h.Name, nameWidth))
		for i := 0; i < c.Days; i++ {
			if h.Completions.Counted(utils.FormatDate(utils.AddDays(start, i))) {
				fmt.Fprint(ctx.Out, "   x  ")
			} else {
				fmt.Fprint(ctx.Out, "   .  ")
			}
		}
		fmt.Fprintln(ctx.Out)
	}
	return nil
}

// padName truncates or pads name to exactly width runes
func padName(name string, width int) string {
	r := []rune(name)
	if len(r) > width {
		return string(r[:width-3]) + "..."
	}
	return name + strings.Repeat(" ", width-len(r))
}

func checkResult(result validation.ValidationResult) error {
	if !result.HasConflicts() {
		return nil
	}
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, strings.TrimSpace(result.FormatReport()))
}
