package progress

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/progression"
)

type AchievementsCmd struct {
	Locked   bool `help:"Show locked achievements only." xor:"filter"`
	Unlocked bool `help:"Show unlocked achievements only." xor:"filter"`
}

func (c *AchievementsCmd) Run(ctx *cli.Context) error {
	if err := ctx.Open(context.Background()); err != nil {
		return err
	}

	var list []models.Achievement
	switch {
	case c.Locked:
		list = ctx.Engine.Locked()
	case c.Unlocked:
		list = ctx.Engine.Unlocked()
	default:
		list = ctx.Engine.Achievements()
	}
	if len(list) == 0 {
		fmt.Fprintln(ctx.Out, "No achievements to show.")
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, a := range list {
		status := cli.MutedStyle.Render("locked")
		if a.Unlocked() {
			status = cli.SuccessStyle.Render("unlocked " + a.UnlockedAt.Local().Format("2006-01-02"))
		}
		pct := 0
		if a.Target > 0 {
			pct = a.Progress * 100 / a.Target
		}
		rows = append(rows, []string{
			cli.Badge(a.Icon),
			a.Title,
			string(a.Category),
			fmt.Sprintf("%d/%d", min(a.Progress, a.Target), a.Target),
			cli.ProgressBar(pct, 10),
			status,
		})
	}
	fmt.Fprintln(ctx.Out, cli.Table(
		[]string{"", "Achievement", "Category", "Progress", "", "Status"},
		rows,
	))
	unlocked := len(ctx.Engine.Unlocked())
	fmt.Fprintf(ctx.Out, "\n%d of %d unlocked\n", unlocked, len(ctx.Engine.Achievements()))
	return nil
}

type LevelCmd struct{}

func (c *LevelCmd) Run(ctx *cli.Context) error {
	if err := ctx.Open(context.Background()); err != nil {
		return err
	}
	p := ctx.Engine.Progress()
	fmt.Fprintf(ctx.Out, "%s  %d XP\n", cli.TitleStyle.Render(fmt.Sprintf("Level %d", p.Level)), p.XP)
	fmt.Fprintf(ctx.Out, "%s\n", cli.ProgressBar(p.ProgressPct, 30))
	fmt.Fprintf(ctx.Out, "%d XP to level %d\n", p.XPToNextLevel, progression.Level(p.XP)+1)
	return nil
}
