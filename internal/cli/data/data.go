package data

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/julianstephens/habitlit/internal/cli"
)

type ExportCmd struct {
	Out string `help:"Write the export to this file instead of stdout." type:"path"`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	if err := ctx.Open(context.Background()); err != nil {
		return err
	}
	data, err := ctx.Habits.ExportData()
	if err != nil {
		return err
	}
	if c.Out == "" {
		fmt.Fprintln(ctx.Out, data)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Out), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(c.Out, []byte(data+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintf(ctx.Out, "✓ Exported %d habit(s) to %s\n", len(ctx.Habits.Habits()), c.Out)
	return nil
}

type ImportCmd struct {
	File string `arg:"" help:"Export file to import ('-' reads stdin)."`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	if err := ctx.Open(context.Background()); err != nil {
		return err
	}

	raw, err := readInput(c.File)
	if err != nil {
		return err
	}

	ok, err := ctx.Confirm(
		"Replace all habits?",
		fmt.Sprintf("The %d current habit(s) are replaced by the contents of %s.", len(ctx.Habits.Habits()), c.File),
	)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(ctx.Out, "Cancelled.")
		return nil
	}

	if path := ctx.PerformAutomaticBackup(); path != "" {
		fmt.Fprintf(ctx.Out, "Backup created: %s\n", filepath.Base(path))
	}
	if err := ctx.Habits.ImportData(raw); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Imported %d habit(s)\n", len(ctx.Habits.Habits()))
	return nil
}

func readInput(path string) (string, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(raw), nil
}

type ClearCmd struct{}

func (c *ClearCmd) Run(ctx *cli.Context) error {
	if err := ctx.Open(context.Background()); err != nil {
		return err
	}

	ok, err := ctx.Confirm(
		"Delete every habit?",
		"Achievements and XP are kept. A backup is written first.",
	)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(ctx.Out, "Cancelled.")
		return nil
	}

	if path := ctx.PerformAutomaticBackup(); path != "" {
		fmt.Fprintf(ctx.Out, "Backup created: %s\n", filepath.Base(path))
	}
	ctx.Habits.ClearAllData()
	fmt.Fprintln(ctx.Out, "✓ All habits cleared")
	return nil
}
