package backups

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
	List    BackupListCmd    `cmd:"" help:"List available backups."`
	Restore BackupRestoreCmd `cmd:"" help:"Restore habits from a backup."`
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	if err := ctx.Open(context.Background()); err != nil {
		return err
	}
	data, err := ctx.Habits.ExportData()
	if err != nil {
		return err
	}
	path, err := ctx.BackupManager().CreateBackup(data)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	fmt.Fprintf(ctx.Out, "✓ Backup created: %s\n", filepath.Base(path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr := ctx.BackupManager()
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		fmt.Fprintln(ctx.Out, "No backups found.")
		fmt.Fprintf(ctx.Out, "Backups are stored in: %s\n", mgr.GetBackupDir())
		return nil
	}

	fmt.Fprintf(ctx.Out, "Available backups (%d total, keeping most recent %d):\n\n", len(backups), constants.MaxBackups)
	for _, b := range backups {
		sizeKB := float64(b.Size) / 1024.0
		fmt.Fprintf(ctx.Out, "  %s  %s  (%.1f KB)\n", b.Timestamp.Format("2006-01-02 15:04"), b.Name(), sizeKB)
	}
	fmt.Fprintf(ctx.Out, "\nBackup directory: %s\n", mgr.GetBackupDir())
	return nil
}

type BackupRestoreCmd struct {
	Backup string `arg:"" help:"Backup file name, path, or 'latest'." default:"latest"`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	if err := ctx.Open(context.Background()); err != nil {
		return err
	}

	mgr := ctx.BackupManager()
	path, err := mgr.Resolve(c.Backup)
	if err != nil {
		return err
	}
	data, err := mgr.ReadBackup(path)
	if err != nil {
		return err
	}

	ok, err := ctx.Confirm(
		"Restore from "+filepath.Base(path)+"?",
		"Current habits are replaced. A backup of them is written first.",
	)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(ctx.Out, "Cancelled.")
		return nil
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.Habits.ImportData(data); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	fmt.Fprintf(ctx.Out, "✓ Restored %d habit(s) from %s\n", len(ctx.Habits.Habits()), filepath.Base(path))
	return nil
}
