package system

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/keyring"
	"github.com/julianstephens/habitlit/internal/utils"
	"github.com/julianstephens/habitlit/internal/validation"
)

// keyLister is implemented by the SQL backends
type keyLister interface {
	Keys(ctx context.Context) ([]string, error)
}

type DoctorCmd struct{}

type checkStatus int

const (
	statusOK checkStatus = iota
	statusWarn
	statusFail
	statusSkip
)

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Fprintln(ctx.Out, "Running diagnostics...")
	fmt.Fprintln(ctx.Out)

	hasError := false
	report := func(name string, status checkStatus, detail string) {
		switch status {
		case statusOK:
			fmt.Fprintf(ctx.Out, "%s %s: OK\n", cli.SuccessStyle.Render("✓"), name)
		case statusWarn:
			fmt.Fprintf(ctx.Out, "%s %s: WARNING\n", cli.WarningStyle.Render("⚠"), name)
		case statusFail:
			fmt.Fprintf(ctx.Out, "%s %s: FAIL\n", cli.ErrorStyle.Render("❌"), name)
			hasError = true
		case statusSkip:
			fmt.Fprintf(ctx.Out, "%s %s: SKIPPED\n", cli.MutedStyle.Render("⊘"), name)
		}
		if detail != "" {
			fmt.Fprintf(ctx.Out, "   %s\n", detail)
		}
	}

	if err := ctx.Config.Validate(); err != nil {
		report("Configuration", statusFail, err.Error())
	} else {
		report("Configuration", statusOK, "")
	}

	reachable := true
	if err := ctx.Store.Load(); err != nil {
		report("Storage reachable", statusFail, err.Error())
		reachable = false
	} else {
		report("Storage reachable", statusOK, ctx.Store.GetConfigPath())
	}

	if m, ok := ctx.Store.(schemaStore); ok && reachable {
		pending, err := m.PendingMigrations()
		switch {
		case err != nil:
			report("Migrations complete", statusFail, err.Error())
		case pending > 0:
			report("Migrations complete", statusFail, fmt.Sprintf("%d pending migration(s), run 'habitlit migrate'", pending))
		default:
			report("Migrations complete", statusOK, "")
		}
	}

	if l, ok := ctx.Store.(keyLister); ok && reachable {
		keys, err := l.Keys(context.Background())
		switch {
		case err != nil:
			report("Stored keys", statusFail, err.Error())
		case len(keys) == 0:
			report("Stored keys", statusOK, "empty store")
		default:
			report("Stored keys", statusOK, strings.Join(keys, ", "))
		}
	}

	if reachable {
		status, detail := checkData(ctx)
		report("Data validation", status, detail)
	} else {
		report("Data validation", statusSkip, "storage not reachable")
	}

	if backups, err := ctx.BackupManager().ListBackups(); err != nil {
		report("Backups present", statusWarn, err.Error())
	} else if len(backups) == 0 {
		report("Backups present", statusWarn, "no backups found - consider creating one with 'habitlit backup create'")
	} else {
		report("Backups present", statusOK, fmt.Sprintf("%d backup(s), newest %s", len(backups), backups[0].Name()))
	}

	if ctx.Config.Storage.Backend == constants.BackendPostgres || ctx.Config.Sync.URL != "" {
		if keyring.IsAvailable() {
			report("OS keyring", statusOK, "")
		} else {
			report("OS keyring", statusWarn, "keyring unavailable; use environment variables for secrets")
		}
	}

	if err := checkClock(ctx.Config.App.Timezone); err != nil {
		report("Clock/timezone", statusFail, err.Error())
	} else {
		report("Clock/timezone", statusOK, "")
	}

	fmt.Fprintln(ctx.Out)
	if hasError {
		fmt.Fprintln(ctx.Out, "Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	fmt.Fprintln(ctx.Out, "All diagnostics passed!")
	return nil
}

func checkData(ctx *cli.Context) (checkStatus, string) {
	if err := ctx.Open(context.Background()); err != nil {
		return statusFail, err.Error()
	}
	result := validation.New().ValidateHabits(ctx.Habits.Habits())
	if blocking := result.Blocking(); len(blocking) > 0 {
		return statusFail, blocking[0].Description
	}
	if result.HasConflicts() {
		return statusWarn, fmt.Sprintf("%d non-blocking issue(s): %s", len(result.Conflicts), result.Conflicts[0].Description)
	}
	return statusOK, fmt.Sprintf("%d habit(s)", len(ctx.Habits.Habits()))
}

func checkClock(timezone string) error {
	now, err := utils.NowInTimezone(timezone)
	if err != nil {
		return err
	}
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
