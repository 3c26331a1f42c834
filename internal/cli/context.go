package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitlit/internal/achievements"
	"github.com/julianstephens/habitlit/internal/backup"
	"github.com/julianstephens/habitlit/internal/config"
	"github.com/julianstephens/habitlit/internal/habits"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/observability"
	"github.com/julianstephens/habitlit/internal/storage"
	"github.com/julianstephens/habitlit/internal/utils"
)

// Context carries the services shared by every command
type Context struct {
	Config     config.Config
	ConfigPath string
	BackupDir  string
	Store      storage.Provider

	// Populated by Open
	Writer  *storage.Writer
	Habits  *habits.Store
	Engine  *achievements.Engine
	Metrics *observability.Metrics

	Out io.Writer
	// AssumeYes skips confirmation prompts
	AssumeYes bool
	// Clock overrides time.Now in tests
	Clock func() time.Time

	unbind []func()
}

func NewContext(cfg config.Config, configPath string, store storage.Provider) *Context {
	return &Context{
		Config:     cfg,
		ConfigPath: configPath,
		BackupDir:  config.BackupDir(),
		Store:      store,
		Out:        os.Stdout,
		Clock:      time.Now,
	}
}

// Open loads the provider and builds the habit store and achievement engine.
// Commands that only touch configuration never call it.
func (c *Context) Open(ctx context.Context) error {
	if c.Habits != nil {
		return nil
	}
	if err := c.Store.Load(); err != nil {
		return err
	}

	loc, err := utils.LoadLocation(c.Config.App.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Config.App.Timezone, err)
	}

	c.Metrics = observability.New()
	c.Writer = storage.NewWriter(c.Store, storage.WithErrorHook(c.Metrics.WriteFailed))
	c.Habits = habits.New(c.Store, c.Writer,
		habits.WithClock(c.Clock),
		habits.WithLocation(loc),
	)
	if err := c.Habits.Load(ctx); err != nil {
		return err
	}

	c.Engine = achievements.New(c.Store, c.Writer, c.Habits,
		achievements.WithClock(c.Clock),
		achievements.WithUnlockHook(c.announce),
	)
	if err := c.Engine.Load(ctx); err != nil {
		return err
	}
	c.unbind = append(c.unbind, c.Metrics.Observe(c.Habits), c.Engine.Bind(c.Habits))
	c.Metrics.SetProgress(c.Engine.Progress())
	return nil
}

// Close drains pending writes and closes the provider
func (c *Context) Close() error {
	for _, fn := range c.unbind {
		fn()
	}
	c.unbind = nil
	if c.Writer != nil {
		if err := c.Writer.Close(); err != nil {
			logger.Warn("Failed to drain pending writes", "error", err)
		}
	}
	return c.Store.Close()
}

// Flush waits for every queued write
func (c *Context) Flush(ctx context.Context) error {
	if c.Writer == nil {
		return nil
	}
	return c.Writer.Flush(ctx)
}

func (c *Context) announce(a models.Achievement) {
	c.Metrics.Unlocked(a)
	c.Metrics.SetProgress(c.Engine.Progress())
	fmt.Fprintf(c.Out, "%s %s unlocked: %s (+50 XP)\n", Badge(a.Icon), TitleStyle.Render(a.Title), a.Description)
}

// Confirm asks a yes/no question unless AssumeYes is set
func (c *Context) Confirm(title, description string) (bool, error) {
	if c.AssumeYes {
		return true, nil
	}
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(huh.ThemeBase())
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("interactive form error: %w", err)
	}
	return ok, nil
}

// BackupManager returns the manager for the configured backup directory
func (c *Context) BackupManager() *backup.Manager {
	return backup.NewManager(c.BackupDir)
}

// PerformAutomaticBackup snapshots the current export before a destructive
// command. Failures are logged and do not stop the command.
func (c *Context) PerformAutomaticBackup() string {
	data, err := c.Habits.ExportData()
	if err != nil {
		logger.Warn("Automatic backup failed", "error", err)
		return ""
	}
	path, err := c.BackupManager().CreateBackup(data)
	if err != nil {
		logger.Warn("Automatic backup failed", "error", err)
		return ""
	}
	logger.Info("Automatic backup created", "path", path)
	return path
}
