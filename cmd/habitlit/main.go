package main

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/cli/backups"
	"github.com/julianstephens/habitlit/internal/cli/data"
	"github.com/julianstephens/habitlit/internal/cli/habits"
	"github.com/julianstephens/habitlit/internal/cli/progress"
	"github.com/julianstephens/habitlit/internal/cli/system"
	"github.com/julianstephens/habitlit/internal/config"
	"github.com/julianstephens/habitlit/internal/constants"
	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/logger"
)

var CLI struct {
	Version    kong.VersionFlag
	ConfigFile string `name:"config" help:"Config file path." type:"path" default:"${config_path}"`
	DB         string `help:"Storage path, PostgreSQL connection string, or Redis address (overrides config)."`
	Backend    string `help:"Storage backend: sqlite, postgres, redis, file, memory (overrides config)."`
	Timezone   string `help:"IANA timezone used for 'today' (overrides config)."`
	Debug      bool   `help:"Log debug output to stderr."`
	Yes        bool   `short:"y" help:"Answer yes to confirmation prompts."`

	Init    system.InitCmd    `cmd:"" help:"Initialize habitlit storage."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Migrate system.MigrateCmd `cmd:"" help:"Apply pending database migrations."`
	Serve   system.ServeCmd   `cmd:"" help:"Serve the JSON API."`
	Config  system.ConfigCmd  `cmd:"" help:"Show configuration and manage secrets."`

	Habit        habits.HabitCmd          `cmd:"" help:"Manage habits and completions."`
	Achievements progress.AchievementsCmd `cmd:"" help:"List achievements."`
	Level        progress.LevelCmd        `cmd:"" help:"Show XP and level."`

	Export data.ExportCmd    `cmd:"" help:"Export habits as JSON."`
	Import data.ImportCmd    `cmd:"" help:"Replace habits with an export file."`
	Clear  data.ClearCmd     `cmd:"" help:"Delete every habit (achievements and XP are kept)."`
	Backup backups.BackupCmd `cmd:"" help:"Manage habit backups."`
	Sync   data.SyncCmd      `cmd:"" help:"Push to or pull from a sync server."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with streaks, achievements and levels"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_path": config.DefaultConfigPath(),
		},
	)

	cfg, err := config.Load(CLI.ConfigFile)
	if err != nil {
		apperrors.Fatal(err)
	}
	applyFlags(&cfg)

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: config.ConfigDir(),
		Level:     cfg.App.LogLevel,
	}); err != nil {
		// Logging is best-effort; the command still runs
		os.Stderr.WriteString(apperrors.Formatf("failed to initialize logger: %v\n", err))
	}

	if err := cfg.Validate(); err != nil {
		apperrors.Fatal(err)
	}

	store, err := cli.OpenStorage(cfg.Storage)
	if err != nil {
		apperrors.Fatal(err)
	}

	appCtx := cli.NewContext(cfg, CLI.ConfigFile, store)
	appCtx.AssumeYes = CLI.Yes

	err = kctx.Run(appCtx)
	if cerr := appCtx.Close(); cerr != nil {
		logger.Warn("Failed to close storage", "error", cerr)
	}
	apperrors.Fatal(err)
}

// applyFlags layers global flags over the config file
func applyFlags(cfg *config.Config) {
	if CLI.Backend != "" {
		cfg.Storage.Backend = CLI.Backend
	}
	if CLI.DB != "" {
		switch cfg.Storage.Backend {
		case constants.BackendPostgres:
			cfg.Storage.DSN = CLI.DB
		case constants.BackendRedis:
			cfg.Storage.RedisAddr = CLI.DB
		default:
			cfg.Storage.Path = CLI.DB
		}
	}
	if CLI.Timezone != "" {
		cfg.App.Timezone = CLI.Timezone
	}
}
