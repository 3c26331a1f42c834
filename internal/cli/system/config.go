package system

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/keyring"
	"github.com/julianstephens/habitlit/internal/storage/postgres"
)

type ConfigCmd struct {
	Show          ConfigShowCmd          `cmd:"" help:"Print the effective configuration." default:"1"`
	SetConnection ConfigSetConnectionCmd `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
	SetSyncToken  ConfigSetSyncTokenCmd  `cmd:"" help:"Store the sync bearer token in the OS keyring."`
}

type ConfigShowCmd struct{}

func (cmd *ConfigShowCmd) Run(ctx *cli.Context) error {
	fmt.Fprintf(ctx.Out, "# %s\n", ctx.ConfigPath)
	if err := toml.NewEncoder(ctx.Out).Encode(ctx.Config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	fmt.Fprintln(ctx.Out)
	for _, e := range []keyring.Entry{keyring.ConnectionString, keyring.SyncToken} {
		state := "not set"
		if keyring.Lookup(e) != "" {
			state = "stored"
		}
		fmt.Fprintf(ctx.Out, "# keyring %s: %s\n", e, state)
	}
	return nil
}

type ConfigSetConnectionCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring."`
}

func (cmd *ConfigSetConnectionCmd) Run(ctx *cli.Context) error {
	if err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		// The keyring is the one place a password-bearing string may live
		fmt.Fprintln(ctx.Out, cli.WarningStyle.Render("⚠  Connection string contains credentials; storing it in the OS keyring."))
	}

	if err := keyring.Set(keyring.ConnectionString, cmd.ConnectionString); err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, "✓ Connection string stored successfully in OS keyring")
	if ctx.Config.Storage.Backend != "postgres" {
		fmt.Fprintln(ctx.Out, "  Set storage.backend = \"postgres\" to use it")
	}
	return nil
}

type ConfigSetSyncTokenCmd struct {
	Token string `arg:"" help:"Bearer token shared with the sync server."`
}

func (cmd *ConfigSetSyncTokenCmd) Run(ctx *cli.Context) error {
	if err := keyring.Set(keyring.SyncToken, cmd.Token); err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, "✓ Sync token stored successfully in OS keyring")
	return nil
}
