package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/config"
	"github.com/julianstephens/habitlit/internal/constants"
)

type InitCmd struct {
	Force bool `help:"Delete an existing sqlite or file store before initializing."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Initialized habitlit storage at: %s\n", ctx.Store.GetConfigPath())

	if _, err := os.Stat(ctx.ConfigPath); os.IsNotExist(err) {
		if err := config.Save(ctx.ConfigPath, ctx.Config); err != nil {
			return err
		}
		fmt.Fprintf(ctx.Out, "Wrote config to: %s\n", ctx.ConfigPath)
	}
	return nil
}

// reset removes the store file. Server backends are never dropped.
func (c *InitCmd) reset(ctx *cli.Context) error {
	switch ctx.Config.Storage.Backend {
	case constants.BackendSQLite, constants.BackendFile, "":
	default:
		return fmt.Errorf("--force is only supported for the sqlite and file backends")
	}

	path := ctx.Store.GetConfigPath()
	if _, err := os.Stat(path); err == nil {
		// Close first to release the file handle
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing store: %w", err)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to delete existing store: %w", err)
		}
		fmt.Fprintf(ctx.Out, "Deleted existing store at: %s\n", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing store: %w", err)
	}
	return nil
}
