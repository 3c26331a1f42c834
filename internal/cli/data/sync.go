package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/remotesync"
	"github.com/julianstephens/habitlit/internal/storage"
)

type SyncCmd struct {
	Push SyncPushCmd `cmd:"" help:"Upload habits to the sync server."`
	Pull SyncPullCmd `cmd:"" help:"Replace local habits with the server copy."`
}

func newClient(ctx *cli.Context, override string) (*remotesync.Client, error) {
	url := override
	if url == "" {
		url = ctx.Config.Sync.URL
	}
	if url == "" {
		return nil, errors.New("no sync server configured: set sync.url or pass --url")
	}
	return remotesync.NewClient(url, cli.SyncToken()), nil
}

type SyncPushCmd struct {
	URL string `help:"Sync server base URL (overrides sync.url)."`
}

func (c *SyncPushCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if err := ctx.Open(bg); err != nil {
		return err
	}
	client, err := newClient(ctx, c.URL)
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(bg, 30*time.Second)
	defer cancel()
	ack, err := client.Push(reqCtx, ctx.Habits.Habits(), lastSync(bg, ctx.Store))
	if err != nil {
		return fmt.Errorf("sync push failed: %w", err)
	}

	recordSync(ctx, ack.ServerTimestamp)
	fmt.Fprintf(ctx.Out, "✓ Pushed %d habit(s) at %s\n", ack.Count, ack.ServerTimestamp.Local().Format(time.RFC3339))
	return nil
}

type SyncPullCmd struct {
	URL string `help:"Sync server base URL (overrides sync.url)."`
}

func (c *SyncPullCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if err := ctx.Open(bg); err != nil {
		return err
	}
	client, err := newClient(ctx, c.URL)
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(bg, 30*time.Second)
	defer cancel()
	snap, err := client.Pull(reqCtx)
	if err != nil {
		return fmt.Errorf("sync pull failed: %w", err)
	}

	ok, err := ctx.Confirm(
		"Replace local habits with the server copy?",
		fmt.Sprintf("The server holds %d habit(s); you have %d locally.", len(snap.Habits), len(ctx.Habits.Habits())),
	)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(ctx.Out, "Cancelled.")
		return nil
	}

	raw, err := json.Marshal(snap.Habits)
	if err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()
	if err := ctx.Habits.ImportData(string(raw)); err != nil {
		return err
	}

	recordSync(ctx, snap.Timestamp)
	fmt.Fprintf(ctx.Out, "✓ Pulled %d habit(s)\n", len(snap.Habits))
	return nil
}

// lastSync reads the previous sync time; a missing or bad value means never
func lastSync(ctx context.Context, p storage.Provider) *time.Time {
	raw, err := p.Get(ctx, constants.KeySyncLast)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("Failed to read last sync time", "error", err)
		}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		logger.Warn("Ignoring malformed last sync time", "value", raw, "error", err)
		return nil
	}
	return &t
}

func recordSync(ctx *cli.Context, at time.Time) {
	if at.IsZero() {
		at = ctx.Clock()
	}
	ctx.Writer.Enqueue(constants.KeySyncLast, at.UTC().Format(time.RFC3339Nano))
}
