package system

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/habitlit/internal/api"
	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/logger"
)

type ServeCmd struct {
	Listen    string `help:"Listen address (overrides server.listen)."`
	NoMetrics bool   `help:"Do not serve /metrics."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.serve(sigCtx, ctx)
}

func (c *ServeCmd) serve(parent context.Context, ctx *cli.Context) error {
	if err := ctx.Open(parent); err != nil {
		return err
	}

	srv := api.NewServer(ctx.Habits, ctx.Engine, ctx.Store, ctx.Writer)
	if ctx.Config.MetricsEnabled() && !c.NoMetrics {
		srv.EnableMetrics(ctx.Metrics)
	}
	if token := cli.SyncToken(); token != "" {
		srv.RequireToken(token)
	} else {
		logger.Warn("Sync endpoints are unauthenticated; set a token with 'habitlit config set-sync-token'")
	}

	addr := c.Listen
	if addr == "" {
		addr = ctx.Config.Server.Listen
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(parent)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", addr)
		fmt.Fprintf(ctx.Out, "Listening on http://%s\n", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("HTTP server shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return ctx.Flush(shutdownCtx)
	})
	return g.Wait()
}
