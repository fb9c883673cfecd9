package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site with Echo",
		Long: `serve renders the pages on request. Posts and repositories are cached in
memory, the color mode is kept in a session cookie, and Prometheus metrics are
exposed at /metrics. With --watch (the default) edits to content invalidate the
post cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app := c.newApp()
			defer app.Close()
			if err := app.Setup(); err != nil {
				return err
			}

			errc := make(chan error, 1)
			go func() {
				errc <- app.Start()
			}()
			if watch {
				go func() {
					if err := app.Watch(ctx, nil); err != nil {
						app.Logger.Errorf("watch: %v", err)
					}
				}()
			}

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			app.Logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := app.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return <-errc
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", true, "invalidate the post cache when content changes")
	cmd.Flags().String("addr", "", `listen address (default ":3000")`)
	return cmd
}
