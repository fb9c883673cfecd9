package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func (c *cli) buildCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the site into the output directory",
		Long: `build loads the markdown posts and the about page, fetches the pinned
GitHub repositories, and writes every page, the RSS feed, the sitemap and the
static files into the output directory (default ./public). The output
directory is emptied first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app := c.newApp()
			defer app.Close()

			if _, err := app.Build(ctx); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			app.Logger.Info("watching for changes, press Ctrl+C to stop")
			return app.Watch(ctx, func() {
				if _, err := app.Build(ctx); err != nil {
					app.Logger.Errorf("rebuild failed: %v", err)
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild when content or static files change")
	cmd.Flags().StringP("output", "o", "", `output directory (default "public")`)
	return cmd
}
