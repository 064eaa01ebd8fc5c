package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/odysseus0/rssant/internal/model"
	"github.com/odysseus0/rssant/internal/opml"
	"github.com/odysseus0/rssant/internal/store"
)

func newImportCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "import <file-or-url>",
		Short: "Subscribe to every feed of an OPML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			src := args[0]

			urls, err := opml.Open(ctx, nil, src)
			if err != nil {
				return fmt.Errorf("read opml: %w", err)
			}

			report := importFeeds(ctx, app, urls, wait)
			report.File = src

			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, report)
			}
			if getOutput() == OutputWide {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "FEED_ID\tSTATUS\tURL\tERROR")
				for _, r := range report.Results {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.FeedID, fallback(r.Status, "-"), r.InputURL, r.Error)
				}
				_ = tw.Flush()
			}
			fmt.Fprintf(out, "Imported %d of %d feeds (%d failed)\n", report.Added, report.Total, report.Failed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the server to check each imported feed")
	return cmd
}

// importFeeds subscribes to urls with bounded concurrency. Failures are
// recorded per url and never stop the remaining imports.
func importFeeds(ctx context.Context, app *App, urls []string, wait bool) ImportReport {
	results := make([]ImportResult, len(urls))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(app.cfg.ImportConcurrency, 1))
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			res := ImportResult{InputURL: u}
			feed, rec, err := app.session.CreateFeed(ctx, u)
			if err != nil {
				res.Error = err.Error()
				results[i] = res
				app.log.Debug("import failed", zap.String("url", u), zap.Error(err))
				return nil
			}
			res.FeedID = feed.ID
			res.Status = string(feed.Status)
			if wait {
				if _, err := rec.Wait(ctx); err != nil {
					res.Error = err.Error()
				}
				res.Status = string(rec.Feed().Status)
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	report := ImportReport{Total: len(urls), Results: results}
	for _, r := range results {
		if r.Error != "" || r.FeedID == 0 {
			report.Failed++
		} else {
			report.Added++
		}
	}
	return report
}

func newExportCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all subscribed feeds as OPML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			feeds, err := loadAllFeeds(cmd.Context(), app)
			if err != nil {
				return fmt.Errorf("list feeds: %w", err)
			}

			if path == "" || path == "-" {
				return opml.Write(cmd.OutOrStdout(), feeds)
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := opml.Write(f, feeds); err != nil {
				_ = f.Close()
				return fmt.Errorf("write %s: %w", path, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			if getOutput() == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"file": path, "feeds": len(feeds)})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d feeds to %s\n", len(feeds), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "Output file (stdout when empty)")
	return cmd
}

// loadAllFeeds pages through the whole subscription list.
func loadAllFeeds(ctx context.Context, app *App) ([]model.Feed, error) {
	if _, err := app.session.ListFeeds(ctx, model.FeedListOptions{Detail: true}); err != nil {
		return nil, err
	}
	for app.store.Cursor(store.Feeds) != "" {
		n, err := app.session.ListMoreFeeds(ctx)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	return app.store.Feeds(), nil
}
