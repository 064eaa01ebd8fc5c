package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odysseus0/rssant/internal/api"
	"github.com/odysseus0/rssant/internal/content"
	"github.com/odysseus0/rssant/internal/session"
)

func newAddCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add resources",
	}
	cmd.AddCommand(newAddFeedCmd(getApp, getOutput))
	return cmd
}

func newAddFeedCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var discover bool
	var noWait bool

	cmd := &cobra.Command{
		Use:   "feed <url>",
		Short: "Subscribe to a feed URL",
		Long:  "Subscribe to a feed URL and wait until the server has checked it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			stderr := cmd.ErrOrStderr()

			target, err := content.NormalizeURL(args[0])
			if err != nil {
				return fmt.Errorf("%w: %v", api.ErrValidation, err)
			}
			var discovered string
			if discover {
				found, err := app.discoverer.Discover(ctx, target)
				if err != nil {
					return fmt.Errorf("discover feed url: %w", err)
				}
				if found.FeedURL != target {
					discovered = found.FeedURL
					fmt.Fprintf(stderr, "Discovered feed URL: %s\n", discovered)
				}
				target = found.FeedURL
			}

			feed, rec, err := app.session.CreateFeed(ctx, target)
			if err != nil {
				return fmt.Errorf("create feed: %w", err)
			}
			resp := AddFeedResponse{Feed: feed, DiscoveredURL: discovered}

			if !noWait {
				fmt.Fprintf(stderr, "Waiting for feed %d to be checked...\n", feed.ID)
				state, err := rec.Wait(ctx)
				if err != nil {
					return fmt.Errorf("wait for feed %d: %w", feed.ID, err)
				}
				resp.Reconcile = &ReconcileResult{State: string(state), Ticks: rec.Ticks()}
				if last := rec.LastErr(); last != nil {
					resp.Reconcile.Error = last.Error()
				}
				if f, ok := app.store.Feed(feed.ID); ok {
					resp.Feed = f
				}
			}

			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, resp)
			}
			fmt.Fprintf(out, "Added feed %d: %s\n", resp.Feed.ID, resp.Feed.DisplayTitle())
			if r := resp.Reconcile; r != nil {
				switch session.ReconcileState(r.State) {
				case session.StateReady:
					fmt.Fprintf(out, "Feed is ready (%d checks)\n", r.Ticks)
				case session.StateError:
					fmt.Fprintf(stderr, "Server could not fetch the feed (status %s)\n", resp.Feed.Status)
				case session.StateExhausted:
					fmt.Fprintf(stderr, "Feed still %s after %d checks\n", fallback(string(resp.Feed.Status), "pending"), r.Ticks)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&discover, "discover", false, "Resolve a web page URL to its feed before subscribing")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return right after the server accepts the feed")
	return cmd
}
