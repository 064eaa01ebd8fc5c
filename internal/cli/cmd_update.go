package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odysseus0/rssant/internal/api"
)

func newUpdateCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update resources",
	}
	cmd.AddCommand(newUpdateFeedCmd(getApp, getOutput))
	return cmd
}

func newUpdateFeedCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var feedURL string

	cmd := &cobra.Command{
		Use:   "feed <id>",
		Short: "Change the URL of a feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(feedURL) == "" {
				return fmt.Errorf("%w: --url is required", api.ErrValidation)
			}

			feed, err := app.session.UpdateFeed(cmd.Context(), id, strings.TrimSpace(feedURL))
			if err != nil {
				return fmt.Errorf("update feed: %w", err)
			}
			if getOutput() == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), feed)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated feed %d: %s\n", feed.ID, feed.URL)
			return nil
		},
	}
	cmd.Flags().StringVar(&feedURL, "url", "", "New feed URL")
	return cmd
}
