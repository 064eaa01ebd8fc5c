package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove resources",
	}
	cmd.AddCommand(newRemoveFeedCmd(getApp, getOutput))
	return cmd
}

func newRemoveFeedCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "feed <id>",
		Short: "Unsubscribe from a feed by ID",
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
			if err := app.session.DeleteFeed(cmd.Context(), id); err != nil {
				return fmt.Errorf("remove feed: %w", err)
			}
			if getOutput() == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), RemoveFeedResponse{RemovedFeedID: id})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed feed %d\n", id)
			return nil
		},
	}
}
