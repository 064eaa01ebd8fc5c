package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSelectCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Select the current feed or story",
	}
	cmd.AddCommand(newSelectFeedCmd(getApp, getOutput))
	cmd.AddCommand(newSelectStoryCmd(getApp, getOutput))
	return cmd
}

func newSelectFeedCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "feed <id>",
		Short: "Make a feed current, loading its detail when needed",
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
			app.session.SelectFeed(id)
			app.session.Wait()
			return writeCurrent(cmd, app, getOutput())
		},
	}
}

func newSelectStoryCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "story <id>",
		Short: "Make a story current along with its feed",
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
			if _, err := app.session.SelectStory(cmd.Context(), id); err != nil {
				return fmt.Errorf("select story: %w", err)
			}
			app.session.Wait()
			return writeCurrent(cmd, app, getOutput())
		},
	}
}

func newCurrentCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the current feed and story",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			return writeCurrent(cmd, app, getOutput())
		},
	}
}

func writeCurrent(cmd *cobra.Command, app *App, format OutputFormat) error {
	resp := CurrentResponse{
		FeedID:  app.store.CurrentFeedID(),
		StoryID: app.store.CurrentStoryID(),
	}
	if f, ok := app.store.CurrentFeed(); ok {
		resp.Feed = &f
	}
	if s, ok := app.store.CurrentStory(); ok {
		resp.Story = &s
	}

	out := cmd.OutOrStdout()
	if format == OutputJSON {
		return writeJSON(out, resp)
	}
	now := time.Now()
	switch {
	case resp.Feed != nil:
		writeFeedDetail(out, *resp.Feed, now)
	case resp.FeedID != 0:
		fmt.Fprintf(out, "feed %d (not loaded)\n", resp.FeedID)
	default:
		fmt.Fprintln(out, "No feed selected.")
	}
	switch {
	case resp.Story != nil:
		fmt.Fprintln(out)
		writeStoryDetail(out, *resp.Story, app.renderer.Story(*resp.Story), now)
	case resp.StoryID != 0:
		fmt.Fprintf(out, "story %d (not loaded)\n", resp.StoryID)
	}
	return nil
}
